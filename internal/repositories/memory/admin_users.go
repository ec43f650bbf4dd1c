package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.AdminUserRepository = (*AdminUserStore)(nil)

// AdminUserStore is an in-memory AdminUserRepository keyed by lower-cased email.
type AdminUserStore struct {
	mu    sync.RWMutex
	users map[string]models.AdminUser
}

// NewAdminUserStore creates an empty AdminUserStore.
func NewAdminUserStore() *AdminUserStore {
	return &AdminUserStore{users: make(map[string]models.AdminUser)}
}

func (s *AdminUserStore) Create(ctx context.Context, adminUser *models.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(adminUser.Email)
	if _, ok := s.users[key]; ok {
		return repositories.ErrDuplicateEmail
	}
	if adminUser.ID.IsZero() {
		adminUser.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	adminUser.CreatedAt = now
	adminUser.UpdatedAt = now
	s.users[key] = *adminUser
	return nil
}

func (s *AdminUserStore) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (s *AdminUserStore) UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, u := range s.users {
		if u.ID == id {
			u.LastLoginAt = time.Now().UTC()
			s.users[key] = u
			return nil
		}
	}
	return repositories.ErrNotFound
}
