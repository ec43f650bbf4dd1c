package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.RolloverRepository = (*RolloverStore)(nil)

// RolloverStore is an in-memory RolloverRepository.
type RolloverStore struct {
	mu        sync.Mutex
	rollovers []models.Rollover
}

// NewRolloverStore creates an empty RolloverStore.
func NewRolloverStore() *RolloverStore {
	return &RolloverStore{}
}

func (s *RolloverStore) CreateMany(ctx context.Context, rollovers []*models.Rollover) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rollovers {
		if r.ID.IsZero() {
			r.ID = primitive.NewObjectID()
		}
		r.CreatedAt = time.Now().UTC()
		s.rollovers = append(s.rollovers, *r)
	}
	return nil
}

func (s *RolloverStore) FindPending(ctx context.Context) ([]*models.Rollover, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Rollover
	for _, r := range s.rollovers {
		if !r.Applied {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

func (s *RolloverStore) MarkApplied(ctx context.Context, ids []primitive.ObjectID, destinationDrawID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for i := range s.rollovers {
		if _, ok := want[s.rollovers[i].ID]; ok {
			s.rollovers[i].Applied = true
			s.rollovers[i].DestinationDrawID = destinationDrawID
		}
	}
	return nil
}
