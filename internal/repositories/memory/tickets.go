// Package memory provides in-process repository implementations used for
// local development (Storage.Driver=memory) and tests. They enforce the same
// uniqueness rules as the MongoDB indexes.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.TicketRepository = (*TicketStore)(nil)

// TicketStore is an in-memory TicketRepository.
type TicketStore struct {
	mu        sync.RWMutex
	purchases map[primitive.ObjectID]*models.TicketPurchase
	byHash    map[string]primitive.ObjectID
}

// NewTicketStore creates an empty TicketStore.
func NewTicketStore() *TicketStore {
	return &TicketStore{
		purchases: make(map[primitive.ObjectID]*models.TicketPurchase),
		byHash:    make(map[string]primitive.ObjectID),
	}
}

// CreatePurchase inserts the purchase unless its transaction hash is taken.
// The check and the insert happen under one lock, like a unique index.
func (s *TicketStore) CreatePurchase(ctx context.Context, purchase *models.TicketPurchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byHash[purchase.TransactionHash]; taken {
		return repositories.ErrTransactionAlreadyUsed
	}
	if purchase.ID.IsZero() {
		purchase.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	purchase.CreatedAt = now
	purchase.UpdatedAt = now

	s.purchases[purchase.ID] = clonePurchase(purchase)
	s.byHash[purchase.TransactionHash] = purchase.ID
	return nil
}

func (s *TicketStore) ExistsByTransactionHash(ctx context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byHash[hash]
	return ok, nil
}

func (s *TicketStore) FindByTransactionHash(ctx context.Context, hash string) (*models.TicketPurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[hash]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clonePurchase(s.purchases[id]), nil
}

func (s *TicketStore) FindByWallet(ctx context.Context, wallet string, page, limit int) ([]*models.TicketPurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.TicketPurchase
	for _, p := range s.purchases {
		if p.WalletAddress == wallet {
			out = append(out, clonePurchase(p))
		}
	}
	sortNewestFirst(out)
	return paginate(out, page, limit), nil
}

func (s *TicketStore) FindByDrawID(ctx context.Context, drawID primitive.ObjectID) ([]*models.TicketPurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.TicketPurchase
	for _, p := range s.purchases {
		if p.DrawID == drawID {
			out = append(out, clonePurchase(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *TicketStore) CountTicketsByDraw(ctx context.Context, drawID primitive.ObjectID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.purchases {
		if p.DrawID == drawID {
			n += int64(len(p.Tickets))
		}
	}
	return n, nil
}

func (s *TicketStore) UpdateResults(ctx context.Context, id primitive.ObjectID, tickets []models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.purchases[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Tickets = cloneTickets(tickets)
	p.Settled = true
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func clonePurchase(p *models.TicketPurchase) *models.TicketPurchase {
	c := *p
	c.Tickets = cloneTickets(p.Tickets)
	return &c
}

func cloneTickets(in []models.Ticket) []models.Ticket {
	out := make([]models.Ticket, len(in))
	for i, t := range in {
		t.Numbers = append([]int(nil), t.Numbers...)
		out[i] = t
	}
	return out
}

func sortNewestFirst(ps []*models.TicketPurchase) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].CreatedAt.After(ps[j].CreatedAt) })
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
