package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/finance"
	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.DrawRepository = (*DrawStore)(nil)

// DrawStore is an in-memory DrawRepository.
type DrawStore struct {
	mu    sync.RWMutex
	draws map[primitive.ObjectID]models.Draw
}

// NewDrawStore creates an empty DrawStore.
func NewDrawStore() *DrawStore {
	return &DrawStore{draws: make(map[primitive.ObjectID]models.Draw)}
}

// Create inserts a draw, refusing a second OPEN draw.
func (s *DrawStore) Create(ctx context.Context, draw *models.Draw) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if draw.Status == models.DrawStatusOpen {
		for _, d := range s.draws {
			if d.Status == models.DrawStatusOpen {
				return repositories.ErrOpenDrawExists
			}
		}
	}
	if draw.ID.IsZero() {
		draw.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	draw.CreatedAt = now
	draw.UpdatedAt = now
	s.draws[draw.ID] = cloneDraw(draw)
	return nil
}

func (s *DrawStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Draw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.draws[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := cloneDraw(&d)
	return &c, nil
}

func (s *DrawStore) FindOpen(ctx context.Context) (*models.Draw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.draws {
		if d.Status == models.DrawStatusOpen {
			c := cloneDraw(&d)
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *DrawStore) FindLatest(ctx context.Context) (*models.Draw, error) {
	all := s.sorted()
	if len(all) == 0 {
		return nil, repositories.ErrNotFound
	}
	return all[0], nil
}

func (s *DrawStore) FindAll(ctx context.Context, page, limit int) ([]*models.Draw, error) {
	return paginate(s.sorted(), page, limit), nil
}

func (s *DrawStore) ReserveTickets(ctx context.Context, id primitive.ObjectID, n int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.draws[id]
	if !ok || d.Status != models.DrawStatusOpen || !at.Before(d.ClosesAt) {
		return repositories.ErrDrawStateChanged
	}
	d.TicketsSold += n
	d.UpdatedAt = time.Now().UTC()
	s.draws[id] = d
	return nil
}

func (s *DrawStore) ReleaseTickets(ctx context.Context, id primitive.ObjectID, n int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.draws[id]
	if !ok || d.Status == models.DrawStatusSettled {
		return repositories.ErrDrawStateChanged
	}
	d.TicketsSold -= n
	d.UpdatedAt = time.Now().UTC()
	s.draws[id] = d
	return nil
}

func (s *DrawStore) Close(ctx context.Context, id primitive.ObjectID, closedAt time.Time, note string) (*models.Draw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.draws[id]
	if !ok || d.Status != models.DrawStatusOpen {
		return nil, repositories.ErrDrawStateChanged
	}
	d = cloneDraw(&d)
	d.Status = models.DrawStatusClosed
	d.ClosedAt = closedAt.UTC()
	d.ExecutionLog = append(d.ExecutionLog, note)
	d.UpdatedAt = time.Now().UTC()
	s.draws[id] = d

	c := cloneDraw(&d)
	return &c, nil
}

func (s *DrawStore) Update(ctx context.Context, draw *models.Draw, from models.DrawStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.draws[draw.ID]
	if !ok || cur.Status != from {
		return repositories.ErrDrawStateChanged
	}
	if draw.Status == models.DrawStatusOpen && from != models.DrawStatusOpen {
		for id, d := range s.draws {
			if id != draw.ID && d.Status == models.DrawStatusOpen {
				return repositories.ErrOpenDrawExists
			}
		}
	}
	draw.UpdatedAt = time.Now().UTC()
	s.draws[draw.ID] = cloneDraw(draw)
	return nil
}

// sorted returns all draws, highest number first.
func (s *DrawStore) sorted() []*models.Draw {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Draw, 0, len(s.draws))
	for _, d := range s.draws {
		c := cloneDraw(&d)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out
}

// cloneDraw copies d so that no map or slice is shared with the caller.
func cloneDraw(d *models.Draw) models.Draw {
	c := *d
	if d.CarriedTierPools != nil {
		c.CarriedTierPools = make(map[string]decimal.Decimal, len(d.CarriedTierPools))
		for k, v := range d.CarriedTierPools {
			c.CarriedTierPools[k] = v
		}
	}
	c.WinningNumbers = append([]int(nil), d.WinningNumbers...)
	c.Allocations = append([]finance.PrizeAllocation(nil), d.Allocations...)
	c.ExecutionLog = append([]string(nil), d.ExecutionLog...)
	if d.Distribution != nil {
		dist := *d.Distribution
		c.Distribution = &dist
	}
	return c
}
