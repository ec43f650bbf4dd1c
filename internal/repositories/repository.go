package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("record not found")
	// ErrTransactionAlreadyUsed is returned when a purchase reuses a transaction
	// hash. Implementations must derive it from a storage-level uniqueness
	// constraint, never from a prior existence check.
	ErrTransactionAlreadyUsed = errors.New("transaction hash already used")
	// ErrOpenDrawExists is returned when a second draw is opened while one is still open.
	ErrOpenDrawExists = errors.New("an open draw already exists")
	// ErrDrawStateChanged is returned by conditional draw writes when the draw
	// no longer has the status (or sales window) the write was made against.
	ErrDrawStateChanged = errors.New("draw status changed")
	// ErrDuplicateEmail is returned when an admin email is registered twice.
	ErrDuplicateEmail = errors.New("email already registered")
)

// TicketRepository defines the interface for ticket purchase data operations
type TicketRepository interface {
	// CreatePurchase inserts the purchase and its tickets in one atomic write.
	CreatePurchase(ctx context.Context, purchase *models.TicketPurchase) error
	ExistsByTransactionHash(ctx context.Context, hash string) (bool, error)
	FindByTransactionHash(ctx context.Context, hash string) (*models.TicketPurchase, error)
	FindByWallet(ctx context.Context, wallet string, page, limit int) ([]*models.TicketPurchase, error)
	FindByDrawID(ctx context.Context, drawID primitive.ObjectID) ([]*models.TicketPurchase, error)
	CountTicketsByDraw(ctx context.Context, drawID primitive.ObjectID) (int64, error)
	UpdateResults(ctx context.Context, id primitive.ObjectID, tickets []models.Ticket) error
}

// DrawRepository defines the interface for draw data operations
type DrawRepository interface {
	Create(ctx context.Context, draw *models.Draw) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Draw, error)
	FindOpen(ctx context.Context) (*models.Draw, error)
	FindLatest(ctx context.Context) (*models.Draw, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.Draw, error)

	// ReserveTickets adds n to the draw's sold count while it is OPEN and at
	// is before ClosesAt. Otherwise it returns ErrDrawStateChanged and
	// reserves nothing.
	ReserveTickets(ctx context.Context, id primitive.ObjectID, n int64, at time.Time) error
	// ReleaseTickets returns a reservation whose purchase was not stored. A
	// settled draw is left untouched.
	ReleaseTickets(ctx context.Context, id primitive.ObjectID, n int64) error
	// Close moves an OPEN draw to CLOSED, stamps ClosedAt and appends note to
	// its execution log. No reservation succeeds afterwards.
	Close(ctx context.Context, id primitive.ObjectID, closedAt time.Time, note string) (*models.Draw, error)
	// Update replaces the draw if its stored status is still from.
	Update(ctx context.Context, draw *models.Draw, from models.DrawStatus) error
}

// RolloverRepository defines the interface for unclaimed pool rollovers
type RolloverRepository interface {
	CreateMany(ctx context.Context, rollovers []*models.Rollover) error
	FindPending(ctx context.Context) ([]*models.Rollover, error)
	MarkApplied(ctx context.Context, ids []primitive.ObjectID, destinationDrawID primitive.ObjectID) error
}

// AdminUserRepository defines the interface for admin user data operations
type AdminUserRepository interface {
	Create(ctx context.Context, adminUser *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error
}
