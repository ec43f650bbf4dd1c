package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/finance"
	"github.com/ArowuTest/tonlotto-backend/internal/metrics"
	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories"
	"github.com/ArowuTest/tonlotto-backend/pkg/tonapi"
	"github.com/shopspring/decimal"
)

// TicketConfig holds purchase limits and pricing.
type TicketConfig struct {
	TicketPrice           decimal.Decimal
	Discounts             []finance.BulkDiscount
	MaxTicketsPerPurchase int64
	Rules                 GameRules
}

// TicketService defines the interface for ticket purchases
type TicketService interface {
	// PurchaseTickets verifies the payment and records the tickets for the
	// open draw. A payment that fails verification, or that another request
	// already consumed, comes back as an unsuccessful result.
	PurchaseTickets(ctx context.Context, req *models.PurchaseRequest) (*models.PurchaseResult, error)

	// Quote prices count tickets in the open draw, or at the configured price
	// when no draw is open.
	Quote(ctx context.Context, count int64) (finance.Quote, error)

	ListTicketsByWallet(ctx context.Context, wallet string, page, limit int) ([]*models.TicketPurchase, error)
}

type ticketService struct {
	tickets  repositories.TicketRepository
	draws    repositories.DrawRepository
	verifier VerificationService
	cfg      TicketConfig
	metrics  *metrics.Metrics
}

// NewTicketService creates a new TicketService implementation
func NewTicketService(tickets repositories.TicketRepository, draws repositories.DrawRepository, verifier VerificationService, cfg TicketConfig, m *metrics.Metrics) TicketService {
	return &ticketService{
		tickets:  tickets,
		draws:    draws,
		verifier: verifier,
		cfg:      cfg,
		metrics:  m,
	}
}

func (s *ticketService) PurchaseTickets(ctx context.Context, req *models.PurchaseRequest) (*models.PurchaseResult, error) {
	wallet, err := tonapi.NormalizeAddress(req.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWallet, err)
	}
	if req.Count < 1 || req.Count > s.cfg.MaxTicketsPerPurchase {
		return nil, fmt.Errorf("%w: %d not in 1..%d", ErrInvalidTicketCount, req.Count, s.cfg.MaxTicketsPerPurchase)
	}
	if int64(len(req.Numbers)) > req.Count {
		return nil, fmt.Errorf("%w: %d number sets for %d tickets", ErrInvalidNumbers, len(req.Numbers), req.Count)
	}
	tickets, err := s.buildTickets(req.Count, req.Numbers)
	if err != nil {
		return nil, err
	}

	draw, err := s.openDraw(ctx)
	if err != nil {
		return nil, err
	}

	quote, err := finance.PurchaseQuote(req.Count, draw.TicketPrice, s.cfg.Discounts)
	if err != nil {
		return nil, err
	}

	verification, err := s.verifier.VerifyTicketPurchaseTransaction(ctx, req.TransactionHash, quote.Total)
	if err != nil {
		return nil, err
	}
	if !verification.Valid {
		s.metrics.Purchase("rejected", 0)
		slog.Info("Ticket purchase rejected",
			"wallet", wallet, "txHash", req.TransactionHash, "reason", verification.Reason)
		return &models.PurchaseResult{Success: false, Verification: verification}, nil
	}

	// Verification can take seconds; the draw may have closed meanwhile.
	// Reserving is the conditional step, so tickets are only stored against
	// a draw that was still selling and that settlement will wait for.
	if err := s.draws.ReserveTickets(ctx, draw.ID, req.Count, time.Now().UTC()); err != nil {
		if errors.Is(err, repositories.ErrDrawStateChanged) {
			slog.Info("Draw closed while the purchase was verified",
				"wallet", wallet, "txHash", verification.Transaction.Hash, "draw", draw.Number)
			return nil, fmt.Errorf("%w: draw %d closed during verification", ErrNoOpenDraw, draw.Number)
		}
		return nil, fmt.Errorf("reserve tickets: %w", err)
	}

	purchase := &models.TicketPurchase{
		DrawID:          draw.ID,
		WalletAddress:   wallet,
		TransactionHash: verification.Transaction.Hash,
		Transaction:     verification.Transaction.Record(),
		Count:           req.Count,
		UnitPrice:       quote.UnitPrice,
		Discount:        quote.Discount,
		AmountDue:       quote.Total,
		Tickets:         tickets,
	}
	if err := s.tickets.CreatePurchase(ctx, purchase); err != nil {
		s.release(ctx, draw, req.Count)
		if errors.Is(err, repositories.ErrTransactionAlreadyUsed) {
			s.metrics.Purchase("rejected", 0)
			s.metrics.VerificationOutcome(string(models.ReasonAlreadyUsed))
			return &models.PurchaseResult{
				Success: false,
				Verification: &models.VerificationResult{
					Valid:       false,
					Reason:      models.ReasonAlreadyUsed,
					Error:       "Transaction has already been used for a purchase",
					Transaction: verification.Transaction,
				},
			}, nil
		}
		return nil, fmt.Errorf("save ticket purchase: %w", err)
	}

	s.metrics.Purchase("confirmed", req.Count)
	slog.Info("Tickets purchased",
		"wallet", wallet, "txHash", purchase.TransactionHash, "draw", draw.Number,
		"count", req.Count, "amount", quote.Total.String())
	return &models.PurchaseResult{Success: true, Purchase: purchase, Verification: verification}, nil
}

// release returns a reservation after a failed insert. It runs even when the
// request context is done.
func (s *ticketService) release(ctx context.Context, draw *models.Draw, n int64) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.draws.ReleaseTickets(rctx, draw.ID, n); err != nil {
		slog.Error("Ticket reservation was not released",
			"draw", draw.Number, "tickets", n, "error", err, "reconcile", true)
	}
}

func (s *ticketService) Quote(ctx context.Context, count int64) (finance.Quote, error) {
	if count < 1 || count > s.cfg.MaxTicketsPerPurchase {
		return finance.Quote{}, fmt.Errorf("%w: %d not in 1..%d", ErrInvalidTicketCount, count, s.cfg.MaxTicketsPerPurchase)
	}
	price := s.cfg.TicketPrice
	draw, err := s.draws.FindOpen(ctx)
	switch {
	case err == nil:
		price = draw.TicketPrice
	case !errors.Is(err, repositories.ErrNotFound):
		return finance.Quote{}, fmt.Errorf("find open draw: %w", err)
	}
	return finance.PurchaseQuote(count, price, s.cfg.Discounts)
}

func (s *ticketService) ListTicketsByWallet(ctx context.Context, wallet string, page, limit int) ([]*models.TicketPurchase, error) {
	raw, err := tonapi.NormalizeAddress(wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWallet, err)
	}
	return s.tickets.FindByWallet(ctx, raw, page, limit)
}

func (s *ticketService) openDraw(ctx context.Context) (*models.Draw, error) {
	draw, err := s.draws.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoOpenDraw
		}
		return nil, fmt.Errorf("find open draw: %w", err)
	}
	if !draw.ClosesAt.IsZero() && !time.Now().Before(draw.ClosesAt) {
		return nil, ErrNoOpenDraw
	}
	return draw, nil
}

// buildTickets validates the caller's picks and quick-picks the rest.
func (s *ticketService) buildTickets(count int64, picks [][]int) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0, count)
	for i := int64(0); i < count; i++ {
		t := models.Ticket{Seq: int(i) + 1, Prize: decimal.Zero}
		var err error
		if i < int64(len(picks)) {
			t.Numbers, err = s.cfg.Rules.Validate(picks[i])
		} else {
			t.Numbers, err = s.cfg.Rules.QuickPick()
			t.QuickPick = true
		}
		if err != nil {
			return nil, fmt.Errorf("ticket %d: %w", i+1, err)
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}
