package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/finance"
	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawConfig holds the draw rules. SettleGrace is how long settlement waits
// after close for reserved purchases that have not been stored yet.
type DrawConfig struct {
	TicketPrice decimal.Decimal
	Rules       GameRules
	SettleGrace time.Duration
}

// DrawService defines the interface for the draw lifecycle
type DrawService interface {
	// CreateDraw opens the next draw and carries pending rollovers into it.
	CreateDraw(ctx context.Context, closesAt time.Time) (*models.Draw, error)

	// CloseDraw stops ticket sales for an open draw.
	CloseDraw(ctx context.Context, drawID primitive.ObjectID) (*models.Draw, error)

	// SettleDraw scores every ticket of a closed draw against winningNumbers,
	// fixes the distribution and prizes, and records rollovers for pools
	// nobody won.
	SettleDraw(ctx context.Context, drawID primitive.ObjectID, winningNumbers []int) (*models.Draw, error)

	GetDraw(ctx context.Context, drawID primitive.ObjectID) (*models.Draw, error)
	ListDraws(ctx context.Context, page, limit int) ([]*models.Draw, error)
	CurrentDraw(ctx context.Context) (*models.Draw, error)

	// PreviewDistribution runs the revenue split for a hypothetical sale.
	PreviewDistribution(ticketsSold int64, ticketPrice decimal.Decimal) (finance.Distribution, error)
}

type drawService struct {
	draws     repositories.DrawRepository
	tickets   repositories.TicketRepository
	rollovers repositories.RolloverRepository
	calc      *finance.Calculator
	cfg       DrawConfig
}

// NewDrawService creates a new DrawService implementation
func NewDrawService(
	draws repositories.DrawRepository,
	tickets repositories.TicketRepository,
	rollovers repositories.RolloverRepository,
	calc *finance.Calculator,
	cfg DrawConfig,
) DrawService {
	return &drawService{
		draws:     draws,
		tickets:   tickets,
		rollovers: rollovers,
		calc:      calc,
		cfg:       cfg,
	}
}

func (s *drawService) CreateDraw(ctx context.Context, closesAt time.Time) (*models.Draw, error) {
	now := time.Now().UTC()
	if !closesAt.After(now) {
		return nil, ErrInvalidDrawSchedule
	}

	if _, err := s.draws.FindOpen(ctx); err == nil {
		return nil, repositories.ErrOpenDrawExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("find open draw: %w", err)
	}

	number := int64(1)
	latest, err := s.draws.FindLatest(ctx)
	switch {
	case err == nil:
		number = latest.Number + 1
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("find latest draw: %w", err)
	}

	pending, err := s.rollovers.FindPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("find pending rollovers: %w", err)
	}

	draw := &models.Draw{
		Number:           number,
		Status:           models.DrawStatusOpen,
		TicketPrice:      s.cfg.TicketPrice,
		OpensAt:          now,
		ClosesAt:         closesAt.UTC(),
		CarriedJackpot:   decimal.Zero,
		CarriedTierPools: map[string]decimal.Decimal{},
		JackpotAmount:    decimal.Zero,
		JackpotPerWinner: decimal.Zero,
	}
	ids := make([]primitive.ObjectID, 0, len(pending))
	for _, ro := range pending {
		switch ro.Kind {
		case models.RolloverKindJackpot:
			draw.CarriedJackpot = draw.CarriedJackpot.Add(ro.Amount)
		case models.RolloverKindTier:
			draw.CarriedTierPools[ro.Tier] = draw.CarriedTierPools[ro.Tier].Add(ro.Amount)
		default:
			slog.Warn("Skipping rollover of unknown kind", "rollover", ro.ID.Hex(), "kind", ro.Kind)
			continue
		}
		ids = append(ids, ro.ID)
	}
	draw.ExecutionLog = append(draw.ExecutionLog, logLine(now,
		fmt.Sprintf("opened; carried jackpot %s from %d rollovers", draw.CarriedJackpot, len(ids))))

	if err := s.draws.Create(ctx, draw); err != nil {
		return nil, err
	}
	if err := s.rollovers.MarkApplied(ctx, ids, draw.ID); err != nil {
		// The draw already holds the amounts; leaving them pending would apply them twice.
		slog.Error("Failed to mark rollovers applied", "draw", draw.ID.Hex(), "error", err)
		return nil, fmt.Errorf("mark rollovers applied: %w", err)
	}

	slog.Info("Draw opened", "draw", draw.Number, "closesAt", draw.ClosesAt, "carriedJackpot", draw.CarriedJackpot.String())
	return draw, nil
}

func (s *drawService) CloseDraw(ctx context.Context, drawID primitive.ObjectID) (*models.Draw, error) {
	draw, err := s.draws.FindByID(ctx, drawID)
	if err != nil {
		return nil, err
	}
	if draw.Status != models.DrawStatusOpen {
		return nil, fmt.Errorf("%w: draw %d is %s", ErrInvalidDrawState, draw.Number, draw.Status)
	}

	now := time.Now().UTC()
	closed, err := s.draws.Close(ctx, draw.ID, now, logLine(now, fmt.Sprintf("closed with %d tickets reserved", draw.TicketsSold)))
	if err != nil {
		if errors.Is(err, repositories.ErrDrawStateChanged) {
			return nil, fmt.Errorf("%w: draw %d is no longer open", ErrInvalidDrawState, draw.Number)
		}
		return nil, err
	}

	slog.Info("Draw closed", "draw", closed.Number, "ticketsReserved", closed.TicketsSold)
	return closed, nil
}

func (s *drawService) SettleDraw(ctx context.Context, drawID primitive.ObjectID, winningNumbers []int) (*models.Draw, error) {
	winning, err := s.cfg.Rules.Validate(winningNumbers)
	if err != nil {
		return nil, err
	}

	draw, err := s.draws.FindByID(ctx, drawID)
	if err != nil {
		return nil, err
	}
	if draw.Status != models.DrawStatusClosed {
		return nil, fmt.Errorf("%w: draw %d is %s, close it first", ErrInvalidDrawState, draw.Number, draw.Status)
	}

	purchases, err := s.tickets.FindByDrawID(ctx, draw.ID)
	if err != nil {
		return nil, fmt.Errorf("load draw tickets: %w", err)
	}

	var stored int64
	revenue := decimal.Zero
	for _, p := range purchases {
		stored += int64(len(p.Tickets))
		revenue = revenue.Add(p.AmountDue)
	}
	if stored < draw.TicketsSold {
		// Purchases reserved before the close are still being written.
		if time.Since(draw.ClosedAt) < s.cfg.SettleGrace {
			return nil, fmt.Errorf("%w: %d of %d tickets stored for draw %d",
				ErrSettlementPending, stored, draw.TicketsSold, draw.Number)
		}
		slog.Warn("Settling with abandoned ticket reservations",
			"draw", draw.Number, "reserved", draw.TicketsSold, "stored", stored, "reconcile", true)
	} else if stored > draw.TicketsSold {
		slog.Warn("Draw has more stored tickets than reservations",
			"draw", draw.Number, "reserved", draw.TicketsSold, "stored", stored, "reconcile", true)
	}

	shares := s.calc.Shares()
	var (
		sold           int64
		jackpotWinners int64
		winners        = make(map[string]int64, len(shares.Tiers))
	)
	for _, p := range purchases {
		for i := range p.Tickets {
			t := &p.Tickets[i]
			sold++
			t.Matches = countMatches(t.Numbers, winning)
			t.Tier = ""
			t.Jackpot = t.Matches == s.cfg.Rules.NumbersPerTicket
			if t.Jackpot {
				jackpotWinners++
				continue
			}
			if tier, ok := shares.TierByMatches(t.Matches); ok {
				t.Tier = tier.Tier
				winners[tier.Tier]++
			}
		}
	}

	dist, err := s.calc.ComputeDistributionForRevenue(sold, draw.TicketPrice, revenue)
	if err != nil {
		return nil, fmt.Errorf("compute distribution: %w", err)
	}
	allocs, err := s.calc.ComputePrizeAllocation(dist.PayoutPool, winners)
	if err != nil {
		return nil, fmt.Errorf("compute prize allocation: %w", err)
	}
	allocs = allocs.WithCarryOver(draw.CarriedTierPools)

	jackpot := draw.CarriedJackpot.Add(dist.JackpotGrowth)
	perJackpotWinner := decimal.Zero
	if jackpotWinners > 0 {
		perJackpotWinner = jackpot.Div(decimal.NewFromInt(jackpotWinners))
	}

	for _, p := range purchases {
		for i := range p.Tickets {
			t := &p.Tickets[i]
			switch {
			case t.Jackpot:
				t.Prize = perJackpotWinner
			case t.Tier != "":
				t.Prize = allocs[t.Tier].PrizePerWinner
			default:
				t.Prize = decimal.Zero
			}
		}
		if err := s.tickets.UpdateResults(ctx, p.ID, p.Tickets); err != nil {
			return nil, fmt.Errorf("store ticket results: %w", err)
		}
	}

	now := time.Now().UTC()
	rollovers := make([]*models.Rollover, 0, len(allocs)+1)
	for _, a := range allocs.Sorted() {
		if a.Unclaimed.IsPositive() {
			rollovers = append(rollovers, &models.Rollover{
				SourceDrawID:     draw.ID,
				SourceDrawNumber: draw.Number,
				Kind:             models.RolloverKindTier,
				Tier:             a.Tier,
				Amount:           a.Unclaimed,
			})
		}
	}
	if jackpotWinners == 0 && jackpot.IsPositive() {
		rollovers = append(rollovers, &models.Rollover{
			SourceDrawID:     draw.ID,
			SourceDrawNumber: draw.Number,
			Kind:             models.RolloverKindJackpot,
			Amount:           jackpot,
		})
	}

	draw.Status = models.DrawStatusSettled
	draw.TicketsSold = sold
	draw.Revenue = revenue
	draw.WinningNumbers = winning
	draw.Distribution = &dist
	draw.Allocations = allocs.Sorted()
	draw.JackpotAmount = jackpot
	draw.JackpotWinners = jackpotWinners
	draw.JackpotPerWinner = perJackpotWinner
	draw.SettledAt = now
	draw.ExecutionLog = append(draw.ExecutionLog,
		logLine(now, fmt.Sprintf("settled with %v; %d tickets, payout pool %s", winning, sold, dist.PayoutPool)),
		logLine(now, fmt.Sprintf("tier winners %s; jackpot %s to %d winners", formatWinners(winners), jackpot, jackpotWinners)),
	)
	if err := s.draws.Update(ctx, draw, models.DrawStatusClosed); err != nil {
		if errors.Is(err, repositories.ErrDrawStateChanged) {
			return nil, fmt.Errorf("%w: draw %d was settled concurrently", ErrInvalidDrawState, draw.Number)
		}
		return nil, fmt.Errorf("failed to settle draw: %w", err)
	}

	if err := s.rollovers.CreateMany(ctx, rollovers); err != nil {
		slog.Error("Draw settled but rollovers were not recorded",
			"draw", draw.Number, "rollovers", len(rollovers), "error", err, "reconcile", true)
		return nil, fmt.Errorf("record rollovers: %w", err)
	}

	slog.Info("Draw settled",
		"draw", draw.Number, "ticketsSold", sold, "jackpotWinners", jackpotWinners,
		"paid", allocs.TotalPaid().String(), "rolledOver", allocs.TotalUnclaimed().String())
	return draw, nil
}

func (s *drawService) GetDraw(ctx context.Context, drawID primitive.ObjectID) (*models.Draw, error) {
	return s.draws.FindByID(ctx, drawID)
}

func (s *drawService) ListDraws(ctx context.Context, page, limit int) ([]*models.Draw, error) {
	return s.draws.FindAll(ctx, page, limit)
}

// CurrentDraw returns the open draw, or the latest one when none is open.
func (s *drawService) CurrentDraw(ctx context.Context) (*models.Draw, error) {
	draw, err := s.draws.FindOpen(ctx)
	if err == nil {
		return draw, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	return s.draws.FindLatest(ctx)
}

func (s *drawService) PreviewDistribution(ticketsSold int64, ticketPrice decimal.Decimal) (finance.Distribution, error) {
	return s.calc.ComputeDistribution(ticketsSold, ticketPrice)
}

func logLine(at time.Time, msg string) string {
	return at.Format(time.RFC3339) + " " + msg
}

func formatWinners(winners map[string]int64) string {
	tiers := make([]string, 0, len(winners))
	for tier := range winners {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	out := "{"
	for i, tier := range tiers {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s:%d", tier, winners[tier])
	}
	return out + "}"
}
