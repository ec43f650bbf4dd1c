package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ArowuTest/tonlotto-backend/internal/cache"
	"github.com/ArowuTest/tonlotto-backend/internal/finance"
	"github.com/ArowuTest/tonlotto-backend/internal/metrics"
	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/pkg/tonapi"
)

// BalanceSource reads native TON balances.
type BalanceSource interface {
	GetAccountBalance(ctx context.Context, address string) (string, error)
}

// BalanceService defines the interface for wallet balance lookups
type BalanceService interface {
	GetBalances(ctx context.Context, wallet string) (*models.BalanceResponse, error)
}

type balanceService struct {
	source  BalanceSource
	cache   *cache.BalanceCache
	metrics *metrics.Metrics
}

// NewBalanceService creates a new BalanceService implementation. cache may be nil.
func NewBalanceService(source BalanceSource, c *cache.BalanceCache, m *metrics.Metrics) BalanceService {
	return &balanceService{source: source, cache: c, metrics: m}
}

// GetBalances returns the TON balance of wallet. USDT is always 0 until
// jetton balances are read.
func (s *balanceService) GetBalances(ctx context.Context, wallet string) (*models.BalanceResponse, error) {
	raw, err := tonapi.NormalizeAddress(wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWallet, err)
	}

	nano, err := s.tonBalance(ctx, raw)
	if err != nil {
		return nil, err
	}
	ton, err := finance.FromNano(nano)
	if err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}

	return &models.BalanceResponse{
		Success: true,
		Balances: models.Balances{
			TON:  ton.InexactFloat64(),
			USDT: 0,
		},
		Wallet: wallet,
	}, nil
}

func (s *balanceService) tonBalance(ctx context.Context, raw string) (string, error) {
	if s.cache.Enabled() {
		cached, ok, err := s.cache.Get(ctx, raw)
		switch {
		case err != nil:
			s.metrics.BalanceCacheLookup("error")
			slog.Warn("Balance cache read failed", "wallet", raw, "error", err)
		case ok:
			s.metrics.BalanceCacheLookup("hit")
			return cached, nil
		default:
			s.metrics.BalanceCacheLookup("miss")
		}
	}

	nano, err := s.source.GetAccountBalance(ctx, raw)
	if err != nil {
		if !errors.Is(err, tonapi.ErrAccountNotFound) {
			return "", fmt.Errorf("get account balance: %w", err)
		}
		nano = "0"
	}

	if err := s.cache.Set(ctx, raw, nano); err != nil {
		slog.Warn("Balance cache write failed", "wallet", raw, "error", err)
	}
	return nano, nil
}
