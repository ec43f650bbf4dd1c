package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/finance"
	"github.com/ArowuTest/tonlotto-backend/internal/metrics"
	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories"
	"github.com/ArowuTest/tonlotto-backend/pkg/tonapi"
	"github.com/shopspring/decimal"
)

// ChainClient looks up transactions on the TON blockchain.
type ChainClient interface {
	GetTransaction(ctx context.Context, hash string) (*tonapi.Transaction, error)
}

// VerifierConfig holds the verifier policy.
type VerifierConfig struct {
	CollectionWallet string
	MinHashLength    int
	AmountTolerance  decimal.Decimal // TON
	ChainTimeout     time.Duration
	// DedupFailOpen lets a purchase through when the used-hash lookup itself
	// fails. The storage unique index still rejects a reused hash at insert.
	DedupFailOpen bool
}

// VerificationService defines the interface for purchase transaction checks
type VerificationService interface {
	// VerifyTicketPurchaseTransaction checks that txHash is a successful,
	// unused payment of at least expectedAmount TON into the collection
	// wallet. Rejections are reported in the result; the error is reserved
	// for infrastructure failures.
	VerifyTicketPurchaseTransaction(ctx context.Context, txHash string, expectedAmount decimal.Decimal) (*models.VerificationResult, error)

	// IsTransactionUsed reports whether a purchase already consumed txHash.
	IsTransactionUsed(ctx context.Context, txHash string) (bool, error)
}

type verificationService struct {
	chain   ChainClient
	tickets repositories.TicketRepository
	cfg     VerifierConfig
	metrics *metrics.Metrics
}

// NewVerificationService creates a new VerificationService implementation
func NewVerificationService(chain ChainClient, tickets repositories.TicketRepository, cfg VerifierConfig, m *metrics.Metrics) VerificationService {
	return &verificationService{
		chain:   chain,
		tickets: tickets,
		cfg:     cfg,
		metrics: m,
	}
}

func (s *verificationService) VerifyTicketPurchaseTransaction(ctx context.Context, txHash string, expectedAmount decimal.Decimal) (*models.VerificationResult, error) {
	if expectedAmount.IsNegative() {
		return nil, fmt.Errorf("%w: expected amount %s", ErrInvalidAmount, expectedAmount)
	}

	trimmed := strings.TrimSpace(txHash)
	if len(trimmed) < s.cfg.MinHashLength {
		return s.reject(models.ReasonMalformedHash, "Invalid transaction hash format", nil), nil
	}
	// Dedup and persistence are keyed on the canonical hash so that every
	// spelling of one transaction maps to a single key.
	hash, err := tonapi.NormalizeTxHash(trimmed)
	if err != nil {
		return s.reject(models.ReasonMalformedHash, "Invalid transaction hash format", nil), nil
	}

	used, err := s.tickets.ExistsByTransactionHash(ctx, hash)
	switch {
	case err != nil && s.cfg.DedupFailOpen:
		s.metrics.DedupCheckError()
		slog.Warn("Transaction-used check failed, continuing without it",
			"txHash", hash, "error", err, "reconcile", true)
	case err != nil:
		return nil, fmt.Errorf("check transaction hash: %w", err)
	case used:
		return s.reject(models.ReasonAlreadyUsed, "Transaction has already been used for a purchase", nil), nil
	}

	chainCtx := ctx
	if s.cfg.ChainTimeout > 0 {
		var cancel context.CancelFunc
		chainCtx, cancel = context.WithTimeout(ctx, s.cfg.ChainTimeout)
		defer cancel()
	}

	tx, err := s.chain.GetTransaction(chainCtx, hash)
	if err != nil {
		if errors.Is(err, tonapi.ErrTransactionNotFound) {
			return s.reject(models.ReasonNotFound, "Transaction not found on the blockchain", nil), nil
		}
		slog.Error("Blockchain transaction lookup failed", "txHash", hash, "error", err)
		return s.reject(models.ReasonChainQueryFailed, "Could not query the blockchain, please try again", nil), nil
	}

	chainHash, err := tonapi.NormalizeTxHash(tx.Hash)
	if err != nil || chainHash != hash {
		slog.Error("Blockchain returned a different transaction", "txHash", hash, "chainHash", tx.Hash)
		return s.reject(models.ReasonChainQueryFailed, "Blockchain returned a different transaction", nil), nil
	}

	info := &models.TransactionInfo{
		Hash:      chainHash,
		From:      tx.Source,
		To:        tx.Destination,
		Value:     tx.Value,
		Timestamp: tx.Utime,
		Success:   tx.Success,
	}

	if !tx.Success {
		return s.reject(models.ReasonTransactionFailed, "Transaction did not succeed on chain", info), nil
	}
	if !tonapi.SameAddress(tx.Destination, s.cfg.CollectionWallet) {
		return s.reject(models.ReasonWrongDestination, "Transaction was not sent to the lottery wallet", info), nil
	}

	paid, err := finance.FromNano(tx.Value)
	if err != nil {
		slog.Error("Blockchain returned an unreadable amount", "txHash", hash, "value", tx.Value, "error", err)
		return s.reject(models.ReasonChainQueryFailed, "Could not read the transaction amount", info), nil
	}
	if paid.LessThan(expectedAmount.Sub(s.cfg.AmountTolerance)) {
		return s.reject(models.ReasonAmountMismatch,
			fmt.Sprintf("Transaction amount %s TON is below the expected %s TON", paid, expectedAmount), info), nil
	}

	s.metrics.VerificationOutcome("VALID")
	return &models.VerificationResult{Valid: true, Transaction: info}, nil
}

func (s *verificationService) IsTransactionUsed(ctx context.Context, txHash string) (bool, error) {
	hash, err := tonapi.NormalizeTxHash(txHash)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidTxHash, strings.TrimSpace(txHash))
	}
	used, err := s.tickets.ExistsByTransactionHash(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("check transaction hash: %w", err)
	}
	return used, nil
}

func (s *verificationService) reject(reason models.RejectionReason, msg string, info *models.TransactionInfo) *models.VerificationResult {
	s.metrics.VerificationOutcome(string(reason))
	return &models.VerificationResult{
		Valid:       false,
		Reason:      reason,
		Error:       msg,
		Transaction: info,
	}
}
