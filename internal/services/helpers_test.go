package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/finance"
	"github.com/ArowuTest/tonlotto-backend/internal/metrics"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories"
	"github.com/ArowuTest/tonlotto-backend/pkg/tonapi"
	"github.com/shopspring/decimal"
)

const (
	collectionWallet = "0:1111111111111111111111111111111111111111111111111111111111111111"
	buyerWallet      = "0:2222222222222222222222222222222222222222222222222222222222222222"
	otherWallet      = "0:3333333333333333333333333333333333333333333333333333333333333333"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fakeChain serves transactions from a map. Unknown hashes are not found.
type fakeChain struct {
	mu       sync.Mutex
	txs      map[string]*tonapi.Transaction
	balances map[string]string
	err      error
	delay    time.Duration
	calls    int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		txs:      make(map[string]*tonapi.Transaction),
		balances: make(map[string]string),
	}
}

// pay registers a successful payment of nano nanoton into the collection wallet.
func (f *fakeChain) pay(hash, nano string) *tonapi.Transaction {
	tx := &tonapi.Transaction{
		Hash:        hash,
		Source:      buyerWallet,
		Destination: collectionWallet,
		Value:       nano,
		Utime:       1700000000,
		Success:     true,
	}
	f.mu.Lock()
	f.txs[hash] = tx
	f.mu.Unlock()
	return tx
}

func (f *fakeChain) GetTransaction(ctx context.Context, hash string) (*tonapi.Transaction, error) {
	f.mu.Lock()
	f.calls++
	delay, err := f.delay, f.err
	tx, ok := f.txs[hash]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, tonapi.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeChain) GetAccountBalance(ctx context.Context, address string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	bal, ok := f.balances[address]
	if !ok {
		return "", tonapi.ErrAccountNotFound
	}
	return bal, nil
}

func (f *fakeChain) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// brokenLookups makes the transaction-used lookup fail while inserts still work.
type brokenLookups struct {
	repositories.TicketRepository
}

func (brokenLookups) ExistsByTransactionHash(ctx context.Context, hash string) (bool, error) {
	return false, errors.New("connection reset")
}

func verifierConfig() VerifierConfig {
	return VerifierConfig{
		CollectionWallet: collectionWallet,
		MinHashLength:    20,
		AmountTolerance:  d("0.01"),
		ChainTimeout:     time.Second,
		DedupFailOpen:    true,
	}
}

func newTestCalculator() *finance.Calculator {
	calc, err := finance.NewCalculator(finance.DefaultShares())
	if err != nil {
		panic(err)
	}
	return calc
}

var testRules = GameRules{NumbersPerTicket: 5, NumberRange: 36}

func testMetrics() *metrics.Metrics { return metrics.New() }
