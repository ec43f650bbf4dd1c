package services

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories/memory"
	"github.com/ArowuTest/tonlotto-backend/pkg/tonapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/ton"
)

const validHash = "9f3b2c1d0e4a5b6c7d8e9f0a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c"

func TestVerifyAcceptsMatchingPayment(t *testing.T) {
	chain := newFakeChain()
	chain.pay(validHash, "2500000000")
	v := NewVerificationService(chain, memory.NewTicketStore(), verifierConfig(), testMetrics())

	res, err := v.VerifyTicketPurchaseTransaction(context.Background(), "  "+validHash+"\n", d("2.5"))
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.Empty(t, res.Reason)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, validHash, res.Transaction.Hash)
	assert.Equal(t, "2500000000", res.Transaction.Value)
	assert.Equal(t, buyerWallet, res.Transaction.From)
	assert.Equal(t, int64(1700000000), res.Transaction.Timestamp)
	assert.True(t, res.Transaction.Success)
}

func TestVerifyRejections(t *testing.T) {
	friendlyCollection := ton.MustParseAccountID(collectionWallet).ToHuman(true, false)

	tests := []struct {
		name     string
		hash     string
		setup    func(chain *fakeChain)
		expected string
		want     models.RejectionReason
	}{
		{
			name:     "short hash",
			hash:     "abc123",
			expected: "1",
			want:     models.ReasonMalformedHash,
		},
		{
			name:     "long but not a hash",
			hash:     strings.Repeat("z", 64),
			expected: "1",
			want:     models.ReasonMalformedHash,
		},
		{
			name: "chain answers with another transaction",
			hash: validHash,
			setup: func(chain *fakeChain) {
				chain.pay(validHash, "1000000000").Hash = strings.Repeat("0", 64)
			},
			expected: "1",
			want:     models.ReasonChainQueryFailed,
		},
		{
			name:     "blank hash",
			hash:     "     ",
			expected: "1",
			want:     models.ReasonMalformedHash,
		},
		{
			name:     "unknown transaction",
			hash:     validHash,
			expected: "1",
			want:     models.ReasonNotFound,
		},
		{
			name: "chain error",
			hash: validHash,
			setup: func(chain *fakeChain) {
				chain.err = errors.New("502 bad gateway")
			},
			expected: "1",
			want:     models.ReasonChainQueryFailed,
		},
		{
			name: "aborted on chain",
			hash: validHash,
			setup: func(chain *fakeChain) {
				chain.pay(validHash, "1000000000").Success = false
			},
			expected: "1",
			want:     models.ReasonTransactionFailed,
		},
		{
			name: "paid elsewhere",
			hash: validHash,
			setup: func(chain *fakeChain) {
				chain.pay(validHash, "1000000000").Destination = otherWallet
			},
			expected: "1",
			want:     models.ReasonWrongDestination,
		},
		{
			name: "underpaid beyond tolerance",
			hash: validHash,
			setup: func(chain *fakeChain) {
				chain.pay(validHash, "2480000000")
			},
			expected: "2.5",
			want:     models.ReasonAmountMismatch,
		},
		{
			name: "unreadable amount",
			hash: validHash,
			setup: func(chain *fakeChain) {
				chain.pay(validHash, "lots")
			},
			expected: "1",
			want:     models.ReasonChainQueryFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := newFakeChain()
			if tt.setup != nil {
				tt.setup(chain)
			}
			v := NewVerificationService(chain, memory.NewTicketStore(), verifierConfig(), testMetrics())

			res, err := v.VerifyTicketPurchaseTransaction(context.Background(), tt.hash, d(tt.expected))
			require.NoError(t, err)
			assert.False(t, res.Valid)
			assert.Equal(t, tt.want, res.Reason)
			assert.NotEmpty(t, res.Error)
		})
	}

	t.Run("friendly destination matches raw wallet", func(t *testing.T) {
		chain := newFakeChain()
		chain.pay(validHash, "1000000000").Destination = friendlyCollection
		v := NewVerificationService(chain, memory.NewTicketStore(), verifierConfig(), testMetrics())

		res, err := v.VerifyTicketPurchaseTransaction(context.Background(), validHash, d("1"))
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})
}

func TestVerifyMalformedHashSkipsLookups(t *testing.T) {
	chain := newFakeChain()
	v := NewVerificationService(chain, brokenLookups{memory.NewTicketStore()}, verifierConfig(), testMetrics())

	res, err := v.VerifyTicketPurchaseTransaction(context.Background(), "0x12", d("1"))
	require.NoError(t, err)
	assert.Equal(t, models.ReasonMalformedHash, res.Reason)
	assert.Zero(t, chain.callCount())
}

func TestVerifyCanonicalisesHashSpellings(t *testing.T) {
	raw, err := hex.DecodeString(validHash)
	require.NoError(t, err)
	store := memory.NewTicketStore()
	chain := newFakeChain()
	chain.pay(validHash, "1000000000")
	v := NewVerificationService(chain, store, verifierConfig(), testMetrics())

	res, err := v.VerifyTicketPurchaseTransaction(context.Background(), strings.ToUpper(validHash), d("1"))
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.Equal(t, validHash, res.Transaction.Hash)

	require.NoError(t, store.CreatePurchase(context.Background(), &models.TicketPurchase{TransactionHash: res.Transaction.Hash}))

	for _, spelling := range []string{
		validHash,
		strings.ToUpper(validHash),
		base64.StdEncoding.EncodeToString(raw),
		base64.RawURLEncoding.EncodeToString(raw),
	} {
		res, err := v.VerifyTicketPurchaseTransaction(context.Background(), spelling, d("1"))
		require.NoError(t, err)
		assert.Equal(t, models.ReasonAlreadyUsed, res.Reason, spelling)
	}
}

func TestVerifyAmountTolerance(t *testing.T) {
	chain := newFakeChain()
	chain.pay(validHash, "2490000000")
	v := NewVerificationService(chain, memory.NewTicketStore(), verifierConfig(), testMetrics())

	res, err := v.VerifyTicketPurchaseTransaction(context.Background(), validHash, d("2.5"))
	require.NoError(t, err)
	assert.True(t, res.Valid, "a 0.01 TON shortfall is within tolerance")

	res, err = v.VerifyTicketPurchaseTransaction(context.Background(), validHash, d("1"))
	require.NoError(t, err)
	assert.True(t, res.Valid, "overpayment is accepted")
}

func TestVerifyAlreadyUsed(t *testing.T) {
	store := memory.NewTicketStore()
	require.NoError(t, store.CreatePurchase(context.Background(), &models.TicketPurchase{TransactionHash: validHash}))
	chain := newFakeChain()
	chain.pay(validHash, "1000000000")
	v := NewVerificationService(chain, store, verifierConfig(), testMetrics())

	res, err := v.VerifyTicketPurchaseTransaction(context.Background(), validHash, d("1"))
	require.NoError(t, err)
	assert.Equal(t, models.ReasonAlreadyUsed, res.Reason)
	assert.Zero(t, chain.callCount(), "a used hash never reaches the chain")
}

func TestVerifyIsRepeatable(t *testing.T) {
	chain := newFakeChain()
	chain.pay(validHash, "1000000000")
	v := NewVerificationService(chain, memory.NewTicketStore(), verifierConfig(), testMetrics())

	for i := 0; i < 3; i++ {
		res, err := v.VerifyTicketPurchaseTransaction(context.Background(), validHash, d("1"))
		require.NoError(t, err)
		assert.True(t, res.Valid)
	}
}

func TestVerifyDedupLookupFailure(t *testing.T) {
	chain := newFakeChain()
	chain.pay(validHash, "1000000000")
	repo := brokenLookups{memory.NewTicketStore()}

	t.Run("fail open", func(t *testing.T) {
		v := NewVerificationService(chain, repo, verifierConfig(), testMetrics())
		res, err := v.VerifyTicketPurchaseTransaction(context.Background(), validHash, d("1"))
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})

	t.Run("fail closed", func(t *testing.T) {
		cfg := verifierConfig()
		cfg.DedupFailOpen = false
		v := NewVerificationService(chain, repo, cfg, testMetrics())
		res, err := v.VerifyTicketPurchaseTransaction(context.Background(), validHash, d("1"))
		assert.Error(t, err)
		assert.Nil(t, res)
	})
}

func TestVerifyChainTimeout(t *testing.T) {
	chain := newFakeChain()
	chain.pay(validHash, "1000000000")
	chain.delay = time.Second
	cfg := verifierConfig()
	cfg.ChainTimeout = 20 * time.Millisecond
	v := NewVerificationService(chain, memory.NewTicketStore(), cfg, testMetrics())

	start := time.Now()
	res, err := v.VerifyTicketPurchaseTransaction(context.Background(), validHash, d("1"))
	require.NoError(t, err)
	assert.Equal(t, models.ReasonChainQueryFailed, res.Reason)
	assert.True(t, res.Reason.Retryable())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestVerifyRejectsNegativeExpectedAmount(t *testing.T) {
	v := NewVerificationService(newFakeChain(), memory.NewTicketStore(), verifierConfig(), testMetrics())
	_, err := v.VerifyTicketPurchaseTransaction(context.Background(), validHash, d("-1"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestIsTransactionUsed(t *testing.T) {
	store := memory.NewTicketStore()
	require.NoError(t, store.CreatePurchase(context.Background(), &models.TicketPurchase{TransactionHash: validHash}))
	v := NewVerificationService(newFakeChain(), store, verifierConfig(), testMetrics())

	used, err := v.IsTransactionUsed(context.Background(), validHash)
	require.NoError(t, err)
	assert.True(t, used)

	used, err = v.IsTransactionUsed(context.Background(), strings.ToUpper(validHash))
	require.NoError(t, err)
	assert.True(t, used, "hex case does not matter")

	used, err = v.IsTransactionUsed(context.Background(), strings.Repeat("f", 64))
	require.NoError(t, err)
	assert.False(t, used)

	_, err = v.IsTransactionUsed(context.Background(), "ffffffffffffffffffffffffffffffff")
	assert.ErrorIs(t, err, ErrInvalidTxHash)

	broken := NewVerificationService(newFakeChain(), brokenLookups{store}, verifierConfig(), testMetrics())
	_, err = broken.IsTransactionUsed(context.Background(), validHash)
	assert.Error(t, err)
}

var _ ChainClient = (*tonapi.Client)(nil)
