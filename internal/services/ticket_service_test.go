package services

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/finance"
	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/ton"
)

type purchaseFixture struct {
	chain   *fakeChain
	tickets *memory.TicketStore
	draws   *memory.DrawStore
	svc     TicketService
	drawSvc DrawService
	draw    *models.Draw
}

func newPurchaseFixture(t *testing.T, openDraw bool) *purchaseFixture {
	t.Helper()
	f := &purchaseFixture{
		chain:   newFakeChain(),
		tickets: memory.NewTicketStore(),
		draws:   memory.NewDrawStore(),
	}
	m := testMetrics()
	verifier := NewVerificationService(f.chain, f.tickets, verifierConfig(), m)
	f.svc = NewTicketService(f.tickets, f.draws, verifier, TicketConfig{
		TicketPrice:           d("1"),
		Discounts:             []finance.BulkDiscount{{MinTickets: 10, Percent: d("10")}},
		MaxTicketsPerPurchase: 100,
		Rules:                 testRules,
	}, m)

	f.drawSvc = NewDrawService(f.draws, f.tickets, memory.NewRolloverStore(), newTestCalculator(),
		DrawConfig{TicketPrice: d("1"), Rules: testRules})
	if openDraw {
		draw, err := f.drawSvc.CreateDraw(context.Background(), time.Now().Add(time.Hour))
		require.NoError(t, err)
		f.draw = draw
	}
	return f
}

func TestPurchaseTickets(t *testing.T) {
	f := newPurchaseFixture(t, true)
	f.chain.pay(validHash, "2000000000")

	friendly := ton.MustParseAccountID(buyerWallet).ToHuman(true, false)
	res, err := f.svc.PurchaseTickets(context.Background(), &models.PurchaseRequest{
		WalletAddress:   friendly,
		Count:           2,
		TransactionHash: validHash,
		Numbers:         [][]int{{5, 3, 1, 36, 20}},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotNil(t, res.Purchase)

	p := res.Purchase
	assert.Equal(t, f.draw.ID, p.DrawID)
	assert.Equal(t, buyerWallet, p.WalletAddress, "wallets are stored in raw form")
	assert.Equal(t, int64(2), p.Count)
	assert.True(t, p.AmountDue.Equal(d("2")))
	assert.Equal(t, "2000000000", p.Transaction.Amount)
	require.Len(t, p.Tickets, 2)
	assert.Equal(t, []int{1, 3, 5, 20, 36}, p.Tickets[0].Numbers)
	assert.False(t, p.Tickets[0].QuickPick)
	assert.True(t, p.Tickets[1].QuickPick)
	_, err = testRules.Validate(p.Tickets[1].Numbers)
	assert.NoError(t, err)

	stored, err := f.tickets.FindByTransactionHash(context.Background(), validHash)
	require.NoError(t, err)
	assert.Equal(t, p.ID, stored.ID)

	list, err := f.svc.ListTicketsByWallet(context.Background(), friendly, 1, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPurchaseAppliesBulkDiscount(t *testing.T) {
	f := newPurchaseFixture(t, true)
	f.chain.pay(validHash, "9000000000")

	res, err := f.svc.PurchaseTickets(context.Background(), &models.PurchaseRequest{
		WalletAddress: buyerWallet, Count: 10, TransactionHash: validHash,
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.True(t, res.Purchase.AmountDue.Equal(d("9")))
	assert.True(t, res.Purchase.Discount.Equal(d("1")))
	assert.Len(t, res.Purchase.Tickets, 10)
}

func TestPurchaseRejectsUnderpayment(t *testing.T) {
	f := newPurchaseFixture(t, true)
	f.chain.pay(validHash, "1000000000")

	res, err := f.svc.PurchaseTickets(context.Background(), &models.PurchaseRequest{
		WalletAddress: buyerWallet, Count: 3, TransactionHash: validHash,
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Nil(t, res.Purchase)
	assert.Equal(t, models.ReasonAmountMismatch, res.Verification.Reason)

	used, err := f.tickets.ExistsByTransactionHash(context.Background(), validHash)
	require.NoError(t, err)
	assert.False(t, used, "a rejected payment stays unused")
}

func TestPurchaseRejectsReusedHash(t *testing.T) {
	f := newPurchaseFixture(t, true)
	f.chain.pay(validHash, "5000000000")
	req := &models.PurchaseRequest{WalletAddress: buyerWallet, Count: 1, TransactionHash: validHash}

	first, err := f.svc.PurchaseTickets(context.Background(), req)
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := f.svc.PurchaseTickets(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, models.ReasonAlreadyUsed, second.Verification.Reason)
}

func TestConcurrentPurchasesWithOneHash(t *testing.T) {
	f := newPurchaseFixture(t, true)
	f.chain.pay(validHash, "5000000000")

	const n = 25
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		reasons = map[models.RejectionReason]int{}
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := f.svc.PurchaseTickets(context.Background(), &models.PurchaseRequest{
				WalletAddress: buyerWallet, Count: 1, TransactionHash: validHash,
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Success {
				success++
			} else {
				reasons[res.Verification.Reason]++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, map[models.RejectionReason]int{models.ReasonAlreadyUsed: n - 1}, reasons)

	count, err := f.tickets.CountTicketsByDraw(context.Background(), f.draw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	draw, err := f.draws.FindByID(context.Background(), f.draw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), draw.TicketsSold, "losing inserts release their reservation")
}

func TestOneChainTransactionBuysOnceWhateverTheSpelling(t *testing.T) {
	f := newPurchaseFixture(t, true)
	f.chain.pay(validHash, "5000000000")
	raw, err := hex.DecodeString(validHash)
	require.NoError(t, err)

	spellings := []string{
		strings.ToUpper(validHash),
		validHash,
		base64.StdEncoding.EncodeToString(raw),
		base64.RawURLEncoding.EncodeToString(raw),
		"  " + strings.ToUpper(validHash[:32]) + validHash[32:],
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		reasons = map[models.RejectionReason]int{}
	)
	start := make(chan struct{})
	for _, hash := range spellings {
		wg.Add(1)
		go func(hash string) {
			defer wg.Done()
			<-start
			res, err := f.svc.PurchaseTickets(context.Background(), &models.PurchaseRequest{
				WalletAddress: buyerWallet, Count: 1, TransactionHash: hash,
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Success {
				success++
				assert.Equal(t, validHash, res.Purchase.TransactionHash)
			} else {
				reasons[res.Verification.Reason]++
			}
		}(hash)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, map[models.RejectionReason]int{models.ReasonAlreadyUsed: len(spellings) - 1}, reasons)

	count, err := f.tickets.CountTicketsByDraw(context.Background(), f.draw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	for _, hash := range spellings {
		res, err := f.svc.PurchaseTickets(context.Background(), &models.PurchaseRequest{
			WalletAddress: buyerWallet, Count: 1, TransactionHash: hash,
		})
		require.NoError(t, err)
		assert.Equal(t, models.ReasonAlreadyUsed, res.Verification.Reason, hash)
	}
}

func TestPurchaseVerifiedAfterDrawSettled(t *testing.T) {
	f := newPurchaseFixture(t, true)
	f.chain.pay(validHash, "1000000000")
	f.chain.mu.Lock()
	f.chain.delay = 300 * time.Millisecond
	f.chain.mu.Unlock()

	type outcome struct {
		res *models.PurchaseResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := f.svc.PurchaseTickets(context.Background(), &models.PurchaseRequest{
			WalletAddress: buyerWallet, Count: 1, TransactionHash: validHash,
			Numbers: [][]int{{1, 2, 3, 4, 5}},
		})
		done <- outcome{res, err}
	}()
	require.Eventually(t, func() bool { return f.chain.callCount() > 0 }, time.Second, 5*time.Millisecond)

	ctx := context.Background()
	_, err := f.drawSvc.CloseDraw(ctx, f.draw.ID)
	require.NoError(t, err)
	settled, err := f.drawSvc.SettleDraw(ctx, f.draw.ID, []int{1, 2, 3, 4, 5})
	require.NoError(t, err)

	got := <-done
	assert.ErrorIs(t, got.err, ErrNoOpenDraw)
	assert.Nil(t, got.res)

	draw, err := f.draws.FindByID(ctx, f.draw.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusSettled, draw.Status)
	assert.Zero(t, draw.TicketsSold)
	assert.Zero(t, draw.JackpotWinners)
	assert.Equal(t, settled.JackpotAmount.String(), draw.JackpotAmount.String())

	count, err := f.tickets.CountTicketsByDraw(ctx, f.draw.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	used, err := f.tickets.ExistsByTransactionHash(ctx, validHash)
	require.NoError(t, err)
	assert.False(t, used, "the payment can still buy into the next draw")
}

// gatedInserts holds CreatePurchase until release is closed.
type gatedInserts struct {
	*memory.TicketStore
	entered chan struct{}
	release chan struct{}
}

func (g *gatedInserts) CreatePurchase(ctx context.Context, p *models.TicketPurchase) error {
	close(g.entered)
	<-g.release
	return g.TicketStore.CreatePurchase(ctx, p)
}

func TestSettlementWaitsForReservedPurchase(t *testing.T) {
	f := newPurchaseFixture(t, true)
	f.chain.pay(validHash, "1000000000")
	m := testMetrics()
	gate := &gatedInserts{TicketStore: f.tickets, entered: make(chan struct{}), release: make(chan struct{})}
	verifier := NewVerificationService(f.chain, f.tickets, verifierConfig(), m)
	svc := NewTicketService(gate, f.draws, verifier, TicketConfig{
		TicketPrice: d("1"), MaxTicketsPerPurchase: 100, Rules: testRules,
	}, m)
	drawSvc := NewDrawService(f.draws, f.tickets, memory.NewRolloverStore(), newTestCalculator(),
		DrawConfig{TicketPrice: d("1"), Rules: testRules, SettleGrace: time.Hour})

	done := make(chan error, 1)
	go func() {
		res, err := svc.PurchaseTickets(context.Background(), &models.PurchaseRequest{
			WalletAddress: buyerWallet, Count: 1, TransactionHash: validHash,
			Numbers: [][]int{{1, 2, 3, 4, 5}},
		})
		if err == nil && !res.Success {
			err = fmt.Errorf("purchase rejected: %s", res.Verification.Reason)
		}
		done <- err
	}()

	select {
	case <-gate.entered:
	case <-time.After(time.Second):
		t.Fatal("purchase never reached the insert")
	}

	ctx := context.Background()
	closed, err := drawSvc.CloseDraw(ctx, f.draw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), closed.TicketsSold)

	_, err = drawSvc.SettleDraw(ctx, f.draw.ID, []int{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrSettlementPending)

	close(gate.release)
	require.NoError(t, <-done)

	settled, err := drawSvc.SettleDraw(ctx, f.draw.ID, []int{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), settled.TicketsSold)
	assert.Equal(t, int64(1), settled.JackpotWinners)
}

func TestConcurrentPurchasesWithDedupLookupDown(t *testing.T) {
	f := newPurchaseFixture(t, true)
	f.chain.pay(validHash, "5000000000")
	m := testMetrics()
	verifier := NewVerificationService(f.chain, brokenLookups{f.tickets}, verifierConfig(), m)
	svc := NewTicketService(f.tickets, f.draws, verifier, TicketConfig{
		TicketPrice: d("1"), MaxTicketsPerPurchase: 100, Rules: testRules,
	}, m)

	const n = 10
	results := make(chan bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.PurchaseTickets(context.Background(), &models.PurchaseRequest{
				WalletAddress: buyerWallet, Count: 1, TransactionHash: validHash,
			})
			if !assert.NoError(t, err) {
				return
			}
			results <- res.Success
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	for ok := range results {
		if ok {
			success++
		}
	}
	assert.Equal(t, 1, success, "the storage constraint holds even when the pre-check fails open")
}

func TestPurchaseValidation(t *testing.T) {
	f := newPurchaseFixture(t, true)

	tests := []struct {
		name string
		req  models.PurchaseRequest
		want error
	}{
		{"bad wallet", models.PurchaseRequest{WalletAddress: "nope", Count: 1, TransactionHash: validHash}, ErrInvalidWallet},
		{"zero tickets", models.PurchaseRequest{WalletAddress: buyerWallet, Count: 0, TransactionHash: validHash}, ErrInvalidTicketCount},
		{"too many tickets", models.PurchaseRequest{WalletAddress: buyerWallet, Count: 101, TransactionHash: validHash}, ErrInvalidTicketCount},
		{"more picks than tickets", models.PurchaseRequest{WalletAddress: buyerWallet, Count: 1, TransactionHash: validHash,
			Numbers: [][]int{{1, 2, 3, 4, 5}, {6, 7, 8, 9, 10}}}, ErrInvalidNumbers},
		{"duplicate pick", models.PurchaseRequest{WalletAddress: buyerWallet, Count: 1, TransactionHash: validHash,
			Numbers: [][]int{{1, 1, 3, 4, 5}}}, ErrInvalidNumbers},
		{"out of range", models.PurchaseRequest{WalletAddress: buyerWallet, Count: 1, TransactionHash: validHash,
			Numbers: [][]int{{1, 2, 3, 4, 37}}}, ErrInvalidNumbers},
		{"too few numbers", models.PurchaseRequest{WalletAddress: buyerWallet, Count: 1, TransactionHash: validHash,
			Numbers: [][]int{{1, 2, 3}}}, ErrInvalidNumbers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.svc.PurchaseTickets(context.Background(), &req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, f.chain.callCount(), "invalid requests never reach the chain")
}

func TestPurchaseNeedsOpenDraw(t *testing.T) {
	f := newPurchaseFixture(t, false)
	f.chain.pay(validHash, "1000000000")

	_, err := f.svc.PurchaseTickets(context.Background(), &models.PurchaseRequest{
		WalletAddress: buyerWallet, Count: 1, TransactionHash: validHash,
	})
	assert.ErrorIs(t, err, ErrNoOpenDraw)
}

func TestPurchaseAfterSalesClose(t *testing.T) {
	f := newPurchaseFixture(t, false)
	require.NoError(t, f.draws.Create(context.Background(), &models.Draw{
		Number:      1,
		Status:      models.DrawStatusOpen,
		TicketPrice: d("1"),
		ClosesAt:    time.Now().Add(-time.Minute),
	}))
	f.chain.pay(validHash, "1000000000")

	_, err := f.svc.PurchaseTickets(context.Background(), &models.PurchaseRequest{
		WalletAddress: buyerWallet, Count: 1, TransactionHash: validHash,
	})
	assert.ErrorIs(t, err, ErrNoOpenDraw)
}

func TestQuote(t *testing.T) {
	f := newPurchaseFixture(t, false)

	q, err := f.svc.Quote(context.Background(), 12)
	require.NoError(t, err)
	assert.True(t, q.Subtotal.Equal(d("12")))
	assert.True(t, q.Total.Equal(d("10.8")))

	require.NoError(t, f.draws.Create(context.Background(), &models.Draw{
		Number: 1, Status: models.DrawStatusOpen, TicketPrice: d("2.5"), ClosesAt: time.Now().Add(time.Hour),
	}))
	q, err = f.svc.Quote(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, q.Total.Equal(d("5")), "the open draw's price wins over the configured one")

	_, err = f.svc.Quote(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidTicketCount)
}

func TestQuickPick(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		nums, err := testRules.QuickPick()
		require.NoError(t, err)
		_, err = testRules.Validate(nums)
		require.NoError(t, err)
		seen[fmt.Sprint(nums)] = true
	}
	assert.Greater(t, len(seen), 1)

	all := GameRules{NumbersPerTicket: 5, NumberRange: 5}
	nums, err := all.QuickPick()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, nums)
}

func TestCountMatches(t *testing.T) {
	assert.Equal(t, 5, countMatches([]int{1, 2, 3, 4, 5}, []int{5, 4, 3, 2, 1}))
	assert.Equal(t, 2, countMatches([]int{1, 2, 10, 11, 12}, []int{1, 2, 3, 4, 5}))
	assert.Equal(t, 0, countMatches([]int{30, 31, 32, 33, 34}, []int{1, 2, 3, 4, 5}))
}

var _ repositories.TicketRepository = brokenLookups{}
