package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePrizeAllocationTierPools(t *testing.T) {
	calc := newDefaultCalculator(t)

	allocs, err := calc.ComputePrizeAllocation(d("0.425"), map[string]int64{
		TierMatch4: 1, TierMatch3: 1, TierMatch2: 1,
	})
	require.NoError(t, err)

	assertClose(t, d("0.255"), allocs[TierMatch4].TierPool)
	assertClose(t, d("0.1275"), allocs[TierMatch3].TierPool)
	assertClose(t, d("0.0425"), allocs[TierMatch2].TierPool)
	assertClose(t, d("0.425"), allocs[TierMatch4].TierPool.Add(allocs[TierMatch3].TierPool).Add(allocs[TierMatch2].TierPool))
}

func TestComputePrizeAllocationHundredTickets(t *testing.T) {
	calc := newDefaultCalculator(t)

	dist, err := calc.ComputeDistribution(100, d("1"))
	require.NoError(t, err)
	assertClose(t, d("42.5"), dist.PayoutPool)

	allocs, err := calc.ComputePrizeAllocation(dist.PayoutPool, map[string]int64{
		TierMatch4: 2, TierMatch3: 5, TierMatch2: 10,
	})
	require.NoError(t, err)

	assertClose(t, d("12.75"), allocs[TierMatch4].PrizePerWinner)
	assertClose(t, d("2.55"), allocs[TierMatch3].PrizePerWinner)
	assertClose(t, d("0.425"), allocs[TierMatch2].PrizePerWinner)
	assertClose(t, dist.PayoutPool, allocs.TotalPaid())
	assert.True(t, allocs.TotalUnclaimed().IsZero())
}

func TestComputePrizeAllocationZeroWinners(t *testing.T) {
	calc := newDefaultCalculator(t)

	allocs, err := calc.ComputePrizeAllocation(d("42.5"), map[string]int64{
		TierMatch4: 0, TierMatch3: 5,
	})
	require.NoError(t, err)
	require.Len(t, allocs, 3)

	assert.True(t, allocs[TierMatch4].PrizePerWinner.IsZero())
	assertClose(t, d("25.5"), allocs[TierMatch4].Unclaimed)
	assert.True(t, allocs[TierMatch2].PrizePerWinner.IsZero())
	assertClose(t, d("4.25"), allocs[TierMatch2].Unclaimed)

	// The match3 winners keep exactly their own tier pool.
	assertClose(t, d("2.55"), allocs[TierMatch3].PrizePerWinner)
	assertClose(t, d("42.5"), allocs.TotalPaid().Add(allocs.TotalUnclaimed()))
}

func TestComputePrizeAllocationRepeatingDivision(t *testing.T) {
	calc := newDefaultCalculator(t)

	allocs, err := calc.ComputePrizeAllocation(d("10"), map[string]int64{
		TierMatch4: 3, TierMatch3: 7, TierMatch2: 9,
	})
	require.NoError(t, err)
	assertClose(t, d("10"), allocs.TotalPaid())
}

func TestComputePrizeAllocationErrors(t *testing.T) {
	calc := newDefaultCalculator(t)

	_, err := calc.ComputePrizeAllocation(d("1"), map[string]int64{"match5": 1})
	assert.ErrorIs(t, err, ErrUnknownTier)
	var tierErr *UnknownTierError
	require.ErrorAs(t, err, &tierErr)
	assert.Equal(t, "match5", tierErr.Tier)

	_, err = calc.ComputePrizeAllocation(d("-1"), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = calc.ComputePrizeAllocation(d("1"), map[string]int64{TierMatch2: -3})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAllocationsSorted(t *testing.T) {
	calc := newDefaultCalculator(t)

	allocs, err := calc.ComputePrizeAllocation(decimal.Zero, nil)
	require.NoError(t, err)

	sorted := allocs.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, []string{TierMatch2, TierMatch3, TierMatch4}, []string{sorted[0].Tier, sorted[1].Tier, sorted[2].Tier})
}

func TestAllocationsWithCarryOver(t *testing.T) {
	calc := newDefaultCalculator(t)

	allocs, err := calc.ComputePrizeAllocation(d("10"), map[string]int64{TierMatch4: 2})
	require.NoError(t, err)

	carried := allocs.WithCarryOver(map[string]decimal.Decimal{
		TierMatch4: d("4"),
		TierMatch2: d("1"),
		"ignored":  d("100"),
	})

	assertClose(t, d("5"), carried[TierMatch4].PrizePerWinner)
	assertClose(t, d("2"), carried[TierMatch2].Unclaimed)
	assertClose(t, d("3"), carried[TierMatch3].Unclaimed)
	assertClose(t, d("15"), carried.TotalPaid().Add(carried.TotalUnclaimed()))

	// The receiver is left untouched.
	assertClose(t, d("3"), allocs[TierMatch4].PrizePerWinner)
}
