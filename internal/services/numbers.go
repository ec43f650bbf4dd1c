package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
)

// GameRules fixes how many numbers a ticket holds and the range they come from.
type GameRules struct {
	NumbersPerTicket int
	NumberRange      int
}

// Validate returns a sorted copy of nums if it holds exactly NumbersPerTicket
// distinct values in 1..NumberRange.
func (g GameRules) Validate(nums []int) ([]int, error) {
	if len(nums) != g.NumbersPerTicket {
		return nil, fmt.Errorf("%w: need %d numbers, got %d", ErrInvalidNumbers, g.NumbersPerTicket, len(nums))
	}
	seen := make(map[int]bool, len(nums))
	out := make([]int, 0, len(nums))
	for _, n := range nums {
		if n < 1 || n > g.NumberRange {
			return nil, fmt.Errorf("%w: %d is outside 1..%d", ErrInvalidNumbers, n, g.NumberRange)
		}
		if seen[n] {
			return nil, fmt.Errorf("%w: %d picked twice", ErrInvalidNumbers, n)
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// QuickPick draws NumbersPerTicket distinct numbers with crypto/rand.
func (g GameRules) QuickPick() ([]int, error) {
	pool := make([]int, g.NumberRange)
	for i := range pool {
		pool[i] = i + 1
	}
	// partial Fisher-Yates
	for i := 0; i < g.NumbersPerTicket; i++ {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool)-i)))
		if err != nil {
			return nil, fmt.Errorf("quick pick: %w", err)
		}
		k := i + int(j.Int64())
		pool[i], pool[k] = pool[k], pool[i]
	}
	out := append([]int(nil), pool[:g.NumbersPerTicket]...)
	sort.Ints(out)
	return out, nil
}

// countMatches returns how many of picked appear in winning.
func countMatches(picked, winning []int) int {
	set := make(map[int]struct{}, len(winning))
	for _, n := range winning {
		set[n] = struct{}{}
	}
	matches := 0
	for _, n := range picked {
		if _, ok := set[n]; ok {
			matches++
		}
	}
	return matches
}
