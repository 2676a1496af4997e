// Package usage tracks token consumption reported by model providers.
package usage

import (
	"fmt"
	"sync"
)

// TokenCount holds prompt and response token counts for one streamed turn.
type TokenCount struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Tracker accumulates usage across turns. The zero value is ready to use
// and safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	last  TokenCount
	total TokenCount
	turns int
}

// Add records the usage of one turn.
func (t *Tracker) Add(tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = tc
	t.total.InputTokens += tc.InputTokens
	t.total.OutputTokens += tc.OutputTokens
	t.turns++
}

// Last returns the most recent turn's usage; false when nothing was recorded.
func (t *Tracker) Last() (TokenCount, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last, t.turns > 0
}

// Total returns the aggregate across all turns.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// Count returns the number of recorded turns.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.turns
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last, t.total, t.turns = TokenCount{}, TokenCount{}, 0
}

// String renders the running total for a status line, e.g. "1.2k tokens".
func (t *Tracker) String() string {
	return FormatTokens(t.Total().Total()) + " tokens"
}

// FormatTokens abbreviates large counts: 950, 1.2k, 3.4M.
func FormatTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
