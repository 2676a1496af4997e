package usage_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tjkj/quantumcore/pkg/modeladapter/usage"
)

func TestTracker_ZeroValue(t *testing.T) {
	var tr usage.Tracker

	_, ok := tr.Last()
	assert.False(t, ok)
	assert.Equal(t, 0, tr.Count())
	assert.Equal(t, usage.TokenCount{}, tr.Total())
	assert.Equal(t, "0 tokens", tr.String())
}

func TestTracker_Accumulates(t *testing.T) {
	var tr usage.Tracker

	tr.Add(usage.TokenCount{InputTokens: 10, OutputTokens: 5})
	tr.Add(usage.TokenCount{InputTokens: 20, OutputTokens: 10})

	last, ok := tr.Last()
	assert.True(t, ok)
	assert.Equal(t, usage.TokenCount{InputTokens: 20, OutputTokens: 10}, last)
	assert.Equal(t, usage.TokenCount{InputTokens: 30, OutputTokens: 15}, tr.Total())
	assert.Equal(t, 45, tr.Total().Total())
	assert.Equal(t, 2, tr.Count())
}

func TestTracker_Reset(t *testing.T) {
	var tr usage.Tracker
	tr.Add(usage.TokenCount{InputTokens: 1})
	tr.Reset()

	_, ok := tr.Last()
	assert.False(t, ok)
	assert.Equal(t, 0, tr.Count())
}

func TestTracker_Concurrent(t *testing.T) {
	var tr usage.Tracker
	var wg sync.WaitGroup

	for range 50 {
		wg.Go(func() {
			tr.Add(usage.TokenCount{InputTokens: 1, OutputTokens: 2})
		})
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Count())
	assert.Equal(t, 150, tr.Total().Total())
}

func TestFormatTokens(t *testing.T) {
	assert.Equal(t, "950", usage.FormatTokens(950))
	assert.Equal(t, "1.2k", usage.FormatTokens(1234))
	assert.Equal(t, "3.4M", usage.FormatTokens(3_400_000))
}
