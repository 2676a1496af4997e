package modeladapter_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tjkj/quantumcore/pkg/modeladapter"
)

func TestRateLimitHeaderParsers(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reset := now.Add(45 * time.Second)

	tests := []struct {
		name    string
		parse   modeladapter.RateLimitHeaderParser
		headers map[string]string
		want    *modeladapter.RateLimitInfo
	}{
		{
			name:  "anthropic all headers",
			parse: modeladapter.ParseAnthropicRateLimitHeaders,
			headers: map[string]string{
				"anthropic-ratelimit-requests-remaining": "5",
				"anthropic-ratelimit-tokens-remaining":   "1000",
				"anthropic-ratelimit-requests-reset":     reset.Format(time.RFC3339),
				"anthropic-ratelimit-tokens-reset":       reset.Format(time.RFC3339),
			},
			want: &modeladapter.RateLimitInfo{
				RemainingRequests: 5,
				RemainingTokens:   1000,
				RequestsReset:     reset,
				TokensReset:       reset,
			},
		},
		{
			name:  "anthropic duration reset",
			parse: modeladapter.ParseAnthropicRateLimitHeaders,
			headers: map[string]string{
				"anthropic-ratelimit-requests-remaining": "2",
				"anthropic-ratelimit-requests-reset":     "30s",
			},
			want: &modeladapter.RateLimitInfo{
				RemainingRequests: 2,
				RequestsReset:     now.Add(30 * time.Second),
			},
		},
		{
			name:  "openai durations",
			parse: modeladapter.ParseOpenAIRateLimitHeaders,
			headers: map[string]string{
				"x-ratelimit-remaining-requests": "59",
				"x-ratelimit-remaining-tokens":   "149000",
				"x-ratelimit-reset-requests":     "1s",
				"x-ratelimit-reset-tokens":       "1m30s",
			},
			want: &modeladapter.RateLimitInfo{
				RemainingRequests: 59,
				RemainingTokens:   149000,
				RequestsReset:     now.Add(time.Second),
				TokensReset:       now.Add(90 * time.Second),
			},
		},
		{
			name:  "openai garbage reset",
			parse: modeladapter.ParseOpenAIRateLimitHeaders,
			headers: map[string]string{
				"x-ratelimit-remaining-tokens": "10",
				"x-ratelimit-reset-tokens":     "soon",
			},
			want: &modeladapter.RateLimitInfo{RemainingTokens: 10},
		},
		{
			name:  "anthropic none",
			parse: modeladapter.ParseAnthropicRateLimitHeaders,
		},
		{
			name:    "openai ignores anthropic headers",
			parse:   modeladapter.ParseOpenAIRateLimitHeaders,
			headers: map[string]string{"anthropic-ratelimit-requests-remaining": "5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			got := tt.parse(h, now)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}
