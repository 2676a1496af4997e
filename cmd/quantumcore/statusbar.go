package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/tjkj/quantumcore/cmd/quantumcore/internal/styles"
	"github.com/tjkj/quantumcore/pkg/engine"
	"github.com/tjkj/quantumcore/pkg/modeladapter"
	"github.com/tjkj/quantumcore/pkg/modeladapter/usage"
)

// usageSource reports the active adapter's token usage and rate limits.
type usageSource interface {
	Usage() *usage.Tracker
	RateLimit() *modeladapter.RateLimitInfo
}

// statusBarModel shows the provider, turn state, token usage and timing.
type statusBarModel struct {
	src      usageSource
	provider string
	state    engine.State
	duration time.Duration
	err      string
}

func newStatusBar(src usageSource, provider engine.ProviderConfig) statusBarModel {
	name := provider.Name
	if provider.Model != "" {
		name += " · " + provider.Model
	}
	return statusBarModel{src: src, provider: name}
}

func (m statusBarModel) View(s styles.Set) string {
	parts := []string{" " + m.provider, m.state.String()}

	if u := m.usageText(); u != "" {
		parts = append(parts, u)
	}
	if rl := m.src.RateLimit(); rl != nil && (rl.RemainingRequests > 0 || rl.RemainingTokens > 0) {
		parts = append(parts, fmt.Sprintf("left: %d req %s tok", rl.RemainingRequests, usage.FormatTokens(rl.RemainingTokens)))
	}
	if m.duration > 0 {
		parts = append(parts, fmtDuration(m.duration))
	}
	if m.err != "" {
		parts = append(parts, s.Danger.Render("error: "+truncate(m.err, 60)))
	}
	parts = append(parts, "tab switch · ctrl+t theme · ctrl+c quit")

	return s.Status.Render(strings.Join(parts, " │ "))
}

func (m statusBarModel) usageText() string {
	t := m.src.Usage()
	if t == nil {
		return ""
	}

	total := t.Total()
	last, ok := t.Last()
	switch {
	case ok:
		return fmt.Sprintf("last: ↑%s ↓%s · total: ↑%s ↓%s",
			usage.FormatTokens(last.InputTokens),
			usage.FormatTokens(last.OutputTokens),
			usage.FormatTokens(total.InputTokens),
			usage.FormatTokens(total.OutputTokens),
		)
	case total.Total() > 0:
		return t.String()
	}
	return ""
}
