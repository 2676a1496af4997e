package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tjkj/quantumcore/cmd/quantumcore/internal/styles"
)

func TestFmtDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{100 * time.Millisecond, "0.1s"},
		{2 * time.Second, "2.0s"},
		{65 * time.Second, "1m 5s"},
		{125 * time.Second, "2m 5s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, fmtDuration(tt.input), "fmtDuration(%v)", tt.input)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel...", truncate("hello world", 3))
	assert.Equal(t, "hello world", truncate("hello\nworld", 20))
	assert.Equal(t, "แรงดั...", truncate("แรงดันไฟ", 5))
}

func TestMarkdown_NilRendererPassesThrough(t *testing.T) {
	assert.Equal(t, "**bold**", markdown{}.render("**bold**"))
}

func TestMarkdown_Render(t *testing.T) {
	out := newMarkdown("dark", 60).render("VGH = **29.80 V**")
	assert.Contains(t, out, "29.80")
	assert.NotContains(t, out, "**")
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("QC_DOTENV_TEST=loaded\n"), 0o600))
	t.Setenv("QC_DOTENV_TEST", "")
	require.NoError(t, os.Unsetenv("QC_DOTENV_TEST"))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("QC_DOTENV_TEST"))
}

func TestRenderUserMessage(t *testing.T) {
	s := styles.New(true)

	msg := renderUserMessage(s, "hello")
	assert.Contains(t, msg, "You")
	assert.Contains(t, msg, "hello")

	multi := renderUserMessage(s, "line1\nline2")
	assert.Contains(t, multi, "line1")
	assert.Contains(t, multi, "line2")
}

func TestTabCycle(t *testing.T) {
	assert.Equal(t, tabDecoder, tabAtlas.next())
	assert.Equal(t, tabAtlas, tabChat.next())
	assert.Equal(t, tabChat, tabAtlas.prev())

	for tb := range tabCount {
		assert.NotEmpty(t, tb.label())
		title, sub := tb.title()
		assert.NotEmpty(t, title)
		assert.NotEmpty(t, sub)
	}
}
