package modeladapter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tjkj/quantumcore/pkg/chats/message"
	"github.com/tjkj/quantumcore/pkg/modeladapter"
)

type scriptedStreamer struct {
	replies [][]string
	errs    []error
	seen    [][]message.Message
	cfg     modeladapter.SessionConfig
}

func (s *scriptedStreamer) StreamTurn(_ context.Context, cfg modeladapter.SessionConfig, history []message.Message, onFragment modeladapter.FragmentFunc) error {
	i := len(s.seen)
	s.seen = append(s.seen, history)
	s.cfg = cfg

	for _, f := range s.replies[i] {
		if err := onFragment(f); err != nil {
			return err
		}
	}

	return s.errs[i]
}

func TestHistoryConversation_RemembersCompletedTurns(t *testing.T) {
	s := &scriptedStreamer{
		replies: [][]string{{"Hel", "lo"}, {"OK"}},
		errs:    []error{nil, nil},
	}
	cfg := modeladapter.SessionConfig{SystemInstruction: "sys", Temperature: 0.2}

	conv, err := modeladapter.HistoryOpener(s).Open(context.Background(), cfg)
	require.NoError(t, err)

	var got []string
	onFragment := func(f string) error {
		got = append(got, f)
		return nil
	}

	require.NoError(t, conv.Stream(context.Background(), "hi", onFragment))
	require.NoError(t, conv.Stream(context.Background(), "again", onFragment))

	assert.Equal(t, []string{"Hel", "lo", "OK"}, got)
	assert.Equal(t, cfg, s.cfg)
	assert.Equal(t, []message.Message{message.User("hi")}, s.seen[0])
	assert.Equal(t, []message.Message{
		message.User("hi"),
		message.Assistant("Hello"),
		message.User("again"),
	}, s.seen[1])
	assert.NoError(t, conv.Close())
}

func TestHistoryConversation_ForgetsFailedTurn(t *testing.T) {
	boom := errors.New("boom")
	s := &scriptedStreamer{
		replies: [][]string{{"par"}, {"fine"}},
		errs:    []error{boom, nil},
	}

	conv := modeladapter.NewHistoryConversation(s, modeladapter.SessionConfig{})
	nop := func(string) error { return nil }

	require.ErrorIs(t, conv.Stream(context.Background(), "first", nop), boom)
	assert.Empty(t, conv.History())

	require.NoError(t, conv.Stream(context.Background(), "second", nop))
	assert.Equal(t, []message.Message{message.User("second")}, s.seen[1])
	assert.Equal(t, []message.Message{
		message.User("second"),
		message.Assistant("fine"),
	}, conv.History())
}

func TestHistoryConversation_FragmentErrorAborts(t *testing.T) {
	stop := errors.New("stop")
	s := &scriptedStreamer{
		replies: [][]string{{"a", "b"}},
		errs:    []error{nil},
	}

	conv := modeladapter.NewHistoryConversation(s, modeladapter.SessionConfig{})
	err := conv.Stream(context.Background(), "x", func(string) error { return stop })

	require.ErrorIs(t, err, stop)
	assert.Empty(t, conv.History())
}
