package engine

import (
	"context"
	"sync"

	"github.com/tjkj/quantumcore/pkg/modeladapter"
)

// fakeConv replays scripted fragments. When gate is set, Stream signals
// reached after emitting gateAfter fragments and waits for gate to close.
// With serial set, Close waits for a running Stream the way a socket-backed
// conversation does, and closes closing when it starts waiting.
type fakeConv struct {
	fragments []string
	err       error
	gateAfter int
	gate      chan struct{}
	reached   chan struct{}
	serial    bool
	closing   chan struct{}

	streamMu sync.Mutex
	mu       sync.Mutex
	texts    []string
	closed   bool
}

func (c *fakeConv) Stream(ctx context.Context, text string, onFragment modeladapter.FragmentFunc) error {
	if c.serial {
		c.streamMu.Lock()
		defer c.streamMu.Unlock()
	}

	c.mu.Lock()
	c.texts = append(c.texts, text)
	c.mu.Unlock()

	for i := 0; i <= len(c.fragments); i++ {
		if c.gate != nil && i == c.gateAfter {
			close(c.reached)
			select {
			case <-c.gate:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if i == len(c.fragments) {
			break
		}
		if err := onFragment(c.fragments[i]); err != nil {
			return err
		}
	}

	return c.err
}

func (c *fakeConv) Close() error {
	if c.closing != nil {
		close(c.closing)
	}
	if c.serial {
		c.streamMu.Lock()
		defer c.streamMu.Unlock()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

func (c *fakeConv) sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.texts...)
}

func (c *fakeConv) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

type fakeOpener struct {
	conv    *fakeConv
	openErr error

	mu    sync.Mutex
	opens int
	cfg   modeladapter.SessionConfig
}

func (o *fakeOpener) Open(_ context.Context, cfg modeladapter.SessionConfig) (modeladapter.Conversation, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.opens++
	o.cfg = cfg
	if o.openErr != nil {
		return nil, o.openErr
	}
	return o.conv, nil
}

func (o *fakeOpener) openCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.opens
}
