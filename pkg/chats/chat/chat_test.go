package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tjkj/quantumcore/pkg/chats/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c := New(message.User("hello"), message.Assistant("hi"))

	assert.Equal(t, 2, c.Len())
}

func TestChat_ZeroValue(t *testing.T) {
	var c Chat

	assert.Equal(t, 0, c.Len())

	_, ok := c.Last()
	assert.False(t, ok)
	assert.Empty(t, c.Messages())
	assert.Nil(t, c.Since(0))
}

func TestChat_Append(t *testing.T) {
	c := New()
	c.Append(message.User("one"))
	c.Append(message.Assistant("two"), message.User("three"))

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, "three", c.At(2).Text)
}

func TestChat_At_Panics(t *testing.T) {
	c := New()
	assert.Panics(t, func() { c.At(0) })
}

func TestChat_Last(t *testing.T) {
	c := New(message.User("first"), message.Assistant("second"))

	msg, ok := c.Last()
	assert.True(t, ok)
	assert.Equal(t, "second", msg.Text)
}

func TestChat_Messages_ReturnsCopy(t *testing.T) {
	c := New(message.User("hello"))

	msgs := c.Messages()
	msgs[0] = message.Assistant("modified")

	assert.Equal(t, "hello", c.At(0).Text)
}

func TestChat_Since(t *testing.T) {
	c := New(message.User("a"), message.Assistant("b"), message.User("c"))

	got := c.Since(1)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Text)
	assert.Equal(t, "c", got[1].Text)

	assert.Nil(t, c.Since(3))
	assert.Len(t, c.Since(-1), 3)
}

func TestChat_Each_EarlyStop(t *testing.T) {
	c := New(message.User("a"), message.Assistant("b"), message.User("c"))

	var visited []string
	c.Each(func(_ int, m message.Message) bool {
		visited = append(visited, m.Text)
		return len(visited) < 2
	})

	assert.Equal(t, []string{"a", "b"}, visited)
}

func TestChat_ExtendLast(t *testing.T) {
	c := New(message.User("q"), message.Assistant(""))

	_, err := c.ExtendLast("Hel")
	require.NoError(t, err)
	m, err := c.ExtendLast("lo")
	require.NoError(t, err)

	assert.Equal(t, "Hello", m.Text)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, message.RoleAssistant, c.At(1).Role)
	assert.Equal(t, "Hello", c.At(1).Text)
}

func TestChat_ExtendLast_NoAssistantTail(t *testing.T) {
	c := New()
	_, err := c.ExtendLast("x")
	require.ErrorIs(t, err, ErrNoAssistantTail)

	c.Append(message.User("q"))
	_, err = c.ExtendLast("x")
	require.ErrorIs(t, err, ErrNoAssistantTail)
	assert.Equal(t, "q", c.At(0).Text)
}

func TestChat_Changed(t *testing.T) {
	c := New(message.Assistant(""))
	ch := c.Changed()

	select {
	case <-ch:
		t.Fatal("changed before mutation")
	default:
	}

	_, err := c.ExtendLast("x")
	require.NoError(t, err)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("not notified of mutation")
	}
}

func TestChat_Wait(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	wg.Add(1)
	var got int
	go func() {
		defer wg.Done()
		n, err := c.Wait(context.Background(), 0)
		assert.NoError(t, err)
		got = n
	}()

	time.Sleep(10 * time.Millisecond)
	c.Append(message.User("hi"))
	wg.Wait()

	assert.Equal(t, 1, got)
}

func TestChat_Wait_AlreadyAvailable(t *testing.T) {
	c := New(message.User("hi"))

	n, err := c.Wait(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChat_Wait_Cancelled(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Wait(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)
}
