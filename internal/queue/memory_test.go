package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOpts() Options {
	return Options{
		VisibilityTimeout: 30 * time.Second,
		MaxDeliveries:     3,
		DeadLetterQueue:   "deadletter",
	}
}

func TestMemoryQueue_PushReceiveDelete(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()
	q := b.Queue("requests", testOpts())

	require.NoError(t, q.Push(ctx, "one"))
	require.NoError(t, q.Push(ctx, "two"))

	msg, err := q.Receive(ctx)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "one", msg.Body)
	assert.Equal(t, 1, msg.Deliveries)

	require.NoError(t, q.Delete(ctx, msg.ID))

	msg, err = q.Receive(ctx)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "two", msg.Body)
}

func TestMemoryQueue_EmptyReceiveReturnsNil(t *testing.T) {
	b := NewMemoryBroker()
	q := b.Queue("requests", testOpts())

	msg, err := q.Receive(context.Background())
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestMemoryQueue_LeasedMessageIsInvisible(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()
	q := b.Queue("requests", testOpts())

	require.NoError(t, q.Push(ctx, "only"))

	first, err := q.Receive(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	// still leased, nothing visible
	second, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestMemoryQueue_RedeliveryAfterVisibilityTimeout(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()
	now := time.Now()
	b.now = func() time.Time { return now }
	q := b.Queue("requests", testOpts())

	require.NoError(t, q.Push(ctx, "only"))

	first, err := q.Receive(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	now = now.Add(31 * time.Second)

	again, err := q.Receive(ctx)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 2, again.Deliveries)
}

func TestMemoryQueue_DeadLetterAfterMaxDeliveries(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()
	now := time.Now()
	b.now = func() time.Time { return now }

	opts := testOpts()
	q := b.Queue("requests", opts)
	dlq := b.Queue("deadletter", Options{VisibilityTimeout: time.Minute})

	require.NoError(t, q.Push(ctx, "poison"))

	for i := 0; i < opts.MaxDeliveries; i++ {
		msg, err := q.Receive(ctx)
		require.NoError(t, err)
		require.NotNil(t, msg)
		now = now.Add(opts.VisibilityTimeout + time.Second)
	}

	// fourth lease attempt moves the message to the dead-letter queue
	msg, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Nil(t, msg)

	dead, err := dlq.Peek(ctx, 32)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "poison", dead[0])
}

func TestMemoryQueue_PeekDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()
	q := b.Queue("requests", testOpts())

	for _, body := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, q.Push(ctx, body))
	}

	peeked, err := q.Peek(ctx, 32)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, peeked)

	// every message is still receivable exactly once
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		msg, err := q.Receive(ctx)
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.False(t, seen[msg.Body], "duplicate delivery of %q", msg.Body)
		seen[msg.Body] = true
		require.NoError(t, q.Delete(ctx, msg.ID))
	}
	assert.Len(t, seen, 5)
}

func TestMemoryQueue_Clear(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()
	q := b.Queue("requests", testOpts())

	require.NoError(t, q.Push(ctx, "a"))
	require.NoError(t, q.Clear(ctx))

	peeked, err := q.Peek(ctx, 32)
	require.NoError(t, err)
	assert.Empty(t, peeked)
}
