// Package queue provides a named message queue with at-least-once
// delivery. A received message stays invisible for a visibility timeout
// and is redelivered unless deleted; messages redelivered too many times
// are moved to a dead-letter queue.
package queue

import "context"

// Message is one leased queue entry. ID acts as the delete receipt.
type Message struct {
	ID         int64
	Body       string
	Deliveries int
}

// Queue is bound to one named queue on a shared backend.
type Queue interface {
	// Push appends body to the queue.
	Push(ctx context.Context, body string) error

	// Receive leases the oldest visible message, or returns nil when the
	// queue is empty. The message becomes invisible for the configured
	// visibility timeout; callers must Delete it once processed.
	Receive(ctx context.Context) (*Message, error)

	// Delete acknowledges a received message, removing it permanently.
	Delete(ctx context.Context, id int64) error

	// Peek returns up to n message bodies without consuming them.
	Peek(ctx context.Context, n int) ([]string, error)

	// Clear removes every message from the queue.
	Clear(ctx context.Context) error
}
