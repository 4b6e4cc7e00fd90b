package queue

import (
	"context"
	"sync"
	"time"
)

type memMsg struct {
	id         int64
	body       string
	visibleAt  time.Time
	deliveries int
}

// MemoryBroker holds every in-memory queue of one test process so
// dead-letter moves between named queues stay visible.
type MemoryBroker struct {
	mu     sync.Mutex
	nextID int64
	queues map[string][]*memMsg
	now    func() time.Time
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		queues: make(map[string][]*memMsg),
		now:    time.Now,
	}
}

// Queue binds a MemoryQueue to a named queue on this broker.
func (b *MemoryBroker) Queue(name string, opts Options) *MemoryQueue {
	return &MemoryQueue{broker: b, name: name, opts: opts}
}

// MemoryQueue implements Queue with the same lease semantics as the
// Postgres backend.
type MemoryQueue struct {
	broker *MemoryBroker
	name   string
	opts   Options
}

func (q *MemoryQueue) Push(ctx context.Context, body string) error {
	b := q.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.queues[q.name] = append(b.queues[q.name], &memMsg{
		id:        b.nextID,
		body:      body,
		visibleAt: b.now(),
	})
	return nil
}

func (q *MemoryQueue) Receive(ctx context.Context) (*Message, error) {
	b := q.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	msgs := b.queues[q.name]
	for i := 0; i < len(msgs); i++ {
		m := msgs[i]
		if m.visibleAt.After(now) {
			continue
		}
		m.deliveries++
		if q.opts.MaxDeliveries > 0 && m.deliveries > q.opts.MaxDeliveries {
			// move to the dead-letter queue and keep scanning
			b.queues[q.name] = append(msgs[:i], msgs[i+1:]...)
			m.deliveries = 0
			m.visibleAt = now
			b.queues[q.opts.DeadLetterQueue] = append(b.queues[q.opts.DeadLetterQueue], m)
			msgs = b.queues[q.name]
			i--
			continue
		}
		m.visibleAt = now.Add(q.opts.VisibilityTimeout)
		return &Message{ID: m.id, Body: m.body, Deliveries: m.deliveries}, nil
	}
	return nil, nil
}

func (q *MemoryQueue) Delete(ctx context.Context, id int64) error {
	b := q.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	msgs := b.queues[q.name]
	for i, m := range msgs {
		if m.id == id {
			b.queues[q.name] = append(msgs[:i], msgs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (q *MemoryQueue) Peek(ctx context.Context, n int) ([]string, error) {
	b := q.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	var bodies []string
	for _, m := range b.queues[q.name] {
		if len(bodies) == n {
			break
		}
		bodies = append(bodies, m.body)
	}
	return bodies, nil
}

func (q *MemoryQueue) Clear(ctx context.Context) error {
	b := q.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues[q.name] = nil
	return nil
}
