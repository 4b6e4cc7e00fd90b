// Package dispatch submits processing requests and correlates the
// asynchronous completions back to the waiting caller.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/filemill/internal/common"
	"github.com/dmitrijs2005/filemill/internal/logging"
	"github.com/dmitrijs2005/filemill/internal/processing"
)

// Dispatcher pairs each submitted request with its completion by the
// request id. A single router goroutine (Run) consumes the completion
// queue and hands each message to the registered waiter.
type Dispatcher struct {
	requests    *processing.Protocol
	completions *processing.Protocol
	timeout     time.Duration
	logger      logging.Logger

	mu      sync.Mutex
	waiters map[string]chan *processing.Message
}

func New(requests, completions *processing.Protocol, timeout time.Duration, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		requests:    requests,
		completions: completions,
		timeout:     timeout,
		logger:      logger.With("module", "dispatch"),
		waiters:     make(map[string]chan *processing.Message),
	}
}

// Run routes completions to waiters until the context is cancelled.
// Completions nobody waits for anymore (the caller timed out) are
// logged and dropped; the output blob itself is still in place.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		msg, err := d.completions.DequeueBlocking(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		d.mu.Lock()
		ch, ok := d.waiters[msg.RequestID]
		delete(d.waiters, msg.RequestID)
		d.mu.Unlock()

		if !ok {
			d.logger.Warn(ctx, "completion without waiter", "requestId", msg.RequestID)
			continue
		}
		ch <- msg
	}
}

// Submit enqueues a processing request and blocks until its completion
// arrives or the dispatch timeout expires. The returned message carries
// the output URI and content type.
func (d *Dispatcher) Submit(ctx context.Context, fileURI, contentType, toolName string) (*processing.Message, error) {
	msg, err := processing.New(fileURI, contentType, toolName)
	if err != nil {
		return nil, err
	}

	// Register before enqueueing so a fast worker cannot complete into
	// the void.
	ch := make(chan *processing.Message, 1)
	d.mu.Lock()
	d.waiters[msg.RequestID] = ch
	d.mu.Unlock()

	if err := d.requests.Enqueue(ctx, msg); err != nil {
		d.unregister(msg.RequestID)
		return nil, fmt.Errorf("enqueueing request: %w", err)
	}

	select {
	case completion := <-ch:
		return completion, nil
	case <-time.After(d.timeout):
		d.unregister(msg.RequestID)
		return nil, fmt.Errorf("%w: request %s after %s", common.ErrProcessingTimeout, msg.RequestID, d.timeout)
	case <-ctx.Done():
		d.unregister(msg.RequestID)
		return nil, ctx.Err()
	}
}

func (d *Dispatcher) unregister(requestID string) {
	d.mu.Lock()
	delete(d.waiters, requestID)
	d.mu.Unlock()
}
