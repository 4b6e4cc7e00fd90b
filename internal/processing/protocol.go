package processing

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filemill/internal/common"
	"github.com/dmitrijs2005/filemill/internal/logging"
	"github.com/dmitrijs2005/filemill/internal/queue"
)

// PeekBatchSize bounds how many messages Peek inspects at once.
const PeekBatchSize = 32

// AckFunc acknowledges a received message, removing it from the queue.
// Until called, the message is redelivered after its visibility timeout
// expires (at-least-once delivery).
type AckFunc func(ctx context.Context) error

// Protocol wraps one named queue with the message codec. Bodies that do
// not parse are moved to the dead-letter queue rather than poisoning the
// consumer.
type Protocol struct {
	queue        queue.Queue
	deadLetter   queue.Queue
	pollInterval time.Duration
	logger       logging.Logger
}

func NewProtocol(q queue.Queue, deadLetter queue.Queue, pollInterval time.Duration, logger logging.Logger) *Protocol {
	return &Protocol{
		queue:        q,
		deadLetter:   deadLetter,
		pollInterval: pollInterval,
		logger:       logger.With("module", "processing"),
	}
}

// Enqueue serializes msg onto the queue. A nil message is rejected.
func (p *Protocol) Enqueue(ctx context.Context, msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: nil message", common.ErrInvalidArgument)
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return p.queue.Push(ctx, msg.String())
}

// ReceiveBlocking polls until a parsable message is available, returning
// it together with its ack. The queue entry is only removed when the ack
// runs; a consumer crash before that causes redelivery.
func (p *Protocol) ReceiveBlocking(ctx context.Context) (*Message, AckFunc, error) {
	for {
		raw, err := p.queue.Receive(ctx)
		if err != nil {
			return nil, nil, err
		}
		if raw == nil {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(p.pollInterval):
			}
			continue
		}

		msg, err := Parse(raw.Body)
		if err != nil {
			p.logger.Warn(ctx, "dead-lettering unparsable message", "error", err)
			if p.deadLetter != nil {
				if err := p.deadLetter.Push(ctx, raw.Body); err != nil {
					return nil, nil, err
				}
			}
			if err := p.queue.Delete(ctx, raw.ID); err != nil {
				return nil, nil, err
			}
			continue
		}

		id := raw.ID
		ack := func(ctx context.Context) error {
			return p.queue.Delete(ctx, id)
		}
		return msg, ack, nil
	}
}

// DeadLetter parks msg on the dead-letter queue. Consumers use it for
// messages that parse fine but can never be processed.
func (p *Protocol) DeadLetter(ctx context.Context, msg *Message) error {
	if p.deadLetter == nil {
		return fmt.Errorf("%w: no dead-letter queue configured", common.ErrInvalidArgument)
	}
	return p.deadLetter.Push(ctx, msg.String())
}

// DequeueBlocking polls until a message is available and acknowledges it
// immediately after the successful parse.
func (p *Protocol) DequeueBlocking(ctx context.Context) (*Message, error) {
	msg, ack, err := p.ReceiveBlocking(ctx)
	if err != nil {
		return nil, err
	}
	if err := ack(ctx); err != nil {
		return nil, err
	}
	return msg, nil
}

// Peek returns up to n parsed messages without consuming them. Used for
// inspection only, never for consumption.
func (p *Protocol) Peek(ctx context.Context, n int) ([]*Message, error) {
	if n <= 0 || n > PeekBatchSize {
		n = PeekBatchSize
	}
	bodies, err := p.queue.Peek(ctx, n)
	if err != nil {
		return nil, err
	}
	var msgs []*Message
	for _, body := range bodies {
		msg, err := Parse(body)
		if err != nil {
			p.logger.Warn(ctx, "skipping unparsable message in peek", "error", err)
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
