package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filemill/internal/dbx"
)

// Options tunes the at-least-once lease behavior of a queue.
type Options struct {
	VisibilityTimeout time.Duration
	// MaxDeliveries bounds redeliveries; a message leased more than
	// MaxDeliveries times is moved to DeadLetterQueue instead of being
	// returned again. Zero disables dead-lettering.
	MaxDeliveries   int
	DeadLetterQueue string
}

// PostgresQueue stores messages in the queue_messages table, leasing them
// with FOR UPDATE SKIP LOCKED so parallel consumers never double-receive
// inside a single visibility window.
type PostgresQueue struct {
	db   *sql.DB
	name string
	opts Options
}

func NewPostgresQueue(db *sql.DB, name string, opts Options) *PostgresQueue {
	return &PostgresQueue{db: db, name: name, opts: opts}
}

func (q *PostgresQueue) Push(ctx context.Context, body string) error {
	query := `INSERT INTO queue_messages (queue_name, body) VALUES ($1, $2)`
	if _, err := q.db.ExecContext(ctx, query, q.name, body); err != nil {
		return fmt.Errorf("push to queue %q: %w", q.name, err)
	}
	return nil
}

func (q *PostgresQueue) Receive(ctx context.Context) (*Message, error) {
	for {
		msg, err := q.receiveOne(ctx)
		if err != nil {
			return nil, err
		}
		if msg == nil {
			return nil, nil
		}
		if q.opts.MaxDeliveries > 0 && msg.Deliveries > q.opts.MaxDeliveries {
			if err := q.deadLetter(ctx, msg.ID); err != nil {
				return nil, err
			}
			continue
		}
		return msg, nil
	}
}

func (q *PostgresQueue) receiveOne(ctx context.Context) (*Message, error) {
	query := `
        WITH next AS (
            SELECT id FROM queue_messages
            WHERE queue_name = $1 AND visible_at <= NOW()
            ORDER BY id
            FOR UPDATE SKIP LOCKED
            LIMIT 1
        )
        UPDATE queue_messages m
        SET visible_at = NOW() + make_interval(secs => $2), deliveries = m.deliveries + 1
        FROM next
        WHERE m.id = next.id
        RETURNING m.id, m.body, m.deliveries`

	msg := &Message{}
	err := q.db.QueryRowContext(ctx, query, q.name, q.opts.VisibilityTimeout.Seconds()).
		Scan(&msg.ID, &msg.Body, &msg.Deliveries)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("receive from queue %q: %w", q.name, err)
	}
	return msg, nil
}

func (q *PostgresQueue) deadLetter(ctx context.Context, id int64) error {
	query := `
        UPDATE queue_messages
        SET queue_name = $1, deliveries = 0, visible_at = NOW()
        WHERE id = $2`
	if _, err := q.db.ExecContext(ctx, query, q.opts.DeadLetterQueue, id); err != nil {
		return fmt.Errorf("dead-letter message %d: %w", id, err)
	}
	return nil
}

func (q *PostgresQueue) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM queue_messages WHERE queue_name = $1 AND id = $2`
	if _, err := q.db.ExecContext(ctx, query, q.name, id); err != nil {
		return fmt.Errorf("delete from queue %q: %w", q.name, err)
	}
	return nil
}

func (q *PostgresQueue) Peek(ctx context.Context, n int) ([]string, error) {
	query := `SELECT body FROM queue_messages WHERE queue_name = $1 ORDER BY id LIMIT $2`

	rows, err := q.db.QueryContext(ctx, query, q.name, n)
	if err != nil {
		return nil, fmt.Errorf("peek queue %q: %w", q.name, err)
	}
	defer rows.Close()

	var bodies []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bodies, nil
}

func (q *PostgresQueue) Clear(ctx context.Context) error {
	query := `DELETE FROM queue_messages WHERE queue_name = $1`
	if _, err := q.db.ExecContext(ctx, query, q.name); err != nil {
		return fmt.Errorf("clear queue %q: %w", q.name, err)
	}
	return nil
}

// MoveDeadLettered requeues every message from the dead-letter queue back
// onto this queue, resetting lease state. Operator tooling only.
func (q *PostgresQueue) MoveDeadLettered(ctx context.Context, tx dbx.DBTX) error {
	query := `
        UPDATE queue_messages
        SET queue_name = $1, deliveries = 0, visible_at = NOW()
        WHERE queue_name = $2`
	if _, err := tx.ExecContext(ctx, query, q.name, q.opts.DeadLetterQueue); err != nil {
		return fmt.Errorf("requeue dead-lettered: %w", err)
	}
	return nil
}
