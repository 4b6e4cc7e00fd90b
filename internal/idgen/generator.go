// Package idgen allocates globally unique, monotonically increasing user
// IDs from a single shared counter record. Allocation is a conditional
// update retried on conflict, never a blind read-modify-write, so two
// concurrent callers can never be handed the same value.
package idgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// CounterName is the shared counter every user ID is allocated from.
const CounterName = "NextUserId"

// idWidth is the fixed width of the decimal part of an ID.
const idWidth = 16

var errConflict = errors.New("counter conflict")

// Repository is the storage contract for shared counters.
type Repository interface {
	// Get returns the counter's current value.
	Get(ctx context.Context, name string) (int64, error)

	// CompareAndSet advances the counter from old to new, returning false
	// when another writer got there first.
	CompareAndSet(ctx context.Context, name string, old, new int64) (bool, error)
}

type Generator struct {
	repo Repository
}

func NewGenerator(repo Repository) *Generator {
	return &Generator{repo: repo}
}

// NextID allocates the next counter value and formats it as a
// role-prefixed fixed-width ID, e.g. "a0000000000000001". The counter is
// never decremented; IDs are never reused.
func (g *Generator) NextID(ctx context.Context, isAdmin bool) (string, error) {
	var allocated int64

	backoff := retry.WithMaxRetries(10, retry.NewExponential(5*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		current, err := g.repo.Get(ctx, CounterName)
		if err != nil {
			return err
		}
		ok, err := g.repo.CompareAndSet(ctx, CounterName, current, current+1)
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(errConflict)
		}
		allocated = current
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("allocate id: %w", err)
	}

	return FormatID(isAdmin, allocated), nil
}

// FormatID renders an allocated counter value as a role-prefixed,
// zero-padded ID: 'a' for admins, 'u' for common users.
func FormatID(isAdmin bool, n int64) string {
	prefix := "u"
	if isAdmin {
		prefix = "a"
	}
	return fmt.Sprintf("%s%0*d", prefix, idWidth, n)
}
