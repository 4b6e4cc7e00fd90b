package idgen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filemill/internal/common"
)

// PostgresRepository keeps counters in the counters table, one row per
// counter name.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, name string) (int64, error) {
	query := `SELECT next_value FROM counters WHERE name = $1`

	var value int64
	err := r.db.QueryRowContext(ctx, query, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: counter %q", common.ErrContainerMissing, name)
		}
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return value, nil
}

func (r *PostgresRepository) CompareAndSet(ctx context.Context, name string, old, new int64) (bool, error) {
	query := `UPDATE counters SET next_value = $1 WHERE name = $2 AND next_value = $3`

	res, err := r.db.ExecContext(ctx, query, new, name, old)
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
