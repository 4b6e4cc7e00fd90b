package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/filemill/internal/common"
	"github.com/dmitrijs2005/filemill/internal/dbx"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) error {
	query := `
        INSERT INTO users (id, email, password_hash, is_admin)
        VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.IsAdmin)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrUserAlreadyExists
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
        SELECT id, email, password_hash, is_admin, created_at FROM users
        WHERE email = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByCredentials(ctx context.Context, email, passwordHash string) (*User, error) {
	query := `
        SELECT id, email, password_hash, is_admin, created_at FROM users
        WHERE email = $1 AND password_hash = $2`

	return r.scanOne(r.db.QueryRowContext(ctx, query, email, passwordHash))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return user, nil
}

// DeleteByEmail resolves the target, counts remaining admins and deletes,
// all inside one transaction so concurrent deletes cannot drop the admin
// count to zero.
func (r *PostgresRepository) DeleteByEmail(ctx context.Context, email string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {

		var id string
		var isAdmin bool
		err := tx.QueryRowContext(ctx,
			`SELECT id, is_admin FROM users WHERE email = $1 FOR UPDATE`, email).
			Scan(&id, &isAdmin)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrUserNotFound
			}
			return fmt.Errorf("error performing sql request: %w", err)
		}

		if isAdmin {
			var admins int64
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM users WHERE is_admin`).Scan(&admins)
			if err != nil {
				return fmt.Errorf("error performing sql request: %w", err)
			}
			if admins <= 1 {
				return common.ErrCannotDeleteLastAdmin
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) EmailsByRole(ctx context.Context, isAdmin bool) ([]string, error) {
	query := `SELECT email FROM users WHERE is_admin = $1 ORDER BY email`

	rows, err := r.db.QueryContext(ctx, query, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return emails, nil
}
