package users

import "context"

// Repository is the storage contract for the user directory. Email is a
// unique key; every lookup by email matches at most one record.
type Repository interface {
	// Create persists a new user. Fails with common.ErrUserAlreadyExists
	// when the email is taken.
	Create(ctx context.Context, user *User) error

	// GetByEmail resolves a user by email, common.ErrUserNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByCredentials resolves a user by the (email, digest) pair,
	// common.ErrUserNotFound when no record matches.
	GetByCredentials(ctx context.Context, email, passwordHash string) (*User, error)

	// DeleteByEmail removes the user with the given email atomically,
	// refusing with common.ErrCannotDeleteLastAdmin when the target is the
	// last remaining admin.
	DeleteByEmail(ctx context.Context, email string) error

	// EmailsByRole lists every email with the given admin flag.
	EmailsByRole(ctx context.Context, isAdmin bool) ([]string, error)
}
