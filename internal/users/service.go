// Package users implements the user directory: account creation and
// deletion, role-partitioned enumeration, and credential resolution.
// Admin gating is composed at the call site via the session gate.
package users

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/filemill/internal/common"
	"github.com/dmitrijs2005/filemill/internal/idgen"
)

const minPasswordLength = 8

type Service struct {
	repo     Repository
	gen      *idgen.Generator
	validate *validator.Validate
}

func NewService(repo Repository, gen *idgen.Generator) *Service {
	return &Service{
		repo:     repo,
		gen:      gen,
		validate: validator.New(),
	}
}

// AddUser validates the credentials, allocates a role-prefixed ID and
// persists the account. Email is a unique key; a duplicate fails with
// common.ErrUserAlreadyExists.
func (s *Service) AddUser(ctx context.Context, email, password string, isAdmin bool) (*User, error) {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidEmail, email)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: at least %d characters required", common.ErrInvalidPassword, minPasswordLength)
	}

	id, err := s.gen.NextID(ctx, isAdmin)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           id,
		Email:        email,
		PasswordHash: HashPassword(email, password),
		IsAdmin:      isAdmin,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the account with the given email. The repository
// refuses to remove the last remaining admin.
func (s *Service) DeleteUser(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrInvalidArgument)
	}
	return s.repo.DeleteByEmail(ctx, email)
}

// Authenticate resolves an account by the (email, digest) pair. Zero
// matches report common.ErrUserNotFound; the digest is never compared in
// application code, only via the pair lookup.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrInvalidArgument)
	}
	return s.repo.GetByCredentials(ctx, email, HashPassword(email, password))
}

// AdminEmails lists every admin account email.
func (s *Service) AdminEmails(ctx context.Context) ([]string, error) {
	return s.repo.EmailsByRole(ctx, true)
}

// CommonEmails lists every non-admin account email.
func (s *Service) CommonEmails(ctx context.Context) ([]string, error) {
	return s.repo.EmailsByRole(ctx, false)
}
