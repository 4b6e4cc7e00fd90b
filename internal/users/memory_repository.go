package users

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/filemill/internal/common"
)

// MemoryRepository is an in-memory user store for tests and the "memory"
// backend. Safe for concurrent use.
type MemoryRepository struct {
	mu      sync.Mutex
	byEmail map[string]*User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byEmail: make(map[string]*User)}
}

func (r *MemoryRepository) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return common.ErrUserAlreadyExists
	}
	cp := *user
	r.byEmail[user.Email] = &cp
	return nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *MemoryRepository) GetByCredentials(ctx context.Context, email, passwordHash string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	if !ok || user.PasswordHash != passwordHash {
		return nil, common.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *MemoryRepository) DeleteByEmail(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	if !ok {
		return common.ErrUserNotFound
	}
	if user.IsAdmin {
		admins := 0
		for _, u := range r.byEmail {
			if u.IsAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return common.ErrCannotDeleteLastAdmin
		}
	}
	delete(r.byEmail, email)
	return nil
}

func (r *MemoryRepository) EmailsByRole(ctx context.Context, isAdmin bool) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var emails []string
	for _, u := range r.byEmail {
		if u.IsAdmin == isAdmin {
			emails = append(emails, u.Email)
		}
	}
	sort.Strings(emails)
	return emails, nil
}
