// Package session implements the per-client identity gate. A Gate holds
// the tri-state {loggedIn, userID, isAdmin} behind one mutex; every
// privileged operation composes RequireLoggedIn/RequireAdmin as a
// precondition. Gates are per logical client connection, never a
// process-wide singleton.
package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/filemill/internal/common"
	"github.com/dmitrijs2005/filemill/internal/users"
)

type Gate struct {
	users *users.Service

	mu       sync.Mutex
	loggedIn bool
	userID   string
	isAdmin  bool
}

func NewGate(us *users.Service) *Gate {
	return &Gate{users: us}
}

// Login resolves the credentials to exactly one account and transitions
// the gate to LoggedIn. The tri-state update is a single critical
// section; concurrent logins/logouts never observe partial state.
func (g *Gate) Login(ctx context.Context, email, password string) error {
	user, err := g.users.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.loggedIn = true
	g.userID = user.ID
	g.isAdmin = user.IsAdmin
	return nil
}

// Logout clears the loggedIn flag. userID and isAdmin are intentionally
// left in place; every gated method checks loggedIn first.
func (g *Gate) Logout() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loggedIn = false
}

// RequireLoggedIn fails with common.ErrNotLoggedIn unless the gate is in
// the LoggedIn state.
func (g *Gate) RequireLoggedIn() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.loggedIn {
		return common.ErrNotLoggedIn
	}
	return nil
}

// RequireAdmin fails with common.ErrNotLoggedIn for logged-out sessions
// and common.ErrNotAdmin for non-admin ones, so being logged out never
// reports as "not admin".
func (g *Gate) RequireAdmin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.loggedIn {
		return common.ErrNotLoggedIn
	}
	if !g.isAdmin {
		return common.ErrNotAdmin
	}
	return nil
}

// UserID returns the identity of the last login. Only meaningful after
// RequireLoggedIn succeeded.
func (g *Gate) UserID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.userID
}

// IsAdmin reports whether the last login was an admin.
func (g *Gate) IsAdmin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isAdmin
}
