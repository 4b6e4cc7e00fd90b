package users

import "time"

// User is one identity record. The ID is role-prefixed and fixed-width
// ("a…" for admins, "u…" for common users); it doubles as the first
// segment of every blob key the user owns.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}
