// Package common defines the sentinel errors shared across Filemill
// components. Callers should use errors.Is to match these values; no
// two kinds are ever merged, since clients branch on kind.
package common

import "errors"

var (
	// validation errors, raised before any storage access
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidPassword = errors.New("invalid password")

	// session gate errors
	ErrNotLoggedIn = errors.New("not logged in")
	ErrNotAdmin    = errors.New("not admin")

	// user directory errors
	ErrUserNotFound          = errors.New("user not found")
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrCannotDeleteLastAdmin = errors.New("cannot delete last admin")

	// file repository errors
	ErrFileAlreadyExists = errors.New("file already exists")
	ErrFileNotFound      = errors.New("file not found")
	ErrNotOwned          = errors.New("file not owned by caller")

	// tool registry errors
	ErrToolNotFound = errors.New("tool not found")

	// backing store errors (unprovisioned container/queue/table)
	ErrContainerMissing = errors.New("container or queue does not exist")

	// processing errors
	ErrProcessingTimeout = errors.New("processing timed out")

	// generic internal flow control
	ErrInternal = errors.New("internal error")

	// auth token errors
	ErrInvalidToken = errors.New("invalid token")
)
