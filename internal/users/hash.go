package users

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	hashIterations = 4096
	hashKeyLength  = 32
)

// HashPassword derives the stored password digest. The salt is the
// normalized email, which keeps the digest deterministic so login can
// resolve a user by the (email, digest) pair in a single lookup.
func HashPassword(email, password string) string {
	salt := []byte(strings.ToLower(strings.TrimSpace(email)))
	key := pbkdf2.Key([]byte(password), salt, hashIterations, hashKeyLength, sha256.New)
	return hex.EncodeToString(key)
}
