package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// HashTool computes a SHA-256 digest of any file. It declares no
// content types, making it applicable to everything.
type HashTool struct{}

func NewHashTool() *HashTool {
	return &HashTool{}
}

func (t *HashTool) Name() string {
	return "hash"
}

func (t *HashTool) BriefDescription() string {
	return "SHA-256 digest"
}

func (t *HashTool) LongDescription() string {
	return "Computes the SHA-256 digest of the file content and emits it as a lowercase hex string."
}

func (t *HashTool) ProcessableContentTypes() []string {
	return nil
}

func (t *HashTool) ProcessFile(_ context.Context, content []byte, _ string) ([]byte, string, error) {
	sum := sha256.Sum256(content)
	return []byte(hex.EncodeToString(sum[:])), "text/plain", nil
}
