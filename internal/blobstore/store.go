// Package blobstore provides a minimal facade over a flat blob container.
// A Store instance is bound to one named container; "folders" are just
// /-delimited key prefixes, ownership is encoded in the first key segment.
package blobstore

import "context"

// BlobInfo describes one stored blob as returned by List.
type BlobInfo struct {
	Key         string
	URI         string
	ContentType string
	SizeBytes   int64
}

// Store is the contract the core consumes. Implementations exist for
// S3-compatible services, Azure Blob Storage and an in-memory test double.
type Store interface {
	// Put uploads data under key and returns the blob's resolved URI.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)

	// Get downloads a blob, returning its content and content type.
	Get(ctx context.Context, key string) ([]byte, string, error)

	// Delete removes a blob. Returns false when no such blob existed.
	Delete(ctx context.Context, key string) (bool, error)

	// List enumerates blobs whose key starts with prefix. An empty prefix
	// lists the whole container. Order is unspecified.
	List(ctx context.Context, prefix string) ([]BlobInfo, error)

	// URI resolves a key to the absolute address Put would return.
	URI(key string) string

	// ParseKey is the inverse of URI. It fails when uri does not address
	// this container.
	ParseKey(uri string) (string, error)
}
