package blobstore

import (
	"context"
	"fmt"

	sc "github.com/dmitrijs2005/filemill/internal/config"
)

// NewFromConfig instantiates the Store implementation selected by
// cfg.BlobBackend, bound to the given container.
func NewFromConfig(ctx context.Context, cfg *sc.Config, container string) (Store, error) {
	switch cfg.BlobBackend {
	case "s3":
		return NewS3Store(ctx, cfg, container)
	case "azure":
		return NewAzureStore(cfg, container)
	case "memory":
		return NewMemoryStore(container), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
