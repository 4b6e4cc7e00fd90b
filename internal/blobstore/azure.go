package blobstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/dmitrijs2005/filemill/internal/common"
	sc "github.com/dmitrijs2005/filemill/internal/config"
)

// AzureStore maps one logical container onto an Azure Blob container of
// the same name.
type AzureStore struct {
	client    *azblob.Client
	container string
	baseURL   string
}

func NewAzureStore(cfg *sc.Config, container string) (*AzureStore, error) {
	if cfg.AzureAccount == "" || cfg.AzureKey == "" {
		return nil, fmt.Errorf("%w: azure account and key are required", common.ErrInvalidArgument)
	}
	credential, err := azblob.NewSharedKeyCredential(cfg.AzureAccount, cfg.AzureKey)
	if err != nil {
		return nil, fmt.Errorf("build shared key credential: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AzureAccount)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}
	return &AzureStore{
		client:    client,
		container: container,
		baseURL:   serviceURL + container + "/",
	}, nil
}

func (a *AzureStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := a.client.UploadBuffer(ctx, a.container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", a.mapError(err)
	}
	return a.URI(key), nil
}

func (a *AzureStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, "", common.ErrFileNotFound
		}
		return nil, "", a.mapError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read blob body: %w", err)
	}
	contentType := ""
	if resp.ContentType != nil {
		contentType = *resp.ContentType
	}
	return data, contentType, nil
}

func (a *AzureStore) Delete(ctx context.Context, key string) (bool, error) {
	_, err := a.client.DeleteBlob(ctx, a.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return false, nil
		}
		return false, a.mapError(err)
	}
	return true, nil
}

func (a *AzureStore) List(ctx context.Context, prefix string) ([]BlobInfo, error) {
	var opts *azblob.ListBlobsFlatOptions
	if prefix != "" {
		opts = &azblob.ListBlobsFlatOptions{Prefix: &prefix}
	}

	var infos []BlobInfo
	pager := a.client.NewListBlobsFlatPager(a.container, opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, a.mapError(err)
		}
		for _, item := range page.Segment.BlobItems {
			info := BlobInfo{Key: *item.Name, URI: a.URI(*item.Name)}
			if item.Properties != nil {
				if item.Properties.ContentLength != nil {
					info.SizeBytes = *item.Properties.ContentLength
				}
				if item.Properties.ContentType != nil {
					info.ContentType = *item.Properties.ContentType
				}
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func (a *AzureStore) URI(key string) string {
	return a.baseURL + key
}

func (a *AzureStore) ParseKey(uri string) (string, error) {
	if !strings.HasPrefix(uri, a.baseURL) {
		return "", fmt.Errorf("%w: uri %q is outside container %q", common.ErrInvalidArgument, uri, a.container)
	}
	key := strings.TrimPrefix(uri, a.baseURL)
	if key == "" {
		return "", fmt.Errorf("%w: empty blob key", common.ErrInvalidArgument)
	}
	return key, nil
}

func (a *AzureStore) mapError(err error) error {
	if bloberror.HasCode(err, bloberror.ContainerNotFound) {
		return fmt.Errorf("%w: container %q", common.ErrContainerMissing, a.container)
	}
	return err
}
