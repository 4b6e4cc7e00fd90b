package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/filemill/internal/common"
	sc "github.com/dmitrijs2005/filemill/internal/config"
)

// S3Store keeps blobs of one logical container under a shared bucket,
// prefixing every key with the container name.
type S3Store struct {
	client    *s3.Client
	bucket    string
	container string
	baseURL   string
}

func NewS3Store(ctx context.Context, cfg *sc.Config, container string) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,     // MINIO_ROOT_USER
			cfg.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	baseURL := strings.TrimRight(cfg.S3BaseEndpoint, "/") + "/" + cfg.S3Bucket + "/" + container + "/"

	return &S3Store{client: client, bucket: cfg.S3Bucket, container: container, baseURL: baseURL}, nil
}

func (s *S3Store) objectKey(key string) string {
	return s.container + "/" + key
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", s.mapError(err)
	}
	return s.URI(key), nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, "", common.ErrFileNotFound
		}
		return nil, "", s.mapError(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read object body: %w", err)
	}
	return data, aws.ToString(out.ContentType), nil
}

func (s *S3Store) Delete(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, s.mapError(err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return false, s.mapError(err)
	}
	return true, nil
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]BlobInfo, error) {
	fullPrefix := s.container + "/"
	if prefix != "" {
		fullPrefix += prefix
	}

	var infos []BlobInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.mapError(err)
		}
		for _, obj := range page.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), s.container+"/")

			// S3 listings do not carry content types, so fetch per object.
			head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			})
			contentType := ""
			if err == nil {
				contentType = aws.ToString(head.ContentType)
			}

			infos = append(infos, BlobInfo{
				Key:         key,
				URI:         s.URI(key),
				ContentType: contentType,
				SizeBytes:   aws.ToInt64(obj.Size),
			})
		}
	}
	return infos, nil
}

func (s *S3Store) URI(key string) string {
	return s.baseURL + key
}

func (s *S3Store) ParseKey(uri string) (string, error) {
	if !strings.HasPrefix(uri, s.baseURL) {
		return "", fmt.Errorf("%w: uri %q is outside container %q", common.ErrInvalidArgument, uri, s.container)
	}
	key := strings.TrimPrefix(uri, s.baseURL)
	if key == "" {
		return "", fmt.Errorf("%w: empty blob key", common.ErrInvalidArgument)
	}
	return key, nil
}

func (s *S3Store) mapError(err error) error {
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return fmt.Errorf("%w: bucket %q", common.ErrContainerMissing, s.bucket)
	}
	return err
}
