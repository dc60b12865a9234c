// Package blob adapts S3-compatible object storage. The adapter enforces no
// size limits and performs no key-uniqueness bookkeeping; callers cap
// payloads and generate collision-resistant keys before uploading.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	appconfig "github.com/sanye891/next-dashboard/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// ErrKeyExists is returned by Upload when the key is already taken
// (uploads never overwrite).
var ErrKeyExists = errors.New("object key already exists")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// UploadOptions carries per-object metadata.
type UploadOptions struct {
	ContentType  string
	CacheControl string
}

// Client wraps the S3 API for the application's buckets.
type Client struct {
	api        *s3.Client
	publicBase string
	timeout    time.Duration
}

// New builds a Client from storage config. A non-empty endpoint points the
// client at an S3-compatible service (e.g. MinIO) instead of AWS.
func New(ctx context.Context, cfg appconfig.StorageConfig) (*Client, error) {
	awscfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := s3.NewFromConfig(awscfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		api:        api,
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		timeout:    timeout,
	}, nil
}

// callCtx caps each remote round-trip so a hung request cannot stall the
// initiating action indefinitely.
func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// Upload stores body under key; existing keys are never overwritten.
func (c *Client) Upload(ctx context.Context, bucket, key string, body io.Reader, opts UploadOptions) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return fmt.Errorf("%w: %s/%s", ErrKeyExists, bucket, key)
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("check key %s/%s: %w", bucket, key, err)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}
	if _, err := c.api.PutObject(ctx, input); err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Download streams the object body. Caller closes the reader.
func (c *Client) Download(ctx context.Context, bucket, key string) (io.ReadCloser, string, int64, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", 0, fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	return out.Body, aws.ToString(out.ContentType), aws.ToInt64(out.ContentLength), nil
}

// List returns objects under prefix.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	out, err := c.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, err)
	}

	infos := make([]ObjectInfo, 0, len(out.Contents))
	for _, obj := range out.Contents {
		infos = append(infos, ObjectInfo{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}
	return infos, nil
}

// Delete removes the given keys in a single request.
func (c *Client) Delete(ctx context.Context, bucket string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(k)})
	}
	_, err := c.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", bucket, err)
	}
	return nil
}

// PublicURL derives the publicly reachable URL for a key.
func (c *Client) PublicURL(bucket, key string) string {
	return c.publicBase + "/" + bucket + "/" + key
}

// NewKey generates a collision-resistant object key preserving the original
// file extension.
func NewKey(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}
