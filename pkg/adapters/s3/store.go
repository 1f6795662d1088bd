package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	backend "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// API is the subset of the S3 client the store uses. *s3.Client satisfies it.
type API interface {
	PutObject(ctx context.Context, in *backend.PutObjectInput, optFns ...func(*backend.Options)) (*backend.PutObjectOutput, error)
	GetObject(ctx context.Context, in *backend.GetObjectInput, optFns ...func(*backend.Options)) (*backend.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *backend.DeleteObjectInput, optFns ...func(*backend.Options)) (*backend.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *backend.ListObjectsV2Input, optFns ...func(*backend.Options)) (*backend.ListObjectsV2Output, error)
}

// Store implements ports.ArtifactStore on an S3 bucket, one object per key.
// S3 PUTs replace objects atomically, so readers never see a partial digest.
type Store struct {
	client API
	bucket string
	prefix string
	now    func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithPrefix sets the object key prefix (e.g. "news/").
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClock overrides the time source used when the backend reports no timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store over an existing client.
func New(client API, bucket string, opts ...Option) *Store {
	s := &Store{client: client, bucket: bucket, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config holds the connection settings for NewFromConfig.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible services
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// NewFromConfig builds an S3 client from static settings.
// Path-style addressing is used when an Endpoint is set.
func NewFromConfig(cfg Config, opts ...Option) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 store: bucket is required")
	}
	awsCfg := aws.Config{Region: cfg.Region}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     cfg.AccessKeyID,
				SecretAccessKey: cfg.SecretAccessKey,
				Source:          "parley",
			}, nil
		}))
	}

	client := backend.NewFromConfig(awsCfg, func(o *backend.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	if cfg.Prefix != "" {
		opts = append([]Option{WithPrefix(cfg.Prefix)}, opts...)
	}
	return New(client, cfg.Bucket, opts...), nil
}

func (s *Store) objectKey(key string) string {
	return s.prefix + key + "_summary.md"
}

func (s *Store) location(key string) string {
	return "s3://" + s.bucket + "/" + s.objectKey(key)
}

// Save uploads content, replacing any previous object.
func (s *Store) Save(ctx context.Context, key string, content string) (domain.ArtifactRef, error) {
	if key == "" {
		return domain.ArtifactRef{}, fmt.Errorf("artifact key cannot be empty")
	}
	_, err := s.client.PutObject(ctx, &backend.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/markdown; charset=utf-8"),
	})
	if err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("failed to put object: %w", err)
	}
	return domain.ArtifactRef{Key: key, Location: s.location(key), UpdatedAt: s.now().UTC()}, nil
}

// Load downloads the object for key.
func (s *Store) Load(ctx context.Context, key string) (*domain.Artifact, error) {
	out, err := s.client.GetObject(ctx, &backend.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, &domain.ArtifactNotFoundError{Key: key}
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	updated := s.now().UTC()
	if out.LastModified != nil {
		updated = out.LastModified.UTC()
	}
	return &domain.Artifact{
		Ref:     domain.ArtifactRef{Key: key, Location: s.location(key), UpdatedAt: updated},
		Content: string(data),
	}, nil
}

// Delete removes the object. S3 treats deleting a missing key as success.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &backend.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// List pages through the prefix and returns the artifact keys.
func (s *Store) List(ctx context.Context) ([]string, error) {
	p := backend.NewListObjectsV2Paginator(s.client, &backend.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if strings.Contains(name, "/") || !strings.HasSuffix(name, "_summary.md") {
				continue
			}
			keys = append(keys, strings.TrimSuffix(name, "_summary.md"))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
