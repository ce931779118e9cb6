package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var _ FileStore = (*S3Store)(nil)

// S3API is the subset of *s3.Client used by S3Store. Tests substitute a fake.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Options configures the S3 backend. Endpoint and static credentials are
// optional; when empty the default AWS resolution chain is used.
type S3Options struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string // e.g. http://localhost:9000 for MinIO
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// S3Store keeps files at s3://<bucket>/<prefix>/projects/<projectID>/<name>.
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// loadAWSConfig is a variable so tests can avoid touching the environment.
var loadAWSConfig = config.LoadDefaultConfig

// NewS3Store builds an S3 client from opts.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("storage: s3 bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := loadAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return NewS3StoreWithClient(client, opts.Bucket, opts.Prefix), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(projectID int64, name string) string {
	return path.Join(s.prefix, "projects", strconv.FormatInt(projectID, 10), path.Base(name))
}

// Save uploads r. The SDK needs a seekable body to sign the payload, so
// non-seekable readers are buffered in memory first.
func (s *S3Store) Save(ctx context.Context, projectID int64, name string, r io.Reader) error {
	body, ok := r.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("storage: buffering %s: %w", name, err)
		}
		body = bytes.NewReader(b)
	}

	key := s.key(projectID, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("storage: putting %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Open(ctx context.Context, projectID int64, name string) (io.ReadCloser, error) {
	key := s.key(projectID, name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: getting %s: %w", key, err)
	}
	return out.Body, nil
}

// Remove relies on S3 semantics: deleting a missing key succeeds.
func (s *S3Store) Remove(ctx context.Context, projectID int64, name string) error {
	key := s.key(projectID, name)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: deleting %s: %w", key, err)
	}
	return nil
}
