// Package s3store implements an AWS S3 object store.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/discochess/blobkeep/objectstore"
)

// Compile-time check that Store implements objectstore.Store.
var _ objectstore.Store = (*Store)(nil)

// Store is an AWS S3 object store bound to one bucket.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	region string
}

type settings struct {
	region   string
	endpoint string
	creds    aws.CredentialsProvider
	client   *s3.Client
	prefix   string
}

// Option configures a Store.
type Option func(*settings) error

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *settings) error {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
		return nil
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *settings) error {
		s.region = region
		return nil
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
// Path-style addressing is used.
func WithEndpoint(endpoint string) Option {
	return func(s *settings) error {
		if endpoint == "" {
			return fmt.Errorf("%w: empty endpoint", objectstore.ErrInvalidConfig)
		}
		s.endpoint = endpoint
		return nil
	}
}

// WithStaticCredentials uses a fixed access key instead of the default
// credential chain.
func WithStaticCredentials(accessKey, secretKey string) Option {
	return func(s *settings) error {
		s.creds = credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
		return nil
	}
}

// WithClient uses a pre-built client. Region, endpoint and credential
// options are ignored.
func WithClient(c *s3.Client) Option {
	return func(s *settings) error {
		s.client = c
		return nil
	}
}

// New creates a new S3 store for bucketName.
// Unless WithClient is given, the AWS configuration is loaded from the
// environment.
func New(ctx context.Context, bucketName string, opts ...Option) (*Store, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("%w: bucket name is required", objectstore.ErrInvalidConfig)
	}

	var cfg settings
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	s := &Store{
		client: cfg.client,
		bucket: bucketName,
		prefix: cfg.prefix,
		region: cfg.region,
	}
	if s.client != nil {
		s.region = s.client.Options().Region
		return s, nil
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.region))
	}
	if cfg.creds != nil {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(cfg.creds))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	s.region = awsCfg.Region
	s.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.endpoint)
			o.UsePathStyle = true
			// S3-compatible services rarely support trailing checksums.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}
	})
	return s, nil
}

// Name returns the bucket name.
func (s *Store) Name() string {
	return s.bucket
}

// Upload creates or overwrites an object.
func (s *Store) Upload(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return classify("uploading object", err)
	}
	return nil
}

// Download opens an object for reading.
func (s *Store) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("object %q: %w: %w", name, objectstore.ErrNotFound, err)
		}
		return nil, classify("reading object", err)
	}
	return result.Body, nil
}

// Exists reports whether an object exists.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		err = classify("probing object", err)
		if errors.Is(err, objectstore.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteIfExists removes an object. S3 reports success for absent keys.
func (s *Store) DeleteIfExists(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return classify("deleting object", err)
	}
	return nil
}

// List yields object names under prefix in lexical order, one page at a time.
func (s *Store) List(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(s.key(prefix)),
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield("", classify("listing objects", err))
				return
			}
			for _, obj := range page.Contents {
				if !yield(strings.TrimPrefix(aws.ToString(obj.Key), s.prefix), nil) {
					return
				}
			}
		}
	}
}

// ContainerProperties checks that the bucket exists.
func (s *Store) ContainerProperties(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return classify("probing bucket", err)
	}
	return nil
}

// CreateContainer creates the bucket in the store's region.
func (s *Store) CreateContainer(ctx context.Context) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	_, err := s.client.CreateBucket(ctx, input)
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return classify("creating bucket", err)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	// S3 client doesn't need explicit closing.
	return nil
}

// key returns the full object key for name.
func (s *Store) key(name string) string {
	return s.prefix + name
}

// classify wraps err with the objectstore sentinel matching its API error
// code or HTTP status.
func classify(action string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return fmt.Errorf("%s: %w: %w", action, objectstore.ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%s: %w: %w", action, objectstore.ErrForbidden, err)
		}
	}

	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", action, objectstore.ErrNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%s: %w: %w", action, objectstore.ErrForbidden, err)
		}
	}

	return fmt.Errorf("%s: %w", action, err)
}
