// Package s3 archives completed generation runs in an S3 (or S3-compatible)
// bucket using aws-sdk-go-v2.
package s3

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/errors"
)

// Store writes objects to a single bucket.
type Store struct {
	client *s3.Client
	bucket string
	logger logging.Logger
}

// New builds a Store from the storage section.  Static credentials are used
// when both keys are set, otherwise the default AWS credential chain applies.
// A custom endpoint switches to path-style addressing.  optFns are applied
// last and let callers swap the HTTP client.
func New(ctx context.Context, cfg config.StorageConfig, log logging.Logger, optFns ...func(*s3.Options)) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeValidation, "s3 bucket required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	region := cfg.Region
	if region == "" {
		region = config.DefaultStorageRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}, func(o *s3.Options) {
		for _, fn := range optFns {
			fn(o)
		}
	})

	log.Info("s3 archive configured", logging.String("bucket", cfg.Bucket), logging.String("region", region))
	return &Store{client: client, bucket: cfg.Bucket, logger: log.Named("s3")}, nil
}

// Bucket returns the archive bucket name.
func (s *Store) Bucket() string { return s.bucket }

// Put uploads data under key.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" || len(data) == 0 {
		return errors.New(errors.ErrCodeValidation, "object key and data are required")
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorage, "failed to upload %s", key)
	}
	s.logger.Debug("object uploaded", logging.String("key", key), logging.Int("size", len(data)))
	return nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if stderrors.As(err, &nf) {
		return false, nil
	}
	var re *awshttp.ResponseError
	if stderrors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound {
		return false, nil
	}
	return false, errors.Wrapf(err, errors.ErrCodeStorage, "failed to stat %s", key)
}

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "s3 health check failed")
	}
	return nil
}

func (s *Store) Close() error { return nil }

//Personal.AI order the ending
