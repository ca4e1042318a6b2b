package objectstore

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
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/lumina-kb/lumina/pkg/logger"
)

// S3Store implements Store on an S3-compatible bucket, using conditional
// puts (If-Match / If-None-Match) as the version-tag write guard.
type S3Store struct {
	bucket string
	cli    *s3.Client
}

func NewS3Store(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{AccessKeyID: accessKey, SecretAccessKey: secretKey},
		}),
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load object store config: %w", err)
	}

	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("object store client initialized",
		zap.String("bucket", bucket),
		zap.String("region", region),
	)

	return &S3Store{bucket: bucket, cli: cli}, nil
}

func (s *S3Store) Get(ctx context.Context, key string) (*Object, error) {
	resp, err := s.cli.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(strings.TrimPrefix(key, "/")),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object %q: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %q: %w", key, err)
	}

	return &Object{Data: data, ETag: aws.ToString(resp.ETag)}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	return s.put(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(strings.TrimPrefix(key, "/")),
		Body:   bytes.NewReader(data),
	})
}

func (s *S3Store) PutIfMatch(ctx context.Context, key string, data []byte, etag string) error {
	return s.put(ctx, &s3.PutObjectInput{
		Bucket:  aws.String(s.bucket),
		Key:     aws.String(strings.TrimPrefix(key, "/")),
		Body:    bytes.NewReader(data),
		IfMatch: aws.String(etag),
	})
}

func (s *S3Store) PutIfAbsent(ctx context.Context, key string, data []byte) error {
	return s.put(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(strings.TrimPrefix(key, "/")),
		Body:        bytes.NewReader(data),
		IfNoneMatch: aws.String("*"),
	})
}

func (s *S3Store) put(ctx context.Context, input *s3.PutObjectInput) error {
	if _, err := s.cli.PutObject(ctx, input); err != nil {
		if isPreconditionFailure(err) {
			return ErrPreconditionFailed
		}
		return fmt.Errorf("failed to put object %q: %w", aws.ToString(input.Key), err)
	}
	return nil
}

func isPreconditionFailure(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}
