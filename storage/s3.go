package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// S3Backend implements a state backend using Amazon S3 or compatible services.
// Objects are private; credentials are taken from the URI or, when absent,
// from the default AWS credential chain.
type S3Backend struct {
	client      *s3.S3
	bucketName  string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3Backend creates a new S3 state backend.
func NewS3Backend(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Backend, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if accessKey != "" {
		uri = fmt.Sprintf("s3://%s:***@%s/%s?region=%s", accessKey, bucketName, prefix, region)
	}
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	cfg := aws.Config{
		Region: aws.String(region),
	}

	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		// MinIO and most compatible services only support path-style addressing
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Backend{
		client:      s3.New(sess),
		bucketName:  bucketName,
		prefix:      strings.Trim(prefix, "/"),
		log:         log,
		locationURI: uri,
	}, nil
}

// Fetch retrieves an object from S3 by its key.
// Returns ErrContentNotFound if the object doesn't exist.
func (b *S3Backend) Fetch(ctx context.Context, key interfaces.StateKey) ([]byte, error) {
	start := time.Now()
	objectKey := b.getObjectKey(key)

	result, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isS3NotFound(err) {
			b.log.Debug("State not found in S3",
				slog.String("bucket", b.bucketName),
				slog.String("key", objectKey),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrContentNotFound
		}

		b.log.Error("Failed to get object from S3",
			slog.String("bucket", b.bucketName),
			slog.String("key", objectKey),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("%w: failed to get object from S3: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	b.log.Debug("Fetched state from S3",
		slog.String("bucket", b.bucketName),
		slog.String("key", objectKey),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store uploads data to S3 under key.
func (b *S3Backend) Store(ctx context.Context, key interfaces.StateKey, data []byte) error {
	objectKey := b.getObjectKey(key)

	_, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to upload object to S3: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored state in S3",
		slog.String("bucket", b.bucketName),
		slog.String("key", objectKey))

	return nil
}

// Delete removes the object backing key. S3 treats deleting a missing object as success.
func (b *S3Backend) Delete(ctx context.Context, key interfaces.StateKey) error {
	_, err := b.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(b.getObjectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete object from S3: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

// Available checks if the S3 backend is accessible by attempting to head the bucket.
func (b *S3Backend) Available(ctx context.Context) bool {
	_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucketName),
	})
	if err != nil {
		b.log.Warn("S3 backend unavailable",
			slog.String("bucket", b.bucketName),
			"err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this state backend.
func (b *S3Backend) Name() string {
	return fmt.Sprintf("s3-%s", b.bucketName)
}

// LocationURI returns the URI that identifies this state backend.
func (b *S3Backend) LocationURI() string {
	return b.locationURI
}

func (b *S3Backend) getObjectKey(key interfaces.StateKey) string {
	name := key.String() + ".json"
	if b.prefix == "" {
		return name
	}
	return path.Join(b.prefix, name)
}

func isS3NotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return strings.Contains(err.Error(), "404")
}
