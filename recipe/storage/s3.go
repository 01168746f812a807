package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"recipebook"
)

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Bridge stores each key as an object under bucket/prefix.
type S3Bridge struct {
	bucket string
	prefix string
	s3     s3API
}

// NewS3Bridge stores each key as an object under prefix in bucket.
func NewS3Bridge(s3Client s3API, bucket, prefix string) *S3Bridge {
	return &S3Bridge{
		bucket: bucket,
		prefix: prefix,
		s3:     s3Client,
	}
}

// ObjectKey returns the object key the blob for key is stored under.
func (b *S3Bridge) ObjectKey(key string) string { return b.prefix + key }

func (b *S3Bridge) Load(ctx context.Context, key string) ([]byte, error) {
	resp, err := b.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.ObjectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, recipebook.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to get recipe object from S3: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe object: %w", err)
	}
	return data, nil
}

func (b *S3Bridge) Save(ctx context.Context, key string, blob []byte) error {
	_, err := b.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.ObjectKey(key)),
		Body:        bytes.NewReader(blob),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put recipe object to S3: %w", err)
	}
	return nil
}

func (b *S3Bridge) Close() error { return nil }
