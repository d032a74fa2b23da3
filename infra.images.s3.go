package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

var _ ImageStore = (*s3ImageStore)(nil)

// s3Client is the subset of the s3 api used by the image store.
type s3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3ImageStore saves uploaded images as objects of a single bucket.
type s3ImageStore struct {
	logger *zap.Logger
	client s3Client
	bucket string
}

// GetS3Client provides a s3 client. A custom endpoint switches to
// path-style addressing to support s3 compatible servers.
func GetS3Client(ctx context.Context, config *S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	if config.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3ImageStore provides a s3-based image store.
func NewS3ImageStore(logger *zap.Logger, client s3Client, bucket string) ImageStore {
	return &s3ImageStore{logger: logger, client: client, bucket: bucket}
}

// Save uploads the image content as an object named after the image.
func (ss *s3ImageStore) Save(ctx context.Context, name string, content io.Reader) error {
	if !IsSafeImageName(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(name),
		Body:   content,
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := ss.client.PutObject(ctx, input); err != nil {
		ss.logger.Error("failed to upload image to s3", zap.String("image.name", name), zap.Error(err))
		return err
	}
	return nil
}

// Open downloads the object named after the image. The caller must close it.
func (ss *s3ImageStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !IsSafeImageName(name) {
		return nil, ErrImageNotFound
	}
	output, err := ss.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(name),
	})
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	return output.Body, nil
}

// Remove deletes the object named after the image.
func (ss *s3ImageStore) Remove(ctx context.Context, name string) error {
	if !IsSafeImageName(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	_, err := ss.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		ss.logger.Error("failed to delete image from s3", zap.String("image.name", name), zap.Error(err))
	}
	return err
}
