package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/filekeeper/internal/common"
)

// s3API is the subset of the S3 client used by S3Bin.
type s3API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Seams for testing the AWS wiring.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Settings configures the cold-storage backend (any S3-compatible service,
// e.g. MinIO).
type S3Settings struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
	// KeyPrefix namespaces archived objects inside the bucket.
	KeyPrefix string
}

// S3Bin archives retired objects into an S3 bucket and removes the live
// copy once the upload is confirmed.
type S3Bin struct {
	client s3API
	live   *LocalStore
	bucket string
	prefix string
}

// NewS3Bin builds an S3-backed bin from static credentials, matching how the
// object-storage backend is provisioned in deployments.
func NewS3Bin(ctx context.Context, live *LocalStore, settings S3Settings) (*S3Bin, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(settings.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			settings.RootUser,
			settings.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if settings.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(settings.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Bin{
		client: client,
		live:   live,
		bucket: settings.Bucket,
		prefix: settings.KeyPrefix,
	}, nil
}

func (b *S3Bin) objectKey(key string) string {
	if b.prefix == "" {
		return key
	}
	return path.Join(b.prefix, key)
}

func (b *S3Bin) Archive(ctx context.Context, key string) error {
	objKey := b.objectKey(key)

	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objKey),
	})
	if err == nil {
		return fmt.Errorf("%w: bin already holds %s", common.ErrorConflict, key)
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("%w: probing bin for %s: %v", common.ErrorStorageIO, key, err)
	}

	f, err := os.Open(b.live.LivePath(key))
	if err != nil {
		return fmt.Errorf("%w: opening live %s: %v", common.ErrorStorageIO, key, err)
	}
	defer f.Close()

	if _, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objKey),
		Body:   f,
	}); err != nil {
		return fmt.Errorf("%w: uploading %s to bin: %v", common.ErrorStorageIO, key, err)
	}

	// Upload confirmed; completing the move means the live copy goes away.
	return b.live.RemoveLive(key)
}
