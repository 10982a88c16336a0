package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	apperrors "github.com/jorgepascosoto/mysql-snapshot/internal/errors"
)

// Credentials identifies an R2 (S3-compatible) account and bucket.
type Credentials struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

type R2Client struct {
	client *s3.Client
	bucket string
	prefix string
}

type SnapshotObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

func NewR2Client(ctx context.Context, creds Credentials, prefix string) (*R2Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID,
			creds.SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", creds.AccountID))
		o.UsePathStyle = true
	})

	return &R2Client{
		client: client,
		bucket: creds.Bucket,
		prefix: prefix,
	}, nil
}

// UploadFile streams the dump file at path into the bucket under the
// client's prefix and the file's base name. Returns the full object key.
func (c *R2Client) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperrors.NewStorageError("upload", c.bucket, path, err)
	}
	defer f.Close()

	key := c.prefix + filepath.Base(path)

	// The upload manager handles retries and multipart for large dumps.
	uploader := manager.NewUploader(c.client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", apperrors.NewStorageError("upload", c.bucket, key, err)
	}
	return key, nil
}

func (c *R2Client) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.NewStorageError("delete", c.bucket, key, err)
	}
	return nil
}

// ListSnapshots returns the stored snapshots under the client's prefix,
// newest first.
func (c *R2Client) ListSnapshots(ctx context.Context) ([]SnapshotObject, error) {
	var snapshots []SnapshotObject

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(c.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.NewStorageError("list", c.bucket, c.prefix, err)
		}
		for _, obj := range page.Contents {
			snapshots = append(snapshots, SnapshotObject{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].LastModified.After(snapshots[j].LastModified)
	})

	return snapshots, nil
}

func (c *R2Client) Bucket() string {
	return c.bucket
}

func (c *R2Client) Prefix() string {
	return c.prefix
}
