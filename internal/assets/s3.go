package assets

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Syncer mirrors scenario database objects from an S3 bucket (or a
// compatible API) into the local asset directory at startup.
type S3Syncer struct {
	client     *s3.Client
	downloader *manager.Downloader
}

func NewS3Syncer(client *s3.Client) *S3Syncer {
	return &S3Syncer{
		client:     client,
		downloader: manager.NewDownloader(client),
	}
}

// Sync downloads every ".db" object under the prefix into destDir, flattening
// the key to its base name. Returns the number of assets fetched.
func (s *S3Syncer) Sync(ctx context.Context, bucket, prefix, destDir string) (int, error) {
	if bucket == "" {
		return 0, fmt.Errorf("storage bucket is required")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("create asset dir: %w", err)
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if strings.TrimSpace(prefix) != "" {
		input.Prefix = aws.String(prefix)
	}

	fetched := 0
	for {
		output, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return fetched, fmt.Errorf("list scenario objects: %w", err)
		}

		for _, obj := range output.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".db") {
				continue
			}
			if err := s.fetch(ctx, bucket, key, destDir); err != nil {
				return fetched, err
			}
			fetched++
		}

		if !aws.ToBool(output.IsTruncated) || output.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = output.NextContinuationToken
	}

	return fetched, nil
}

func (s *S3Syncer) fetch(ctx context.Context, bucket, key, destDir string) error {
	name := path.Base(key)
	dest := filepath.Join(destDir, name)

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create asset file %s: %w", dest, err)
	}

	_, err = s.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	if closeErr != nil {
		return fmt.Errorf("close asset file %s: %w", dest, closeErr)
	}
	return nil
}
