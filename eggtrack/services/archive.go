package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wonkyeggs/eggtrack/eggtrack/upstream"
)

// ArchiveService uploads a JSON export of each saved snapshot to a Spaces
// bucket. It is optional infrastructure: upload failures are reported to the
// caller, which logs and moves on.
type ArchiveService struct {
	client      *s3.Client
	bucket      string
	archiveRoot string
}

func NewArchiveService(key, secret, region, bucket, archiveRoot string) (*ArchiveService, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load spaces config: %w", err)
	}

	return &ArchiveService{
		client:      s3.NewFromConfig(cfg),
		bucket:      bucket,
		archiveRoot: strings.Trim(archiveRoot, "/"),
	}, nil
}

// ArchiveSnapshot writes snapshots/<date>.json under the archive root.
func (s *ArchiveService) ArchiveSnapshot(ctx context.Context, snapshotDate string, records []upstream.PlayerRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot export: %w", err)
	}

	key := fmt.Sprintf("snapshots/%s.json", snapshotDate)
	if s.archiveRoot != "" {
		key = s.archiveRoot + "/" + key
	}

	contentType := "application/json"
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(payload),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot archive %s: %w", key, err)
	}

	slog.Info("Snapshot archive uploaded",
		slog.String("type", "sys"),
		slog.String("key", key),
		slog.Int("players", len(records)))
	return nil
}
