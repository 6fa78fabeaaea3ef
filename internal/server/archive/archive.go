// Package archive stores JSON snapshots of closed shifts in S3-compatible
// object storage and hands out presigned download links.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/server/config"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

// Seams for tests.
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
	newS3PresignClient    = func(c *s3.Client) *s3.PresignClient { return s3.NewPresignClient(c) }
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store archives shifts and links to archived snapshots.
type Store interface {
	ArchiveShift(ctx context.Context, shift *models.Shift) error
	PresignedURL(ctx context.Context, shift *models.Shift) (string, error)
}

// ShiftKey is the object key of a shift snapshot.
func ShiftKey(shift *models.Shift) string {
	return fmt.Sprintf("shifts/%s/%s.json", shift.ShiftDate, shift.ID)
}

// S3Archiver writes snapshots to one bucket.
type S3Archiver struct {
	client  objectPutter
	presign objectPresigner
	bucket  string
	ttl     time.Duration
	log     logging.Logger
}

// NewS3Archiver builds a client with static credentials against the
// configured endpoint.
func NewS3Archiver(ctx context.Context, cfg *config.Config, log logging.Logger) (*S3Archiver, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Archiver{
		client:  client,
		presign: newS3PresignClient(client),
		bucket:  cfg.S3Bucket,
		ttl:     cfg.S3PresignTTL,
		log:     log.With("module", "archive"),
	}, nil
}

func (a *S3Archiver) ArchiveShift(ctx context.Context, shift *models.Shift) error {
	body, err := json.Marshal(shift)
	if err != nil {
		return fmt.Errorf("encode shift: %w", err)
	}

	key := ShiftKey(shift)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	a.log.Info(ctx, "shift archived", "shift_id", shift.ID, "key", key)
	return nil
}

// PresignedURL returns a time-limited GET link to the shift's snapshot.
// Shifts that are still open have no snapshot.
func (a *S3Archiver) PresignedURL(ctx context.Context, shift *models.Shift) (string, error) {
	if !shift.IsClosed() {
		return "", fmt.Errorf("shift not archived yet: %w", common.ErrorNotFound)
	}

	req, err := a.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(ShiftKey(shift)),
	}, s3.WithPresignExpires(a.ttl))
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}
	return req.URL, nil
}

// Noop is used when no bucket is configured.
type Noop struct{}

func (Noop) ArchiveShift(context.Context, *models.Shift) error { return nil }

func (Noop) PresignedURL(context.Context, *models.Shift) (string, error) {
	return "", fmt.Errorf("archiving disabled: %w", common.ErrorNotFound)
}

// New returns an S3Archiver when a bucket is configured and Noop otherwise.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (Store, error) {
	if cfg.S3Bucket == "" {
		return Noop{}, nil
	}
	return NewS3Archiver(ctx, cfg, log)
}
