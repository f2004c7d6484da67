// Package archive stores expired audit entries in S3-compatible object
// storage before they are purged from the database.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ErrNoBucket is returned by NewS3Archiver when no bucket is configured.
var ErrNoBucket = errors.New("archive: bucket is not configured")

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options describe the archive target. User and Password are static
// credentials (MinIO root user in development); when both are empty the
// default AWS credential chain is used.
type Options struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	User         string
	Password     string
}

// S3Archiver writes audit entries as JSON lines, one object per call, under
// audit/YYYY/MM/DD/<uuid>.jsonl.
type S3Archiver struct {
	bucket string
	client putter
	now    func() time.Time
	newID  func() string
}

func NewS3Archiver(ctx context.Context, o Options) (*S3Archiver, error) {
	if o.Bucket == "" {
		return nil, ErrNoBucket
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.User != "" || o.Password != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.User, o.Password, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(so *s3.Options) {
		if o.BaseEndpoint != "" {
			so.BaseEndpoint = aws.String(o.BaseEndpoint)
			so.UsePathStyle = true
		}
	})

	return newS3Archiver(o.Bucket, client), nil
}

func newS3Archiver(bucket string, c putter) *S3Archiver {
	return &S3Archiver{bucket: bucket, client: c, now: time.Now, newID: uuid.NewString}
}

// Archive uploads entries and returns the object key.
func (a *S3Archiver) Archive(ctx context.Context, entries []*models.AuditEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	body, err := encodeLines(entries)
	if err != nil {
		return "", err
	}

	key := a.key()
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

func (a *S3Archiver) key() string {
	return fmt.Sprintf("audit/%s/%s.jsonl", a.now().UTC().Format("2006/01/02"), a.newID())
}

func encodeLines(entries []*models.AuditEntry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return nil, fmt.Errorf("encode audit entry %s: %w", e.ID, err)
		}
	}
	return buf.Bytes(), nil
}
