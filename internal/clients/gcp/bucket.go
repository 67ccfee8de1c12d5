package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"

	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/platform/envutil"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
)

// BucketArchiver writes classified documents to a GCS bucket keyed by
// country/type/schema so reviewers can inspect the evidence behind a
// generated schema.
type BucketArchiver struct {
	log     *logger.Logger
	client  *storage.Client
	bucket  string
	timeout time.Duration
}

// NewBucketArchiverFromEnv returns nil when ARCHIVE_BUCKET is unset, which
// disables archival.
func NewBucketArchiverFromEnv(log *logger.Logger) (*BucketArchiver, error) {
	bucket := envutil.Str("ARCHIVE_BUCKET", "")
	if bucket == "" {
		return nil, nil
	}
	client, err := storage.NewClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &BucketArchiver{
		log:     log.With("client", "BucketArchiver"),
		client:  client,
		bucket:  bucket,
		timeout: envutil.Duration("ARCHIVE_TIMEOUT", 30*time.Second),
	}, nil
}

func (a *BucketArchiver) Archive(ctx context.Context, key string, doc domain.Document) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(key).NewWriter(ctx)
	w.ContentType = doc.MimeType
	if _, err := io.Copy(w, bytes.NewReader(doc.Data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("archive write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("archive close %s: %w", key, err)
	}
	a.log.Debug("document archived", "bucket", a.bucket, "key", key, "bytes", len(doc.Data))
	return nil
}

func (a *BucketArchiver) Close() error {
	if a == nil || a.client == nil {
		return nil
	}
	return a.client.Close()
}
