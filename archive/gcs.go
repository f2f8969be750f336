package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"kitai/config"
	"kitai/models"
)

// Bucket copies generated resumes to Cloud Storage as one JSON object each,
// named <prefix>/<organization>/<request id>.json.
type Bucket struct {
	client *storage.Client
	bucket string
	prefix string

	newWriter func(ctx context.Context, object string) io.WriteCloser
	onStored  func(ctx context.Context, id int64) error
}

// New opens a storage client for cfg.Archive. It returns nil, nil when no
// bucket is configured.
func New(ctx context.Context, cfg *config.Config, onStored func(ctx context.Context, id int64) error) (*Bucket, error) {
	if cfg.Archive.Bucket == "" {
		return nil, nil
	}

	var opts []option.ClientOption
	if cfg.Archive.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Archive.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	b := &Bucket{
		client:   client,
		bucket:   cfg.Archive.Bucket,
		prefix:   strings.Trim(cfg.Archive.Prefix, "/"),
		onStored: onStored,
	}
	b.newWriter = func(ctx context.Context, object string) io.WriteCloser {
		w := b.client.Bucket(b.bucket).Object(object).NewWriter(ctx)
		w.ContentType = "application/json"
		return w
	}
	return b, nil
}

// ObjectName returns where record is stored inside the bucket.
func (b *Bucket) ObjectName(record *models.ResumeRecord) string {
	return path.Join(b.prefix, record.OrganizationID, record.RequestID+".json")
}

// Archive writes record and, when the write succeeds, notifies onStored.
func (b *Bucket) Archive(ctx context.Context, record *models.ResumeRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling resume: %w", err)
	}

	writer := b.newWriter(ctx, b.ObjectName(record))
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("writing object data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing object writer: %w", err)
	}

	if b.onStored != nil && record.ID != 0 {
		return b.onStored(ctx, record.ID)
	}
	return nil
}

// Close releases the storage client.
func (b *Bucket) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}
