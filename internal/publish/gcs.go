package publish

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
)

// GCSPublisher writes objects to a Google Cloud Storage bucket using
// application default credentials.
type GCSPublisher struct {
	client *storage.Client
	bucket string
}

// NewGCSPublisher creates a storage client for bucket.
func NewGCSPublisher(ctx context.Context, bucket string) (*GCSPublisher, error) {
	if bucket == "" {
		return nil, errors.New("publish bucket is empty")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSPublisher{client: client, bucket: bucket}, nil
}

// Publish implements Publisher.
func (g *GCSPublisher) Publish(ctx context.Context, name string, data []byte, contentType string) error {
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", g.bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", g.bucket, name, err)
	}
	return nil
}

// URI returns the gs:// URI of an object in the bucket.
func (g *GCSPublisher) URI(name string) string {
	return fmt.Sprintf("gs://%s/%s", g.bucket, name)
}

// Close releases the storage client.
func (g *GCSPublisher) Close() error {
	return g.client.Close()
}
