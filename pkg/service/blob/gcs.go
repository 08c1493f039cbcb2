package blob

import (
	"context"
	"errors"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
)

const DefaultGCSBaseURL = "https://storage.googleapis.com"

// GCS stores images in a Cloud Storage bucket
type GCS struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

var _ interfaces.BlobStore = &GCS{}

type GCSOption func(*GCS)

// WithGCSBaseURL changes the public URL prefix, e.g. for a CDN in front of the bucket
func WithGCSBaseURL(baseURL string) GCSOption {
	return func(g *GCS) {
		g.baseURL = baseURL
	}
}

func NewGCS(ctx context.Context, bucket string, opts ...GCSOption) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	g := &GCS{
		client:  client,
		bucket:  bucket,
		baseURL: DefaultGCSBaseURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// bucketURL is the URL prefix of every object in the bucket
func (g *GCS) bucketURL() string {
	return joinURL(g.baseURL, g.bucket)
}

func (g *GCS) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	w := g.client.Bucket(g.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", uploadFailed(err, "failed to write object", path)
	}
	if err := w.Close(); err != nil {
		return "", uploadFailed(err, "failed to finalize object", path)
	}

	return joinURL(g.bucketURL(), path), nil
}

func (g *GCS) Delete(ctx context.Context, ref string) error {
	path, ok := objectPath(g.bucketURL(), ref)
	if !ok {
		return goerr.New("reference is not in the bucket", goerr.V("ref", ref), goerr.V("bucket", g.bucket))
	}

	if err := g.client.Bucket(g.bucket).Object(path).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return goerr.Wrap(err, "failed to delete object", goerr.V("path", path))
	}
	return nil
}

func (g *GCS) Path(ref string) (string, bool) {
	return objectPath(g.bucketURL(), ref)
}

func (g *GCS) Close() error {
	return g.client.Close()
}
