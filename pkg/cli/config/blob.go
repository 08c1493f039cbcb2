package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/service/blob"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Blob holds flags for the image blob store used by the remote store
type Blob struct {
	backend    string
	gcsBucket  string
	gcsBaseURL string
	s3         blob.S3Config
}

func (x *Blob) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "blob-backend",
			Usage:       "Image blob store (gcs, s3, memory). Empty keeps images inline",
			Category:    "Blob store",
			Sources:     cli.EnvVars("WRONGBOOK_BLOB_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket for images",
			Category:    "Blob store",
			Sources:     cli.EnvVars("WRONGBOOK_GCS_BUCKET"),
			Destination: &x.gcsBucket,
		},
		&cli.StringFlag{
			Name:        "gcs-base-url",
			Usage:       "Public URL prefix for Cloud Storage objects",
			Category:    "Blob store",
			Value:       blob.DefaultGCSBaseURL,
			Sources:     cli.EnvVars("WRONGBOOK_GCS_BASE_URL"),
			Destination: &x.gcsBaseURL,
		},
		&cli.StringFlag{
			Name:        "s3-bucket",
			Usage:       "S3 bucket for images",
			Category:    "Blob store",
			Sources:     cli.EnvVars("WRONGBOOK_S3_BUCKET"),
			Destination: &x.s3.Bucket,
		},
		&cli.StringFlag{
			Name:        "s3-region",
			Usage:       "S3 region",
			Category:    "Blob store",
			Sources:     cli.EnvVars("WRONGBOOK_S3_REGION"),
			Destination: &x.s3.Region,
		},
		&cli.StringFlag{
			Name:        "s3-endpoint",
			Usage:       "S3-compatible endpoint (empty for AWS)",
			Category:    "Blob store",
			Sources:     cli.EnvVars("WRONGBOOK_S3_ENDPOINT"),
			Destination: &x.s3.Endpoint,
		},
		&cli.StringFlag{
			Name:        "s3-access-key-id",
			Usage:       "S3 access key ID",
			Category:    "Blob store",
			Sources:     cli.EnvVars("WRONGBOOK_S3_ACCESS_KEY_ID"),
			Destination: &x.s3.AccessKeyID,
		},
		&cli.StringFlag{
			Name:        "s3-secret-access-key",
			Usage:       "S3 secret access key",
			Category:    "Blob store",
			Sources:     cli.EnvVars("WRONGBOOK_S3_SECRET_ACCESS_KEY"),
			Destination: &x.s3.SecretAccessKey,
		},
		&cli.BoolFlag{
			Name:        "s3-path-style",
			Usage:       "Use path-style addressing",
			Category:    "Blob store",
			Sources:     cli.EnvVars("WRONGBOOK_S3_PATH_STYLE"),
			Destination: &x.s3.UsePathStyle,
		},
		&cli.StringFlag{
			Name:        "s3-public-base-url",
			Usage:       "Public URL prefix for S3 objects",
			Category:    "Blob store",
			Sources:     cli.EnvVars("WRONGBOOK_S3_PUBLIC_BASE_URL"),
			Destination: &x.s3.PublicBaseURL,
		},
	}
}

func (x Blob) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("gcs_bucket", x.gcsBucket),
		slog.String("s3_bucket", x.s3.Bucket),
		slog.String("s3_endpoint", x.s3.Endpoint),
	)
}

// Configure returns nil when no blob backend is selected. The closer
// releases the underlying client.
func (x *Blob) Configure(ctx context.Context) (interfaces.BlobStore, func(), error) {
	noop := func() {}

	switch x.backend {
	case "":
		return nil, noop, nil

	case "gcs":
		if x.gcsBucket == "" {
			return nil, nil, goerr.Wrap(ErrMissingArgument, "gcs-bucket is required when using gcs backend")
		}
		store, err := blob.NewGCS(ctx, x.gcsBucket, blob.WithGCSBaseURL(x.gcsBaseURL))
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize gcs blob store")
		}
		logging.Default().Info("Using Cloud Storage blob store", "bucket", x.gcsBucket)
		return store, func() {
			if err := store.Close(); err != nil {
				logging.Default().Error("failed to close gcs client", "error", err)
			}
		}, nil

	case "s3":
		if x.s3.Bucket == "" {
			return nil, nil, goerr.Wrap(ErrMissingArgument, "s3-bucket is required when using s3 backend")
		}
		store, err := blob.NewS3(x.s3)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize s3 blob store")
		}
		logging.Default().Info("Using S3 blob store", "bucket", x.s3.Bucket, "endpoint", x.s3.Endpoint)
		return store, noop, nil

	case "memory":
		logging.Default().Info("Using in-memory blob store (development mode)")
		return blob.NewMemory(), noop, nil

	default:
		return nil, nil, goerr.Wrap(ErrUnknownBackend, "invalid blob backend", goerr.V(BackendKey, x.backend))
	}
}
