package blob

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
)

// S3Config describes an S3-compatible bucket
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // empty for AWS
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	// PublicBaseURL is the URL prefix objects are served from
	PublicBaseURL string
}

// S3 stores images in an S3-compatible bucket
type S3 struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

var _ interfaces.BlobStore = &S3{}

func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, goerr.New("bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}

	awsCfg := aws.Config{
		Region: cfg.Region,
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		switch {
		case cfg.Endpoint != "":
			baseURL = joinURL(cfg.Endpoint, cfg.Bucket)
		default:
			baseURL = "https://" + cfg.Bucket + ".s3." + cfg.Region + ".amazonaws.com"
		}
	}

	return &S3{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
	}, nil
}

func (s *S3) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", uploadFailed(err, "failed to put object", path)
	}
	return joinURL(s.baseURL, path), nil
}

func (s *S3) Delete(ctx context.Context, ref string) error {
	path, ok := objectPath(s.baseURL, ref)
	if !ok {
		return goerr.New("reference is not in the bucket", goerr.V("ref", ref), goerr.V("bucket", s.bucket))
	}

	input := &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}
	if _, err := s.client.DeleteObject(ctx, input); err != nil {
		return goerr.Wrap(err, "failed to delete object", goerr.V("path", path))
	}
	return nil
}

func (s *S3) Path(ref string) (string, bool) {
	return objectPath(s.baseURL, ref)
}
