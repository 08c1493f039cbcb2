package blob_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/service/blob"
)

func runBlobStoreTest(t *testing.T, newStore func(t *testing.T) interfaces.BlobStore) {
	t.Helper()

	t.Run("Upload returns an owned URL", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		path := "users/test/images/" + time.Now().Format("20060102150405.000") + "_x.jpg"

		url, err := store.Upload(ctx, path, []byte{0xff, 0xd8, 0xff}, "image/jpeg")
		gt.NoError(t, err).Required()
		gt.B(t, model.IsRemoteImage(url)).True()
		stored, ok := store.Path(url)
		gt.B(t, ok).True()
		gt.Value(t, stored).Equal(path)

		gt.NoError(t, store.Delete(ctx, url))
	})

	t.Run("Path rejects foreign references", func(t *testing.T) {
		store := newStore(t)
		for _, ref := range []string{"https://example.com/a.jpg", "data:image/jpeg;base64,AAAA", ""} {
			_, ok := store.Path(ref)
			gt.B(t, ok).False()
		}
	})
}

func TestMemory(t *testing.T) {
	runBlobStoreTest(t, func(t *testing.T) interfaces.BlobStore {
		return blob.NewMemory()
	})
}

func TestMemoryFaultInjection(t *testing.T) {
	ctx := context.Background()

	t.Run("upload failure wraps the sentinel", func(t *testing.T) {
		store := blob.NewMemory()
		store.FailUpload(errors.New("quota exceeded"))

		_, err := store.Upload(ctx, "a.jpg", []byte("x"), "image/jpeg")
		gt.Error(t, err).Is(model.ErrImageUploadFailed)
		gt.Value(t, store.Len()).Equal(0)
		gt.Value(t, store.Uploads()).Equal(1)
	})

	t.Run("delay honours cancellation", func(t *testing.T) {
		store := blob.NewMemory()
		store.DelayUpload(time.Hour)

		ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err := store.Upload(ctx, "a.jpg", []byte("x"), "image/jpeg")
		gt.Error(t, err).Is(context.DeadlineExceeded)
	})

	t.Run("stored object is readable", func(t *testing.T) {
		store := blob.NewMemory()
		url, err := store.Upload(ctx, "users/u/images/1_a.jpg", []byte("jpeg"), "image/jpeg")
		gt.NoError(t, err).Required()

		data, contentType, ok := store.Object(url)
		gt.B(t, ok).True()
		gt.Value(t, string(data)).Equal("jpeg")
		gt.Value(t, contentType).Equal("image/jpeg")
	})
}

func TestS3URLs(t *testing.T) {
	store, err := blob.NewS3(blob.S3Config{
		Bucket:        "photos",
		Region:        "us-east-1",
		Endpoint:      "http://localhost:9000",
		UsePathStyle:  true,
		PublicBaseURL: "https://cdn.example.com/photos",
	})
	gt.NoError(t, err).Required()

	path, ok := store.Path("https://cdn.example.com/photos/users/u/images/1_a.jpg?v=2")
	gt.B(t, ok).True()
	gt.Value(t, path).Equal("users/u/images/1_a.jpg")

	_, ok = store.Path("https://cdn.example.com/other/1_a.jpg")
	gt.B(t, ok).False()
}

func TestGCS(t *testing.T) {
	bucket := os.Getenv("TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("TEST_GCS_BUCKET not set")
	}

	runBlobStoreTest(t, func(t *testing.T) interfaces.BlobStore {
		store, err := blob.NewGCS(context.Background(), bucket)
		gt.NoError(t, err).Required()
		t.Cleanup(func() {
			gt.NoError(t, store.Close())
		})
		return store
	})
}

func TestS3(t *testing.T) {
	bucket := os.Getenv("TEST_S3_BUCKET")
	if bucket == "" {
		t.Skip("TEST_S3_BUCKET not set")
	}

	runBlobStoreTest(t, func(t *testing.T) interfaces.BlobStore {
		store, err := blob.NewS3(blob.S3Config{
			Bucket:          bucket,
			Region:          os.Getenv("TEST_S3_REGION"),
			Endpoint:        os.Getenv("TEST_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("TEST_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("TEST_S3_SECRET_ACCESS_KEY"),
			UsePathStyle:    os.Getenv("TEST_S3_ENDPOINT") != "",
		})
		gt.NoError(t, err).Required()
		return store
	})
}
