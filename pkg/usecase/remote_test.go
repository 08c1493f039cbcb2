package usecase_test

import (
	"context"
	"encoding/base64"
	"errors"
	"path"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
	"github.com/secmon-lab/wrongbook/pkg/repository/memory"
	"github.com/secmon-lab/wrongbook/pkg/service/blob"
	"github.com/secmon-lab/wrongbook/pkg/usecase"
)

const testUser = "user-1"

func inlineImage(size int) string {
	raw := make([]byte, size)
	for i := range raw {
		raw[i] = byte(i % 251)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
}

func newRecord(image string) *model.Mistake {
	return model.NewMistake(image, "solve x+1=2", types.SubjectMath)
}

type remoteFixture struct {
	docs   *memory.DocumentStore
	blobs  *blob.Memory
	remote *usecase.RemoteStore
}

func newRemoteFixture(opts ...usecase.RemoteOption) *remoteFixture {
	docs := memory.NewDocumentStore()
	blobs := blob.NewMemory()
	opts = append([]usecase.RemoteOption{usecase.WithBlobStore(blobs)}, opts...)
	return &remoteFixture{
		docs:   docs,
		blobs:  blobs,
		remote: usecase.NewRemoteStore(docs, opts...),
	}
}

func TestRemoteCreateUploadsInlineImage(t *testing.T) {
	f := newRemoteFixture()
	ctx := context.Background()
	image := inlineImage(128)

	created, err := f.remote.Create(ctx, testUser, newRecord(image))
	gt.NoError(t, err).Required()

	gt.B(t, model.IsRemoteImage(created.ImageURL)).True()
	objPath, ok := f.blobs.Path(created.ImageURL)
	gt.B(t, ok).True()
	gt.String(t, objPath).HasPrefix("users/" + testUser + "/images/")
	gt.Value(t, created.ImageBase64).Equal(image)

	data, contentType, ok := f.blobs.Object(created.ImageURL)
	gt.B(t, ok).True()
	gt.Value(t, contentType).Equal("image/png")
	gt.Value(t, len(data)).Equal(128)

	stored, ok := f.docs.Stored(testUser, created.ID)
	gt.B(t, ok).True()
	gt.Value(t, stored.ImageURL).Equal(created.ImageURL)
	gt.Value(t, stored.ImageBase64).Equal(image)
}

func TestRemoteCreateFallsBackInline(t *testing.T) {
	f := newRemoteFixture()
	f.blobs.FailUpload(errors.New("bucket unavailable"))
	ctx := context.Background()
	image := inlineImage(128)

	created, err := f.remote.Create(ctx, testUser, newRecord(image))
	gt.NoError(t, err).Required()
	gt.Value(t, created.ImageURL).Equal(image)
	gt.Value(t, created.ImageBase64).Equal("")

	stored, ok := f.docs.Stored(testUser, created.ID)
	gt.B(t, ok).True()
	gt.Value(t, stored.ImageURL).Equal(image)
}

func TestRemoteCreateRejectsOversizedFallback(t *testing.T) {
	f := newRemoteFixture(usecase.WithInlineCeiling(256))
	f.blobs.FailUpload(errors.New("bucket unavailable"))
	ctx := context.Background()
	record := newRecord(inlineImage(1024))

	_, err := f.remote.Create(ctx, testUser, record)
	gt.Error(t, err).Is(model.ErrImageTooLargeForFallback)

	_, ok := f.docs.Stored(testUser, record.ID)
	gt.B(t, ok).False()

	list, err := f.remote.ListAll(ctx, testUser)
	gt.NoError(t, err).Required()
	gt.Array(t, list).Length(0)
}

func TestRemoteCreateOversizedUploadSkipsBackup(t *testing.T) {
	f := newRemoteFixture(usecase.WithInlineCeiling(256))
	ctx := context.Background()

	created, err := f.remote.Create(ctx, testUser, newRecord(inlineImage(1024)))
	gt.NoError(t, err).Required()
	gt.B(t, model.IsRemoteImage(created.ImageURL)).True()
	gt.Value(t, created.ImageBase64).Equal("")
}

func TestRemoteCreateUploadTimeout(t *testing.T) {
	f := newRemoteFixture(usecase.WithUploadTimeout(20 * time.Millisecond))
	f.blobs.DelayUpload(time.Hour)
	ctx := context.Background()
	image := inlineImage(64)

	start := time.Now()
	created, err := f.remote.Create(ctx, testUser, newRecord(image))
	gt.NoError(t, err).Required()
	gt.B(t, time.Since(start) < 5*time.Second).True()
	gt.Value(t, created.ImageURL).Equal(image)
	gt.Value(t, f.blobs.Len()).Equal(0)
}

func TestRemoteCreatePassesResolvedURL(t *testing.T) {
	f := newRemoteFixture()
	ctx := context.Background()
	url := "https://storage.googleapis.com/bucket/users/user-1/images/1_abc.jpg"

	created, err := f.remote.Create(ctx, testUser, newRecord(url))
	gt.NoError(t, err).Required()
	gt.Value(t, created.ImageURL).Equal(url)
	gt.Value(t, f.blobs.Uploads()).Equal(0)
}

func TestRemoteCreateIsRetrySafe(t *testing.T) {
	f := newRemoteFixture()
	ctx := context.Background()
	record := newRecord("https://example.com/q.jpg")

	_, err := f.remote.Create(ctx, testUser, record)
	gt.NoError(t, err).Required()
	_, err = f.remote.Create(ctx, testUser, record)
	gt.NoError(t, err).Required()

	list, err := f.remote.ListAll(ctx, testUser)
	gt.NoError(t, err).Required()
	gt.Array(t, list).Length(1)
}

func TestRemoteUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("plain update merges and keeps the backup", func(t *testing.T) {
		f := newRemoteFixture()
		image := inlineImage(64)
		created, err := f.remote.Create(ctx, testUser, newRecord(image))
		gt.NoError(t, err).Required()

		update := created.Clone()
		update.ImageBase64 = ""
		update.Mastery = types.MasteryReviewing
		_, err = f.remote.Update(ctx, testUser, update)
		gt.NoError(t, err).Required()

		stored, ok := f.docs.Stored(testUser, created.ID)
		gt.B(t, ok).True()
		gt.Value(t, stored.Mastery).Equal(types.MasteryReviewing)
		gt.Value(t, stored.ImageBase64).Equal(image)
		gt.Value(t, f.blobs.Uploads()).Equal(1)
	})

	t.Run("new inline image is uploaded and replaces the backup", func(t *testing.T) {
		f := newRemoteFixture()
		created, err := f.remote.Create(ctx, testUser, newRecord(inlineImage(64)))
		gt.NoError(t, err).Required()

		replacement := inlineImage(96)
		update := created.Clone()
		update.ImageURL = replacement
		updated, err := f.remote.Update(ctx, testUser, update)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.ImageBase64).Equal(replacement)
		gt.Value(t, updated.ImageURL).NotEqual(created.ImageURL)
		gt.Value(t, f.blobs.Uploads()).Equal(2)
	})

	t.Run("fallback on update drops the stale backup", func(t *testing.T) {
		f := newRemoteFixture()
		created, err := f.remote.Create(ctx, testUser, newRecord(inlineImage(64)))
		gt.NoError(t, err).Required()

		f.blobs.FailUpload(errors.New("bucket unavailable"))
		replacement := inlineImage(96)
		update := created.Clone()
		update.ImageURL = replacement
		_, err = f.remote.Update(ctx, testUser, update)
		gt.NoError(t, err).Required()

		stored, ok := f.docs.Stored(testUser, created.ID)
		gt.B(t, ok).True()
		gt.Value(t, stored.ImageURL).Equal(replacement)
		gt.Value(t, stored.ImageBase64).Equal("")
		gt.Value(t, stored.InferenceImage()).Equal(replacement)
	})

	t.Run("oversized fallback on update writes nothing", func(t *testing.T) {
		f := newRemoteFixture(usecase.WithInlineCeiling(256))
		created, err := f.remote.Create(ctx, testUser, newRecord("https://example.com/a.jpg"))
		gt.NoError(t, err).Required()

		f.blobs.FailUpload(errors.New("bucket unavailable"))
		update := created.Clone()
		update.ImageURL = inlineImage(1024)
		update.Mastery = types.MasteryMastered
		_, err = f.remote.Update(ctx, testUser, update)
		gt.Error(t, err).Is(model.ErrImageTooLargeForFallback)

		stored, ok := f.docs.Stored(testUser, created.ID)
		gt.B(t, ok).True()
		gt.Value(t, stored.Mastery).Equal(types.MasteryNew)
	})

	t.Run("unchanged inline image is not uploaded again", func(t *testing.T) {
		f := newRemoteFixture(usecase.WithUploadTimeout(time.Second))
		f.blobs.FailUpload(errors.New("bucket unavailable"))
		image := inlineImage(64)
		created, err := f.remote.Create(ctx, testUser, newRecord(image))
		gt.NoError(t, err).Required()
		gt.Value(t, created.ImageURL).Equal(image)
		gt.Value(t, f.blobs.Uploads()).Equal(1)

		f.blobs.FailUpload(nil)
		f.blobs.DelayUpload(time.Hour)
		update := created.Clone()
		update.Mastery = types.MasteryMastered

		start := time.Now()
		updated, err := f.remote.Update(ctx, testUser, update)
		gt.NoError(t, err).Required()
		gt.B(t, time.Since(start) < 500*time.Millisecond).True()
		gt.Value(t, updated.ImageURL).Equal(image)
		gt.Value(t, f.blobs.Uploads()).Equal(1)

		stored, ok := f.docs.Stored(testUser, created.ID)
		gt.B(t, ok).True()
		gt.Value(t, stored.Mastery).Equal(types.MasteryMastered)
		gt.Value(t, stored.ImageURL).Equal(image)
	})

	t.Run("update clears reflection", func(t *testing.T) {
		f := newRemoteFixture()
		record := newRecord(inlineImage(64))
		record.Reflection = "misread the sign"
		record.AISolution = "x=1"
		created, err := f.remote.Create(ctx, testUser, record)
		gt.NoError(t, err).Required()

		update := created.Clone()
		update.Reflection = ""
		update.AISolution = ""
		updated, err := f.remote.Update(ctx, testUser, update)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Reflection).Equal("")

		list, err := f.remote.ListAll(ctx, testUser)
		gt.NoError(t, err).Required()
		gt.Array(t, list).Length(1).Required()
		gt.Value(t, list[0].Reflection).Equal("")
		gt.Value(t, list[0].AISolution).Equal("")
		gt.Value(t, list[0].ImageBase64).Equal(created.ImageBase64)
	})

	t.Run("unknown record is written whole", func(t *testing.T) {
		f := newRemoteFixture()
		record := newRecord(inlineImage(64))

		updated, err := f.remote.Update(ctx, testUser, record)
		gt.NoError(t, err).Required()
		gt.B(t, model.IsRemoteImage(updated.ImageURL)).True()

		_, ok := f.docs.Stored(testUser, record.ID)
		gt.B(t, ok).True()
	})

	t.Run("document write errors propagate", func(t *testing.T) {
		f := newRemoteFixture()
		f.docs.SetWriteFailure(errors.New("permission denied"))

		_, err := f.remote.Update(ctx, testUser, newRecord("https://example.com/a.jpg"))
		gt.Error(t, err)
	})
}

func TestRemoteDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("owned image is deleted", func(t *testing.T) {
		f := newRemoteFixture()
		created, err := f.remote.Create(ctx, testUser, newRecord(inlineImage(64)))
		gt.NoError(t, err).Required()

		cleanup, err := f.remote.Delete(ctx, testUser, created.ID, created.ImageURL)
		gt.NoError(t, err).Required()
		gt.B(t, cleanup.Attempted()).True()
		gt.B(t, cleanup.Failed()).False()
		gt.Value(t, f.blobs.Len()).Equal(0)

		_, ok := f.docs.Stored(testUser, created.ID)
		gt.B(t, ok).False()
	})

	t.Run("blob failure is reported but not returned", func(t *testing.T) {
		f := newRemoteFixture()
		created, err := f.remote.Create(ctx, testUser, newRecord(inlineImage(64)))
		gt.NoError(t, err).Required()

		f.blobs.FailDelete(errors.New("forbidden"))
		cleanup, err := f.remote.Delete(ctx, testUser, created.ID, created.ImageURL)
		gt.NoError(t, err).Required()
		gt.B(t, cleanup.Failed()).True()
		gt.Value(t, cleanup.ImageRef).Equal(created.ImageURL)

		_, ok := f.docs.Stored(testUser, created.ID)
		gt.B(t, ok).False()
	})

	t.Run("another user's image is not touched", func(t *testing.T) {
		f := newRemoteFixture()
		victim, err := f.remote.Create(ctx, "user-b", newRecord(inlineImage(64)))
		gt.NoError(t, err).Required()
		gt.B(t, model.IsRemoteImage(victim.ImageURL)).True()

		cleanup, err := f.remote.Delete(ctx, "user-a", model.NewMistakeID(), victim.ImageURL)
		gt.NoError(t, err).Required()
		gt.B(t, cleanup.Attempted()).False()
		gt.Array(t, f.blobs.Deletes()).Length(0)

		_, _, ok := f.blobs.Object(victim.ImageURL)
		gt.B(t, ok).True()
		_, ok = f.docs.Stored("user-b", victim.ID)
		gt.B(t, ok).True()
	})

	t.Run("paths escaping the user's prefix are not touched", func(t *testing.T) {
		f := newRemoteFixture()
		victim, err := f.remote.Create(ctx, "user-b", newRecord(inlineImage(64)))
		gt.NoError(t, err).Required()

		objPath, ok := f.blobs.Path(victim.ImageURL)
		gt.B(t, ok).True().Required()
		crafted := strings.Replace(victim.ImageURL, objPath, "users/user-a/images/../../user-b/images/"+path.Base(objPath), 1)

		cleanup, err := f.remote.Delete(ctx, "user-a", model.NewMistakeID(), crafted)
		gt.NoError(t, err).Required()
		gt.B(t, cleanup.Attempted()).False()
		gt.Value(t, f.blobs.Len()).Equal(1)
	})

	t.Run("foreign or inline references are not touched", func(t *testing.T) {
		f := newRemoteFixture()
		record := newRecord("https://example.com/a.jpg")
		_, err := f.remote.Create(ctx, testUser, record)
		gt.NoError(t, err).Required()

		cleanup, err := f.remote.Delete(ctx, testUser, record.ID, record.ImageURL)
		gt.NoError(t, err).Required()
		gt.B(t, cleanup.Attempted()).False()

		cleanup, err = f.remote.Delete(ctx, testUser, record.ID, inlineImage(8))
		gt.NoError(t, err).Required()
		gt.B(t, cleanup.Attempted()).False()
		gt.Array(t, f.blobs.Deletes()).Length(0)
	})
}

func TestRemoteImagePath(t *testing.T) {
	remote := usecase.NewRemoteStore(memory.NewDocumentStore(),
		usecase.WithRemoteClock(func() time.Time { return time.UnixMilli(1700000000000) }),
	)

	path := remote.ImagePath("abc")
	gt.B(t, regexp.MustCompile(`^users/abc/images/1700000000000_[0-9a-f]{8}\.jpg$`).MatchString(path)).True()
	gt.B(t, strings.HasPrefix(remote.ImagePath("abc"), "users/abc/")).True()
	gt.Value(t, remote.ImagePath("abc")).NotEqual(path)
}

func TestRemoteWithoutBlobStoreKeepsInline(t *testing.T) {
	docs := memory.NewDocumentStore()
	remote := usecase.NewRemoteStore(docs)
	image := inlineImage(32)

	created, err := remote.Create(context.Background(), testUser, newRecord(image))
	gt.NoError(t, err).Required()
	gt.Value(t, created.ImageURL).Equal(image)
}
