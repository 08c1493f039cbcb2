package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
)

const (
	// DefaultUploadTimeout bounds a single image upload
	DefaultUploadTimeout = 60 * time.Second

	// DefaultInlineCeiling is the largest inline payload, in bytes of the
	// encoded string, that may be kept inside a document. Documents are
	// capped at 1 MiB.
	DefaultInlineCeiling = 950 * 1024
)

// RemoteStore keeps authenticated users' mistakes in a document store and
// their images in a blob store
type RemoteStore struct {
	docs          interfaces.DocumentStore
	blobs         interfaces.BlobStore
	uploadTimeout time.Duration
	inlineCeiling int
	now           func() time.Time
}

type RemoteOption func(*RemoteStore)

// WithBlobStore enables image uploads. Without it every inline image takes
// the fallback path.
func WithBlobStore(blobs interfaces.BlobStore) RemoteOption {
	return func(r *RemoteStore) {
		r.blobs = blobs
	}
}

func WithUploadTimeout(d time.Duration) RemoteOption {
	return func(r *RemoteStore) {
		r.uploadTimeout = d
	}
}

func WithInlineCeiling(n int) RemoteOption {
	return func(r *RemoteStore) {
		r.inlineCeiling = n
	}
}

func WithRemoteClock(now func() time.Time) RemoteOption {
	return func(r *RemoteStore) {
		r.now = now
	}
}

func NewRemoteStore(docs interfaces.DocumentStore, opts ...RemoteOption) *RemoteStore {
	r := &RemoteStore{
		docs:          docs,
		uploadTimeout: DefaultUploadTimeout,
		inlineCeiling: DefaultInlineCeiling,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RemoteStore) ListAll(ctx context.Context, userID string) ([]*model.Mistake, error) {
	return r.docs.List(ctx, userID)
}

// Create resolves the image and writes the whole document. Writing the same
// record twice converges on the same document.
func (r *RemoteStore) Create(ctx context.Context, userID string, mistake *model.Mistake) (*model.Mistake, error) {
	m := mistake.Clone()
	if err := r.resolveImage(ctx, userID, m); err != nil {
		return nil, err
	}

	if err := r.docs.Put(ctx, userID, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Update writes the record over the stored document. An image that differs
// from the stored one goes through the upload flow and the whole document is
// replaced. An unchanged image is not uploaded again and its stored backup
// is kept.
func (r *RemoteStore) Update(ctx context.Context, userID string, mistake *model.Mistake) (*model.Mistake, error) {
	m := mistake.Clone()

	stored, err := r.docs.Get(ctx, userID, m.ID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	if stored != nil && stored.ImageURL == m.ImageURL {
		m.ImageBase64 = ""
		if err := r.docs.Merge(ctx, userID, m); err != nil {
			return nil, err
		}
		m.ImageBase64 = stored.ImageBase64
		return m, nil
	}

	if err := r.resolveImage(ctx, userID, m); err != nil {
		return nil, err
	}
	if err := r.docs.Put(ctx, userID, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes the document, then tries to delete the image when imageRef
// is an object of the blob store under the user's own image prefix. Image
// deletion failures are only reported in the returned Cleanup.
func (r *RemoteStore) Delete(ctx context.Context, userID string, id model.MistakeID, imageRef string) (*model.Cleanup, error) {
	if err := r.docs.Delete(ctx, userID, id); err != nil {
		return nil, err
	}

	cleanup := &model.Cleanup{}
	if imageRef == "" || r.blobs == nil {
		return cleanup, nil
	}
	objPath, ok := r.blobs.Path(imageRef)
	if !ok {
		return cleanup, nil
	}
	if !ownsImagePath(userID, objPath) {
		logging.From(ctx).Warn("refusing to delete image outside the user's prefix",
			"userID", userID,
			"id", id,
			"imageRef", imageRef,
		)
		return cleanup, nil
	}

	cleanup.ImageRef = imageRef
	if err := r.blobs.Delete(ctx, imageRef); err != nil {
		logging.From(ctx).Warn("failed to delete image",
			"error", err,
			"userID", userID,
			"id", id,
			"imageRef", imageRef,
		)
		cleanup.Err = err
	}
	return cleanup, nil
}

// ownsImagePath reports whether objPath is a clean path below
// users/<userID>/images/.
func ownsImagePath(userID, objPath string) bool {
	if userID == "" || strings.Contains(userID, "/") {
		return false
	}
	if path.Clean(objPath) != objPath {
		return false
	}
	prefix := "users/" + userID + "/images/"
	return strings.HasPrefix(objPath, prefix) && len(objPath) > len(prefix)
}

// resolveImage replaces an inline ImageURL with an uploaded URL. When the
// upload fails, a payload under the ceiling stays inline and a larger one
// aborts the write.
func (r *RemoteStore) resolveImage(ctx context.Context, userID string, m *model.Mistake) error {
	if !model.IsInlineImage(m.ImageURL) {
		return nil
	}

	inline := m.ImageURL
	fits := len(inline) < r.inlineCeiling

	url, err := r.uploadInline(ctx, userID, inline)
	if err != nil {
		if !fits {
			return goerr.Wrap(errors.Join(model.ErrImageTooLargeForFallback, err), "image upload failed and payload is too large to keep inline",
				goerr.V("userID", userID),
				goerr.V("id", m.ID),
				goerr.V("size", len(inline)),
				goerr.V("ceiling", r.inlineCeiling),
			)
		}

		logging.From(ctx).Warn("image upload failed, keeping image inline",
			"error", err,
			"userID", userID,
			"id", m.ID,
			"size", len(inline),
		)
		m.ImageURL = inline
		m.ImageBase64 = ""
		return nil
	}

	m.ImageURL = url
	m.ImageBase64 = ""
	if fits {
		m.ImageBase64 = inline
	}
	return nil
}

func (r *RemoteStore) imagePath(userID string) string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("users/%s/images/%d_%s.jpg", userID, r.now().UnixMilli(), hex.EncodeToString(suffix))
}

type uploadResult struct {
	url string
	err error
}

// uploadInline uploads the decoded payload, racing it against the upload
// timeout. The upload context is cancelled when the timer wins.
func (r *RemoteStore) uploadInline(ctx context.Context, userID, inline string) (string, error) {
	if r.blobs == nil {
		return "", goerr.Wrap(model.ErrImageUploadFailed, "blob store is not configured")
	}

	img, err := model.ParseInlineImage(inline)
	if err != nil {
		return "", goerr.Wrap(errors.Join(model.ErrImageUploadFailed, err), "failed to parse inline image")
	}
	data, err := img.Decode()
	if err != nil {
		return "", goerr.Wrap(errors.Join(model.ErrImageUploadFailed, err), "failed to decode inline image")
	}

	ctx, cancel := context.WithTimeout(ctx, r.uploadTimeout)
	defer cancel()

	objPath := r.imagePath(userID)
	done := make(chan uploadResult, 1)
	go func() {
		url, err := r.blobs.Upload(ctx, objPath, data, img.MimeType)
		done <- uploadResult{url: url, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		return res.url, nil
	case <-ctx.Done():
		return "", goerr.Wrap(errors.Join(model.ErrImageUploadFailed, ctx.Err()), "image upload timed out",
			goerr.V("path", objPath),
			goerr.V("timeout", r.uploadTimeout),
		)
	}
}
