package interfaces

import (
	"context"

	"github.com/secmon-lab/wrongbook/pkg/domain/model"
)

// LocalStore persists mistakes of the anonymous identity on this device
type LocalStore interface {
	// ListAll returns every mistake ordered by CreatedAt descending
	ListAll(ctx context.Context) ([]*model.Mistake, error)

	// Create inserts a new mistake. Returns model.ErrDuplicateKey if the ID exists.
	Create(ctx context.Context, mistake *model.Mistake) error

	// Update replaces the mistake, inserting it if missing
	Update(ctx context.Context, mistake *model.Mistake) error

	// BulkImport upserts every valid mistake in one transaction and counts the skipped ones
	BulkImport(ctx context.Context, mistakes []*model.Mistake) (*model.ImportResult, error)

	// Delete removes the mistake. Missing IDs are not an error.
	Delete(ctx context.Context, id model.MistakeID) error

	// ClearAll removes every mistake
	ClearAll(ctx context.Context) error
}

// DocumentStore persists mistakes of authenticated users in a per-user collection
type DocumentStore interface {
	// List returns the user's mistakes ordered by CreatedAt descending
	List(ctx context.Context, userID string) ([]*model.Mistake, error)

	// Get returns a single document. Returns model.ErrNotFound if it does not exist.
	Get(ctx context.Context, userID string, id model.MistakeID) (*model.Mistake, error)

	// Put writes the whole document, overwriting any existing one
	Put(ctx context.Context, userID string, mistake *model.Mistake) error

	// Merge writes every record field into the existing document, clearing
	// the ones left empty. A stored image backup is kept when the call
	// carries none.
	Merge(ctx context.Context, userID string, mistake *model.Mistake) error

	// Delete removes the document. Missing IDs are not an error.
	Delete(ctx context.Context, userID string, id model.MistakeID) error

	Close() error
}

// BlobStore stores image objects and resolves them to URLs
type BlobStore interface {
	// Upload stores data under path and returns the resolved download URL
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)

	// Delete removes the object referenced by ref
	Delete(ctx context.Context, ref string) error

	// Path returns the object path ref points to. The boolean is false when
	// ref was not issued by this blob store.
	Path(ref string) (string, bool)
}
