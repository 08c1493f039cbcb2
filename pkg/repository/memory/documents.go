package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
)

// DocumentStore is an in-memory interfaces.DocumentStore keyed by user
type DocumentStore struct {
	mu    sync.RWMutex
	users map[string]map[model.MistakeID]*model.Mistake

	// putErr makes Put and Merge fail, simulating document write failures
	putErr error
}

var _ interfaces.DocumentStore = &DocumentStore{}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		users: make(map[string]map[model.MistakeID]*model.Mistake),
	}
}

// SetWriteFailure makes Put and Merge return err. Pass nil to recover.
func (r *DocumentStore) SetWriteFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putErr = err
}

// Stored returns a copy of a stored document, for inspection in tests
func (r *DocumentStore) Stored(userID string, id model.MistakeID) (*model.Mistake, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.users[userID][id]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

func (r *DocumentStore) collection(userID string) map[model.MistakeID]*model.Mistake {
	c, ok := r.users[userID]
	if !ok {
		c = make(map[model.MistakeID]*model.Mistake)
		r.users[userID] = c
	}
	return c
}

func (r *DocumentStore) List(ctx context.Context, userID string) ([]*model.Mistake, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedCopies(r.users[userID]), nil
}

func (r *DocumentStore) Get(ctx context.Context, userID string, id model.MistakeID) (*model.Mistake, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.users[userID][id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "mistake does not exist", goerr.V("userID", userID), goerr.V("id", id))
	}
	return m.Clone(), nil
}

func (r *DocumentStore) Put(ctx context.Context, userID string, mistake *model.Mistake) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return goerr.Wrap(r.putErr, "failed to put mistake", goerr.V("id", mistake.ID))
	}
	if mistake.ID == "" {
		return goerr.Wrap(model.ErrInvalidMistake, "id is required")
	}

	r.collection(userID)[mistake.ID] = mistake.Clone()
	return nil
}

func (r *DocumentStore) Merge(ctx context.Context, userID string, mistake *model.Mistake) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return goerr.Wrap(r.putErr, "failed to merge mistake", goerr.V("id", mistake.ID))
	}
	if mistake.ID == "" {
		return goerr.Wrap(model.ErrInvalidMistake, "id is required")
	}

	c := r.collection(userID)
	existing, ok := c[mistake.ID]
	if !ok {
		c[mistake.ID] = mistake.Clone()
		return nil
	}

	merged := mistake.Clone()
	keepImageBackup(merged, existing)
	c[mistake.ID] = merged
	return nil
}

func (r *DocumentStore) Delete(ctx context.Context, userID string, id model.MistakeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users[userID], id)
	return nil
}

func (r *DocumentStore) Close() error {
	return nil
}

// keepImageBackup carries the stored image backup over when the merge call
// has none. Every other field is taken from the call.
func keepImageBackup(dst, stored *model.Mistake) {
	if dst.ImageBase64 == "" {
		dst.ImageBase64 = stored.ImageBase64
	}
}
