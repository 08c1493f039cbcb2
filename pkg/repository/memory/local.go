package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
)

// LocalStore is an in-memory interfaces.LocalStore for development and tests
type LocalStore struct {
	mu       sync.RWMutex
	mistakes map[model.MistakeID]*model.Mistake

	// failWith makes every operation fail, simulating blocked storage
	failWith error
}

var _ interfaces.LocalStore = &LocalStore{}

func NewLocalStore() *LocalStore {
	return &LocalStore{
		mistakes: make(map[model.MistakeID]*model.Mistake),
	}
}

// SetFailure makes every subsequent operation return err. Pass nil to recover.
func (r *LocalStore) SetFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

func (r *LocalStore) ListAll(ctx context.Context) ([]*model.Mistake, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	return sortedCopies(r.mistakes), nil
}

func (r *LocalStore) Create(ctx context.Context, mistake *model.Mistake) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}

	if mistake.ID == "" {
		return goerr.Wrap(model.ErrInvalidMistake, "id is required")
	}
	if _, exists := r.mistakes[mistake.ID]; exists {
		return goerr.Wrap(model.ErrDuplicateKey, "mistake already exists", goerr.V("id", mistake.ID))
	}

	r.mistakes[mistake.ID] = mistake.Clone()
	return nil
}

func (r *LocalStore) Update(ctx context.Context, mistake *model.Mistake) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}

	if mistake.ID == "" {
		return goerr.Wrap(model.ErrInvalidMistake, "id is required")
	}
	r.mistakes[mistake.ID] = mistake.Clone()
	return nil
}

func (r *LocalStore) BulkImport(ctx context.Context, mistakes []*model.Mistake) (*model.ImportResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	// Stage into a copy so the batch applies atomically
	staged := make(map[model.MistakeID]*model.Mistake, len(r.mistakes)+len(mistakes))
	for id, m := range r.mistakes {
		staged[id] = m
	}

	result := &model.ImportResult{}
	for _, m := range mistakes {
		if m == nil || m.Validate() != nil {
			result.Skipped++
			continue
		}
		staged[m.ID] = m.Clone()
		result.Imported++
	}

	r.mistakes = staged
	return result, nil
}

func (r *LocalStore) Delete(ctx context.Context, id model.MistakeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}

	delete(r.mistakes, id)
	return nil
}

func (r *LocalStore) ClearAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}

	r.mistakes = make(map[model.MistakeID]*model.Mistake)
	return nil
}

// sortedCopies returns deep copies ordered by CreatedAt descending
func sortedCopies(src map[model.MistakeID]*model.Mistake) []*model.Mistake {
	result := make([]*model.Mistake, 0, len(src))
	for _, m := range src {
		result = append(result, m.Clone())
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})
	return result
}
