package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
)

// MistakeList is an in-memory view of one identity's collection. Mutations
// are applied to the view first; when the durable write fails the view is
// reloaded from the backend of record.
type MistakeList struct {
	mu       sync.Mutex
	mistakes *MistakeUseCase
	identity model.Identity
	items    []*model.Mistake
}

func NewMistakeList(mistakes *MistakeUseCase, identity model.Identity) *MistakeList {
	return &MistakeList{
		mistakes: mistakes,
		identity: identity,
	}
}

// Reload replaces the view with the backend contents
func (l *MistakeList) Reload(ctx context.Context) error {
	items, err := l.mistakes.ListAll(ctx, l.identity)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
	return nil
}

// Items returns a copy of the view, newest first
func (l *MistakeList) Items() []*model.Mistake {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := make([]*model.Mistake, len(l.items))
	for i, m := range l.items {
		items[i] = m.Clone()
	}
	return items
}

func (l *MistakeList) apply(fn func(items []*model.Mistake) []*model.Mistake) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = fn(l.items)
	sort.SliceStable(l.items, func(i, j int) bool {
		return l.items[i].CreatedAt > l.items[j].CreatedAt
	})
}

func replaceItem(items []*model.Mistake, m *model.Mistake) []*model.Mistake {
	for i, item := range items {
		if item.ID == m.ID {
			items[i] = m
			return items
		}
	}
	return append(items, m)
}

func removeItem(items []*model.Mistake, id model.MistakeID) []*model.Mistake {
	result := items[:0]
	for _, item := range items {
		if item.ID != id {
			result = append(result, item)
		}
	}
	return result
}

// reconcile discards tentative mutations after a failed write
func (l *MistakeList) reconcile(ctx context.Context, cause error) {
	if err := l.Reload(ctx); err != nil {
		logging.From(ctx).Warn("failed to reload after write failure",
			"error", err,
			"cause", cause,
			"identity", l.identity.String(),
		)
	}
}

func (l *MistakeList) Add(ctx context.Context, mistake *model.Mistake) (*model.Mistake, error) {
	m := mistake.Clone()
	if m.ID == "" {
		m.ID = model.NewMistakeID()
	}
	l.apply(func(items []*model.Mistake) []*model.Mistake {
		return replaceItem(items, m.Clone())
	})

	created, err := l.mistakes.Create(ctx, l.identity, m)
	if err != nil {
		l.reconcile(ctx, err)
		return nil, err
	}

	l.apply(func(items []*model.Mistake) []*model.Mistake {
		return replaceItem(items, created.Clone())
	})
	return created, nil
}

func (l *MistakeList) Update(ctx context.Context, mistake *model.Mistake) (*model.Mistake, error) {
	l.apply(func(items []*model.Mistake) []*model.Mistake {
		return replaceItem(items, mistake.Clone())
	})

	updated, err := l.mistakes.Update(ctx, l.identity, mistake)
	if err != nil {
		l.reconcile(ctx, err)
		return nil, err
	}

	l.apply(func(items []*model.Mistake) []*model.Mistake {
		return replaceItem(items, updated.Clone())
	})
	return updated, nil
}

func (l *MistakeList) Remove(ctx context.Context, id model.MistakeID, imageRef string) (*model.Cleanup, error) {
	l.apply(func(items []*model.Mistake) []*model.Mistake {
		return removeItem(items, id)
	})

	cleanup, err := l.mistakes.Delete(ctx, l.identity, id, imageRef)
	if err != nil {
		l.reconcile(ctx, err)
		return nil, err
	}
	return cleanup, nil
}
