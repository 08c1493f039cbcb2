package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
	"github.com/secmon-lab/wrongbook/pkg/usecase"
)

func TestMistakeListOptimisticUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFacadeFixture()
	list := usecase.NewMistakeList(f.uc.Mistake, model.Anonymous{})
	gt.NoError(t, list.Reload(ctx)).Required()
	gt.Array(t, list.Items()).Length(0)

	older := newRecord("")
	older.CreatedAt = 100
	newer := newRecord("")
	newer.CreatedAt = 200

	_, err := list.Add(ctx, older)
	gt.NoError(t, err).Required()
	_, err = list.Add(ctx, newer)
	gt.NoError(t, err).Required()

	items := list.Items()
	gt.Array(t, items).Length(2).Required()
	gt.Value(t, items[0].ID).Equal(newer.ID)

	update := older.Clone()
	update.Mastery = types.MasteryMastered
	_, err = list.Update(ctx, update)
	gt.NoError(t, err).Required()
	gt.Value(t, list.Items()[1].Mastery).Equal(types.MasteryMastered)

	_, err = list.Remove(ctx, newer.ID, "")
	gt.NoError(t, err).Required()
	gt.Array(t, list.Items()).Length(1)
}

func TestMistakeListReconcilesOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFacadeFixture()
	list := usecase.NewMistakeList(f.uc.Mistake, model.Anonymous{})

	kept := newRecord("")
	_, err := list.Add(ctx, kept)
	gt.NoError(t, err).Required()

	// duplicate id fails the durable write, the tentative entry is discarded
	dup := kept.Clone()
	dup.QuestionText = "tentative"
	_, err = list.Add(ctx, dup)
	gt.Error(t, err).Is(model.ErrDuplicateKey)

	items := list.Items()
	gt.Array(t, items).Length(1).Required()
	gt.Value(t, items[0].QuestionText).Equal("solve x+1=2")

	// a failed remove restores the entry once storage recovers
	blocked := errors.New("blocked")
	f.local.SetFailure(blocked)
	_, err = list.Remove(ctx, kept.ID, "")
	gt.Error(t, err).Is(blocked)
	f.local.SetFailure(nil)
	gt.NoError(t, list.Reload(ctx)).Required()
	gt.Array(t, list.Items()).Length(1)
}
