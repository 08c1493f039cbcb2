package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
	"github.com/secmon-lab/wrongbook/pkg/repository/memory"
	"github.com/secmon-lab/wrongbook/pkg/service/blob"
	"github.com/secmon-lab/wrongbook/pkg/usecase"
)

type facadeFixture struct {
	local *memory.LocalStore
	docs  *memory.DocumentStore
	blobs *blob.Memory
	uc    *usecase.UseCases
}

func newFacadeFixture(opts ...usecase.Option) *facadeFixture {
	local := memory.NewLocalStore()
	docs := memory.NewDocumentStore()
	blobs := blob.NewMemory()
	remote := usecase.NewRemoteStore(docs, usecase.WithBlobStore(blobs))

	opts = append([]usecase.Option{usecase.WithRemote(remote)}, opts...)
	return &facadeFixture{
		local: local,
		docs:  docs,
		blobs: blobs,
		uc:    usecase.New(local, opts...),
	}
}

func TestMistakeRoutesByIdentity(t *testing.T) {
	f := newFacadeFixture()
	ctx := context.Background()
	anon := model.Anonymous{}
	user := model.Authenticated{UserID: "u1"}

	_, err := f.uc.Mistake.Create(ctx, anon, newRecord("https://example.com/a.jpg"))
	gt.NoError(t, err).Required()
	_, err = f.uc.Mistake.Create(ctx, user, newRecord(inlineImage(32)))
	gt.NoError(t, err).Required()

	local, err := f.uc.Mistake.ListAll(ctx, anon)
	gt.NoError(t, err).Required()
	gt.Array(t, local).Length(1)

	remote, err := f.uc.Mistake.ListAll(ctx, user)
	gt.NoError(t, err).Required()
	gt.Array(t, remote).Length(1).Required()
	gt.B(t, model.IsRemoteImage(remote[0].ImageURL)).True()

	other, err := f.uc.Mistake.ListAll(ctx, model.Authenticated{UserID: "u2"})
	gt.NoError(t, err).Required()
	gt.Array(t, other).Length(0)
}

func TestMistakeCreateFillsDefaults(t *testing.T) {
	f := newFacadeFixture()
	ctx := context.Background()

	created, err := f.uc.Mistake.Create(ctx, model.Anonymous{}, &model.Mistake{
		QuestionText: "partial",
		Subject:      types.SubjectPhysics,
	})
	gt.NoError(t, err).Required()
	gt.String(t, created.ID.String()).NotEqual("")
	gt.Number(t, created.CreatedAt).Greater(0)
	gt.Value(t, created.Mastery).Equal(types.MasteryNew)
	gt.Value(t, created.Tags).Equal([]string{})
}

func TestMistakeUpdateMastery(t *testing.T) {
	f := newFacadeFixture()
	ctx := context.Background()

	for _, identity := range []model.Identity{model.Anonymous{}, model.Authenticated{UserID: "u1"}} {
		t.Run(identity.String(), func(t *testing.T) {
			created, err := f.uc.Mistake.Create(ctx, identity, newRecord("https://example.com/a.jpg"))
			gt.NoError(t, err).Required()

			update := created.Clone()
			update.Mastery = types.MasteryReviewing
			_, err = f.uc.Mistake.Update(ctx, identity, update)
			gt.NoError(t, err).Required()

			list, err := f.uc.Mistake.ListAll(ctx, identity)
			gt.NoError(t, err).Required()
			gt.Array(t, list).Length(1).Required()
			gt.Value(t, list[0].ID).Equal(created.ID)
			gt.Value(t, list[0].CreatedAt).Equal(created.CreatedAt)
			gt.Value(t, list[0].Subject).Equal(types.SubjectMath)
			gt.Value(t, list[0].Mastery).Equal(types.MasteryReviewing)
		})
	}
}

func TestMistakeUpdateClearsReflection(t *testing.T) {
	f := newFacadeFixture()
	ctx := context.Background()

	for _, identity := range []model.Identity{model.Anonymous{}, model.Authenticated{UserID: "u1"}} {
		t.Run(identity.String(), func(t *testing.T) {
			record := newRecord(inlineImage(32))
			record.Reflection = "dropped a minus sign"
			created, err := f.uc.Mistake.Create(ctx, identity, record)
			gt.NoError(t, err).Required()

			update := created.Clone()
			update.Reflection = ""
			_, err = f.uc.Mistake.Update(ctx, identity, update)
			gt.NoError(t, err).Required()

			list, err := f.uc.Mistake.ListAll(ctx, identity)
			gt.NoError(t, err).Required()
			gt.Array(t, list).Length(1).Required()
			gt.Value(t, list[0].Reflection).Equal("")
		})
	}
}

func TestMistakePropagatesBackendErrors(t *testing.T) {
	f := newFacadeFixture()
	ctx := context.Background()
	blocked := errors.New("storage blocked")
	f.local.SetFailure(blocked)

	_, err := f.uc.Mistake.ListAll(ctx, model.Anonymous{})
	gt.Error(t, err).Is(blocked)

	_, err = f.uc.Mistake.Create(ctx, model.Anonymous{}, newRecord(""))
	gt.Error(t, err).Is(blocked)

	// remote is unaffected
	_, err = f.uc.Mistake.ListAll(ctx, model.Authenticated{UserID: "u1"})
	gt.NoError(t, err)
}

func TestMistakeDuplicateCreate(t *testing.T) {
	f := newFacadeFixture()
	ctx := context.Background()

	record := newRecord("")
	_, err := f.uc.Mistake.Create(ctx, model.Anonymous{}, record)
	gt.NoError(t, err).Required()
	_, err = f.uc.Mistake.Create(ctx, model.Anonymous{}, record)
	gt.Error(t, err).Is(model.ErrDuplicateKey)
}

func TestMistakeDelete(t *testing.T) {
	f := newFacadeFixture()
	ctx := context.Background()

	cleanup, err := f.uc.Mistake.Delete(ctx, model.Anonymous{}, model.NewMistakeID(), "")
	gt.NoError(t, err).Required()
	gt.B(t, cleanup.Attempted()).False()

	user := model.Authenticated{UserID: "u1"}
	created, err := f.uc.Mistake.Create(ctx, user, newRecord(inlineImage(32)))
	gt.NoError(t, err).Required()

	cleanup, err = f.uc.Mistake.Delete(ctx, user, created.ID, created.ImageURL)
	gt.NoError(t, err).Required()
	gt.B(t, cleanup.Attempted()).True()
	gt.Value(t, f.blobs.Len()).Equal(0)
}

func TestMistakeWithoutRemote(t *testing.T) {
	uc := usecase.New(memory.NewLocalStore())

	_, err := uc.Mistake.ListAll(context.Background(), model.Authenticated{UserID: "u1"})
	gt.Error(t, err).Is(usecase.ErrRemoteNotConfigured)
}
