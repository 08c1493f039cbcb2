package usecase_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/usecase"
)

func TestTransferExportImport(t *testing.T) {
	ctx := context.Background()

	for _, identity := range []model.Identity{model.Anonymous{}, model.Authenticated{UserID: "u1"}} {
		t.Run(identity.String(), func(t *testing.T) {
			src := newFacadeFixture()
			for _, q := range []string{"a", "b", "c"} {
				record := newRecord("https://example.com/" + q + ".jpg")
				record.QuestionText = q
				_, err := src.uc.Mistake.Create(ctx, identity, record)
				gt.NoError(t, err).Required()
			}

			var buf bytes.Buffer
			gt.NoError(t, src.uc.Transfer.Export(ctx, identity, &buf)).Required()

			var exported []map[string]any
			gt.NoError(t, json.Unmarshal(buf.Bytes(), &exported)).Required()
			gt.Array(t, exported).Length(3)

			dst := newFacadeFixture()
			result, err := dst.uc.Transfer.Import(ctx, identity, &buf)
			gt.NoError(t, err).Required()
			gt.Value(t, result.Imported).Equal(3)
			gt.Value(t, result.Skipped).Equal(0)

			list, err := dst.uc.Mistake.ListAll(ctx, identity)
			gt.NoError(t, err).Required()
			gt.Array(t, list).Length(3)
		})
	}
}

func TestTransferImportSkipsInvalid(t *testing.T) {
	ctx := context.Background()
	payload := `[
		{"id": "a", "createdAt": 100, "questionText": "valid one", "subject": "math"},
		{"id": "b", "createdAt": 200, "questionText": "valid two", "mastery": "mastered"},
		{"id": "", "createdAt": 300, "questionText": "no id"},
		{"id": "d", "createdAt": 400, "questionText": ""}
	]`

	for _, identity := range []model.Identity{model.Anonymous{}, model.Authenticated{UserID: "u1"}} {
		t.Run(identity.String(), func(t *testing.T) {
			f := newFacadeFixture()
			result, err := f.uc.Transfer.Import(ctx, identity, strings.NewReader(payload))
			gt.NoError(t, err).Required()
			gt.Value(t, result.Imported).Equal(2)
			gt.Value(t, result.Skipped).Equal(2)

			list, err := f.uc.Mistake.ListAll(ctx, identity)
			gt.NoError(t, err).Required()
			gt.Array(t, list).Length(2).Required()
			gt.Value(t, list[0].ID).Equal(model.MistakeID("b"))
			gt.Value(t, string(list[1].Mastery)).Equal("new")
		})
	}
}

func TestTransferImportRejectsNonArray(t *testing.T) {
	f := newFacadeFixture()
	_, err := f.uc.Transfer.Import(context.Background(), model.Anonymous{}, strings.NewReader(`{"id":"a"}`))
	gt.Error(t, err).Is(model.ErrInvalidMistake)
}

func TestTransferClear(t *testing.T) {
	f := newFacadeFixture()
	ctx := context.Background()

	_, err := f.uc.Mistake.Create(ctx, model.Anonymous{}, newRecord(""))
	gt.NoError(t, err).Required()
	gt.NoError(t, f.uc.Transfer.Clear(ctx, model.Anonymous{})).Required()

	list, err := f.uc.Mistake.ListAll(ctx, model.Anonymous{})
	gt.NoError(t, err).Required()
	gt.Array(t, list).Length(0)

	err = f.uc.Transfer.Clear(ctx, model.Authenticated{UserID: "u1"})
	gt.Error(t, err).Is(usecase.ErrClearNotSupported)
}

func TestTransferExportEmpty(t *testing.T) {
	f := newFacadeFixture()
	var buf bytes.Buffer
	gt.NoError(t, f.uc.Transfer.Export(context.Background(), model.Anonymous{}, &buf)).Required()
	gt.Value(t, strings.TrimSpace(buf.String())).Equal("[]")
}
