package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
)

func TestNewMistake(t *testing.T) {
	m := model.NewMistake("data:image/png;base64,AAAA", "1+1=?", types.SubjectMath)

	gt.String(t, m.ID.String()).NotEqual("")
	gt.Number(t, m.CreatedAt).Greater(0)
	gt.Value(t, m.Mastery).Equal(types.MasteryNew)
	gt.Value(t, m.AISolution).Equal("")
	gt.Value(t, m.AITokenUsage).Nil()
	gt.Array(t, m.Tags).Length(0)

	other := model.NewMistake("", "", types.SubjectOther)
	gt.Value(t, other.ID).NotEqual(m.ID)
}

func TestMistake_Validate(t *testing.T) {
	gt.NoError(t, (&model.Mistake{ID: "a", QuestionText: "q"}).Validate())

	err := (&model.Mistake{QuestionText: "q"}).Validate()
	gt.Bool(t, errors.Is(err, model.ErrInvalidMistake)).True()

	err = (&model.Mistake{ID: "a"}).Validate()
	gt.Bool(t, errors.Is(err, model.ErrInvalidMistake)).True()
}

func TestMistake_InferenceImage(t *testing.T) {
	m := &model.Mistake{ImageURL: "https://storage.googleapis.com/b/o.jpg"}
	gt.Value(t, m.InferenceImage()).Equal("https://storage.googleapis.com/b/o.jpg")

	m.ImageBase64 = "data:image/jpeg;base64,AAAA"
	gt.Value(t, m.InferenceImage()).Equal("data:image/jpeg;base64,AAAA")
}

func TestMistake_Clone(t *testing.T) {
	m := &model.Mistake{
		ID:           "a",
		Tags:         []string{"algebra"},
		AITokenUsage: &model.TokenUsage{TotalTokens: 10},
	}
	c := m.Clone()
	c.Tags[0] = "geometry"
	c.AITokenUsage.TotalTokens = 99

	gt.Value(t, m.Tags[0]).Equal("algebra")
	gt.Value(t, m.AITokenUsage.TotalTokens).Equal(10)
}

func TestAnalysis_ApplyTo(t *testing.T) {
	a := &model.Analysis{
		QuestionText:     "transcribed",
		Solution:         "step 1",
		Analysis:         "careless sign error",
		Tags:             []string{"algebra", "signs"},
		SuggestedSubject: types.SubjectMath,
		DiagramMarkup:    "<svg></svg>",
		TokenUsage:       &model.TokenUsage{PromptTokens: 1, CandidatesTokens: 2, TotalTokens: 3},
	}

	t.Run("fills empty question", func(t *testing.T) {
		m := &model.Mistake{Subject: types.SubjectOther}
		a.ApplyTo(m)
		gt.Value(t, m.QuestionText).Equal("transcribed")
		gt.Value(t, m.AISolution).Equal("step 1")
		gt.Value(t, m.Subject).Equal(types.SubjectMath)
		gt.Array(t, m.Tags).Length(2)
		gt.Value(t, m.AITokenUsage.TotalTokens).Equal(3)
	})

	t.Run("keeps user question", func(t *testing.T) {
		m := &model.Mistake{QuestionText: "typed by user"}
		a.ApplyTo(m)
		gt.Value(t, m.QuestionText).Equal("typed by user")
	})
}

func TestIdentity(t *testing.T) {
	_, ok := model.NewIdentity("").(model.Anonymous)
	gt.B(t, ok).True()

	auth, ok := model.NewIdentity("uid-1").(model.Authenticated)
	gt.B(t, ok).True()
	gt.Value(t, auth.UserID).Equal("uid-1")

	ctx := model.ContextWithIdentity(t.Context(), auth)
	gt.Value(t, model.IdentityFromContext(ctx).String()).Equal("user:uid-1")
	gt.Value(t, model.IdentityFromContext(t.Context()).String()).Equal("anonymous")
}
