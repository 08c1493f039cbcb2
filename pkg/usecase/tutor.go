package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
)

// TutorUseCase enriches stored mistakes with inference results
type TutorUseCase struct {
	tutor    interfaces.Tutor
	mistakes *MistakeUseCase
}

func NewTutorUseCase(tutor interfaces.Tutor, mistakes *MistakeUseCase) *TutorUseCase {
	return &TutorUseCase{
		tutor:    tutor,
		mistakes: mistakes,
	}
}

func (uc *TutorUseCase) client() (interfaces.Tutor, error) {
	if uc.tutor == nil {
		return nil, goerr.Wrap(ErrTutorNotConfigured, "inference is unavailable")
	}
	return uc.tutor, nil
}

// Analyze runs image analysis without touching storage
func (uc *TutorUseCase) Analyze(ctx context.Context, image, hint string, lang types.Language) (*model.Analysis, error) {
	tutor, err := uc.client()
	if err != nil {
		return nil, err
	}
	if image == "" {
		return nil, goerr.Wrap(model.ErrInvalidMistake, "image is required")
	}
	return tutor.AnalyzeImage(ctx, image, hint, lang)
}

// Enrich analyzes the mistake's image, copies the result into the record and
// persists it through the facade
func (uc *TutorUseCase) Enrich(ctx context.Context, identity model.Identity, mistake *model.Mistake, hint string, lang types.Language) (*model.Mistake, error) {
	image := mistake.InferenceImage()
	if image == "" {
		return nil, goerr.Wrap(model.ErrInvalidMistake, "mistake has no image to analyze", goerr.V("id", mistake.ID))
	}

	analysis, err := uc.Analyze(ctx, image, hint, lang)
	if err != nil {
		return nil, err
	}

	m := mistake.Clone()
	analysis.ApplyTo(m)

	updated, err := uc.mistakes.Update(ctx, identity, m)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("mistake enriched",
		"id", updated.ID,
		"identity", identity.String(),
		"subject", updated.Subject,
		"tags", len(updated.Tags),
	)
	return updated, nil
}

// EnrichByID looks the mistake up in the identity's collection and enriches it
func (uc *TutorUseCase) EnrichByID(ctx context.Context, identity model.Identity, id model.MistakeID, hint string, lang types.Language) (*model.Mistake, error) {
	mistakes, err := uc.mistakes.ListAll(ctx, identity)
	if err != nil {
		return nil, err
	}

	for _, m := range mistakes {
		if m.ID == id {
			return uc.Enrich(ctx, identity, m, hint, lang)
		}
	}
	return nil, goerr.Wrap(model.ErrNotFound, "mistake not found", goerr.V("id", id))
}

// Similar generates a practice question like question
func (uc *TutorUseCase) Similar(ctx context.Context, question, analysis string, lang types.Language) (*model.SimilarQuestion, error) {
	tutor, err := uc.client()
	if err != nil {
		return nil, err
	}
	if question == "" {
		return nil, goerr.Wrap(model.ErrInvalidMistake, "question is required")
	}
	return tutor.GenerateSimilarQuestion(ctx, question, analysis, lang)
}
