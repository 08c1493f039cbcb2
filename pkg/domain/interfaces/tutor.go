package interfaces

import (
	"context"

	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
)

// Tutor is the external inference client
type Tutor interface {
	// AnalyzeImage transcribes and explains the question in image. image is
	// an http(s) URL, a data URL or a raw base64 payload.
	AnalyzeImage(ctx context.Context, image, hint string, lang types.Language) (*model.Analysis, error)

	// GenerateSimilarQuestion produces a practice question like the given one
	GenerateSimilarQuestion(ctx context.Context, question, analysis string, lang types.Language) (*model.SimilarQuestion, error)
}
