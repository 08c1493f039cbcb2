package tutor

import (
	"context"

	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
)

// Request is one structured generation call
type Request struct {
	SystemPrompt string
	Prompt       string
	// Image is attached after the prompt when set
	Image *model.InlineImage
	// Schema is the JSON shape the model must answer with
	Schema *gollem.Parameter
}

// Result is the raw model output
type Result struct {
	Text  string
	Usage *model.TokenUsage
}

// Generator is a model provider able to answer in JSON mode
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Result, error)
}
