package tutor

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
)

// GollemGenerator runs requests through any gollem LLM client
type GollemGenerator struct {
	llmClient gollem.LLMClient
}

var _ Generator = &GollemGenerator{}

func NewGollemGenerator(llmClient gollem.LLMClient) *GollemGenerator {
	return &GollemGenerator{llmClient: llmClient}
}

func (g *GollemGenerator) Generate(ctx context.Context, req *Request) (*Result, error) {
	opts := []gollem.SessionOption{
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionSystemPrompt(req.SystemPrompt),
	}
	if req.Schema != nil {
		opts = append(opts, gollem.WithSessionResponseSchema(req.Schema))
	}

	session, err := g.llmClient.NewSession(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	inputs := []gollem.Input{gollem.Text(req.Prompt)}
	if req.Image != nil {
		data, err := req.Image.Decode()
		if err != nil {
			return nil, err
		}
		img, err := gollem.NewImage(data)
		if err != nil {
			return nil, goerr.Wrap(err, "unsupported image", goerr.V("mimeType", req.Image.MimeType))
		}
		inputs = append(inputs, img)
	}

	resp, err := session.GenerateContent(ctx, inputs...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content from LLM")
	}

	result := &Result{Text: strings.Join(resp.Texts, "")}
	if resp.InputToken > 0 || resp.OutputToken > 0 {
		result.Usage = &model.TokenUsage{
			PromptTokens:     resp.InputToken,
			CandidatesTokens: resp.OutputToken,
			TotalTokens:      resp.InputToken + resp.OutputToken,
		}
	}
	return result, nil
}
