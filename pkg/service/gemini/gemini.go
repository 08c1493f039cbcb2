package gemini

import (
	"context"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/service/tutor"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// Generator calls Gemini through the Google GenAI SDK
type Generator struct {
	client *genai.Client
	model  string
}

var _ tutor.Generator = &Generator{}

type Config struct {
	// APIKey selects the Gemini API backend
	APIKey string
	// Project and Location select the Vertex AI backend when APIKey is empty
	Project  string
	Location string
	Model    string
}

func New(ctx context.Context, cfg Config) (*Generator, error) {
	clientConfig := &genai.ClientConfig{}
	switch {
	case cfg.APIKey != "":
		clientConfig.APIKey = cfg.APIKey
		clientConfig.Backend = genai.BackendGeminiAPI
	case cfg.Project != "":
		clientConfig.Project = cfg.Project
		clientConfig.Location = cfg.Location
		clientConfig.Backend = genai.BackendVertexAI
	default:
		return nil, goerr.New("either API key or project is required for Gemini")
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client", goerr.V("project", cfg.Project), goerr.V("location", cfg.Location))
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	return &Generator{
		client: client,
		model:  modelName,
	}, nil
}

// permissiveSafety turns every adjustable filter off; questions about
// biology or history otherwise get blocked
func permissiveSafety() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}

	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}
	return settings
}

func (g *Generator) Generate(ctx context.Context, req *tutor.Request) (*tutor.Result, error) {
	parts := []*genai.Part{{Text: req.Prompt}}
	if req.Image != nil {
		data, err := req.Image.Decode()
		if err != nil {
			return nil, err
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: req.Image.MimeType, Data: data},
		})
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		SafetySettings:   permissiveSafety(),
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
	}
	if req.Schema != nil {
		config.ResponseSchema = ToSchema(req.Schema)
	}

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, classify(err, g.model)
	}

	result := &tutor.Result{Text: resp.Text()}
	if usage := resp.UsageMetadata; usage != nil {
		result.Usage = &model.TokenUsage{
			PromptTokens:     int(usage.PromptTokenCount),
			CandidatesTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}
	return result, nil
}

// classify marks quota rejections with tutor.ErrRateLimited
func classify(err error, modelName string) error {
	if isRateLimited(err) {
		return goerr.Wrap(errors.Join(tutor.ErrRateLimited, err), "gemini rate limited", goerr.V("model", modelName))
	}
	return goerr.Wrap(err, "failed to generate content", goerr.V("model", modelName))
}

func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Status == "RESOURCE_EXHAUSTED"
	}
	return false
}

var schemaTypes = map[gollem.ParameterType]genai.Type{
	gollem.TypeString:  genai.TypeString,
	gollem.TypeNumber:  genai.TypeNumber,
	gollem.TypeInteger: genai.TypeInteger,
	gollem.TypeBoolean: genai.TypeBoolean,
	gollem.TypeArray:   genai.TypeArray,
	gollem.TypeObject:  genai.TypeObject,
}

// ToSchema converts a gollem parameter tree into a genai response schema
func ToSchema(p *gollem.Parameter) *genai.Schema {
	if p == nil {
		return nil
	}

	s := &genai.Schema{
		Title:       p.Title,
		Description: p.Description,
		Type:        schemaTypes[p.Type],
		Required:    p.Required,
		Items:       ToSchema(p.Items),
	}
	if len(p.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(p.Properties))
		for name, prop := range p.Properties {
			s.Properties[name] = ToSchema(prop)
		}
	}
	return s
}
