package tutor

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
)

// Client is the inference client. It builds prompts and schemas, normalizes
// images, retries transient failures and validates the model output.
type Client struct {
	generator  Generator
	httpClient *http.Client
	retry      RetryPolicy
	svgPolicy  *bluemonday.Policy
}

var _ interfaces.Tutor = &Client{}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

func New(generator Generator, opts ...Option) (*Client, error) {
	if generator == nil {
		return nil, goerr.New("generator is required")
	}

	c := &Client{
		generator:  generator,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      DefaultRetryPolicy(),
		svgPolicy:  newSVGPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type analysisResponse struct {
	QuestionText     string   `json:"questionText"`
	Solution         string   `json:"solution"`
	Analysis         string   `json:"analysis"`
	Tags             []string `json:"tags"`
	SuggestedSubject string   `json:"suggestedSubject"`
	DiagramMarkup    string   `json:"diagramMarkup"`
}

type similarResponse struct {
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	DiagramMarkup string `json:"diagramMarkup"`
}

func (x *analysisResponse) missingFields() []string {
	var missing []string
	if strings.TrimSpace(x.QuestionText) == "" {
		missing = append(missing, "questionText")
	}
	if strings.TrimSpace(x.Solution) == "" {
		missing = append(missing, "solution")
	}
	return missing
}

func (x *similarResponse) missingFields() []string {
	var missing []string
	if strings.TrimSpace(x.Question) == "" {
		missing = append(missing, "question")
	}
	if strings.TrimSpace(x.Answer) == "" {
		missing = append(missing, "answer")
	}
	return missing
}

// requiredFields is implemented by responses whose schema has required keys
type requiredFields interface {
	missingFields() []string
}

type parsedOutput[T any] struct {
	value *T
	usage *model.TokenUsage
}

// generateJSON runs req through the retry policy and decodes the output
func generateJSON[T any](ctx context.Context, c *Client, req *Request) (*T, *model.TokenUsage, error) {
	out, err := Retry(ctx, c.retry, func(ctx context.Context) (*parsedOutput[T], error) {
		result, err := c.generator.Generate(ctx, req)
		if err != nil {
			return nil, err
		}
		if result == nil || strings.TrimSpace(result.Text) == "" {
			return nil, goerr.Wrap(model.ErrEmptyInferenceResponse, "model returned no text; the response may have been filtered")
		}

		value, err := ParseJSON[T](result.Text)
		if err != nil {
			return nil, err
		}
		if v, ok := any(value).(requiredFields); ok {
			if missing := v.missingFields(); len(missing) > 0 {
				return nil, goerr.Wrap(model.ErrMalformedResponse, "model output is missing required fields",
					goerr.V("missing", missing),
				)
			}
		}
		return &parsedOutput[T]{value: value, usage: result.Usage}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out.value, out.usage, nil
}

func cleanTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}

func (c *Client) AnalyzeImage(ctx context.Context, image, hint string, lang types.Language) (*model.Analysis, error) {
	img, err := c.loadImage(ctx, image)
	if err != nil {
		return nil, err
	}

	req := &Request{
		SystemPrompt: buildSystemPrompt(lang),
		Prompt:       buildAnalyzePrompt(hint, lang),
		Image:        img,
		Schema:       analysisSchema(),
	}

	resp, usage, err := generateJSON[analysisResponse](ctx, c, req)
	if err != nil {
		return nil, err
	}

	analysis := &model.Analysis{
		QuestionText:     strings.TrimSpace(resp.QuestionText),
		Solution:         resp.Solution,
		Analysis:         resp.Analysis,
		Tags:             cleanTags(resp.Tags),
		SuggestedSubject: types.NormalizeSubject(resp.SuggestedSubject),
		DiagramMarkup:    c.sanitizeDiagram(resp.DiagramMarkup),
		TokenUsage:       usage,
	}

	logging.From(ctx).Debug("image analyzed",
		"lang", lang,
		"subject", analysis.SuggestedSubject,
		"tags", analysis.Tags,
		"usage", usage,
	)
	return analysis, nil
}

func (c *Client) GenerateSimilarQuestion(ctx context.Context, question, analysis string, lang types.Language) (*model.SimilarQuestion, error) {
	req := &Request{
		SystemPrompt: buildSystemPrompt(lang),
		Prompt:       buildSimilarPrompt(question, analysis, lang),
		Schema:       similarSchema(),
	}

	resp, usage, err := generateJSON[similarResponse](ctx, c, req)
	if err != nil {
		return nil, err
	}

	return &model.SimilarQuestion{
		Question:      resp.Question,
		Answer:        resp.Answer,
		DiagramMarkup: c.sanitizeDiagram(resp.DiagramMarkup),
		TokenUsage:    usage,
	}, nil
}
