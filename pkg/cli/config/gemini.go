package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	genaigen "github.com/secmon-lab/wrongbook/pkg/service/gemini"
	"github.com/secmon-lab/wrongbook/pkg/service/tutor"
	"github.com/urfave/cli/v3"
)

// Gemini holds configuration for the inference client
type Gemini struct {
	client    string
	apiKey    string
	projectID string
	location  string
	model     string
}

// Flags returns CLI flags for Gemini configuration
func (g *Gemini) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-client",
			Usage:       "Gemini client library (genai or gollem)",
			Category:    "Gemini",
			Value:       "genai",
			Sources:     cli.EnvVars("WRONGBOOK_GEMINI_CLIENT"),
			Destination: &g.client,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key (genai client only)",
			Category:    "Gemini",
			Sources:     cli.EnvVars("WRONGBOOK_GEMINI_API_KEY"),
			Destination: &g.apiKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Vertex AI",
			Category:    "Gemini",
			Sources:     cli.EnvVars("WRONGBOOK_GEMINI_PROJECT"),
			Destination: &g.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Vertex AI",
			Category:    "Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("WRONGBOOK_GEMINI_LOCATION"),
			Destination: &g.location,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Category:    "Gemini",
			Sources:     cli.EnvVars("WRONGBOOK_GEMINI_MODEL"),
			Destination: &g.model,
		},
	}
}

// LogAttrs returns log attributes for the Gemini configuration
func (g *Gemini) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("client", g.client),
		slog.Bool("api_key_set", g.apiKey != ""),
		slog.String("project_id", g.projectID),
		slog.String("location", g.location),
		slog.String("model", g.model),
	}
}

func (g *Gemini) modelName(app *AppConfig) string {
	if g.model != "" {
		return g.model
	}
	if app != nil && app.Inference.Model != "" {
		return app.Inference.Model
	}
	return genaigen.DefaultModel
}

func (g *Gemini) generator(ctx context.Context, model string) (tutor.Generator, error) {
	switch g.client {
	case "", "genai":
		gen, err := genaigen.New(ctx, genaigen.Config{
			APIKey:   g.apiKey,
			Project:  g.projectID,
			Location: g.location,
			Model:    model,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create genai client")
		}
		return gen, nil

	case "gollem":
		if g.projectID == "" {
			return nil, goerr.Wrap(ErrMissingArgument, "gemini-project is required for the gollem client")
		}
		client, err := gemini.New(ctx, g.projectID, g.location, gemini.WithModel(model))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return tutor.NewGollemGenerator(client), nil

	default:
		return nil, goerr.Wrap(ErrUnknownBackend, "invalid gemini client", goerr.V(BackendKey, g.client))
	}
}

// Configure creates the inference client from the configured flags.
// Returns nil if neither an API key nor a project is configured (analysis
// features will be disabled).
func (g *Gemini) Configure(ctx context.Context, app *AppConfig) (interfaces.Tutor, error) {
	if g.apiKey == "" && g.projectID == "" {
		return nil, nil
	}

	gen, err := g.generator(ctx, g.modelName(app))
	if err != nil {
		return nil, err
	}

	var opts []tutor.Option
	if app != nil {
		opts = append(opts, tutor.WithRetryPolicy(app.RetryPolicy()))
	}

	client, err := tutor.New(gen, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create inference client")
	}
	return client, nil
}
