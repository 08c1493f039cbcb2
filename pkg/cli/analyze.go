package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// analyzeOutput is what the analyze command prints on stdout
type analyzeOutput struct {
	Analysis *model.Analysis        `json:"analysis"`
	Similar  *model.SimilarQuestion `json:"similar,omitempty"`
}

// imageRef turns a local file into an inline image. URLs and data URLs pass through.
func imageRef(src string) (string, error) {
	if model.IsRemoteImage(src) || model.IsInlineImage(src) {
		return src, nil
	}

	raw, err := os.ReadFile(src)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read image", goerr.V("path", src))
	}
	mimeType, _, _ := strings.Cut(http.DetectContentType(raw), ";")
	return model.NewInlineImage(mimeType, raw).DataURL(), nil
}

func cmdAnalyze(g *globals) *cli.Command {
	var image string
	var hint string
	var language string
	var similar bool
	var st stack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "image",
			Usage:       "Image file, http(s) URL or data URL of the question",
			Required:    true,
			Destination: &image,
		},
		&cli.StringFlag{
			Name:        "hint",
			Usage:       "Extra instruction passed to the tutor",
			Destination: &hint,
		},
		&cli.StringFlag{
			Name:        "language",
			Aliases:     []string{"l"},
			Usage:       "Output language (en, zh, ja)",
			Value:       string(types.LanguageEnglish),
			Sources:     cli.EnvVars("WRONGBOOK_LANGUAGE"),
			Destination: &language,
		},
		&cli.BoolFlag{
			Name:        "similar",
			Usage:       "Also generate a similar practice question",
			Destination: &similar,
		},
	}
	flags = append(flags, st.Flags()...)

	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"a"},
		Usage:   "Analyze a question image and print the result as JSON",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			lang, err := types.ParseLanguage(language)
			if err != nil {
				return goerr.Wrap(err, "invalid language")
			}
			ref, err := imageRef(image)
			if err != nil {
				return err
			}

			uc, closer, err := st.build(ctx, g.app)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}
			defer closer()

			analysis, err := uc.Tutor.Analyze(ctx, ref, hint, lang)
			if err != nil {
				return goerr.Wrap(err, "failed to analyze image")
			}
			out := analyzeOutput{Analysis: analysis}

			if similar {
				out.Similar, err = uc.Tutor.Similar(ctx, analysis.QuestionText, analysis.Analysis, lang)
				if err != nil {
					return goerr.Wrap(err, "failed to generate similar question")
				}
			}

			enc := json.NewEncoder(stdout(c))
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return goerr.Wrap(err, "failed to write result")
			}

			printAnalysisSummary(stderr(c), &out)
			return nil
		},
	}
}

func printAnalysisSummary(w io.Writer, out *analyzeOutput) {
	label := color.New(color.FgCyan, color.Bold)
	a := out.Analysis

	_, _ = label.Fprint(w, "subject: ")
	_, _ = fmt.Fprintln(w, a.SuggestedSubject)
	if len(a.Tags) > 0 {
		_, _ = label.Fprint(w, "tags:    ")
		_, _ = fmt.Fprintln(w, strings.Join(a.Tags, ", "))
	}
	if a.TokenUsage != nil {
		_, _ = label.Fprint(w, "tokens:  ")
		_, _ = fmt.Fprintf(w, "%d prompt / %d output / %d total\n",
			a.TokenUsage.PromptTokens, a.TokenUsage.CandidatesTokens, a.TokenUsage.TotalTokens)
	}
	if out.Similar != nil {
		_, _ = color.New(color.FgGreen).Fprintln(w, "similar question generated")
	}
}
