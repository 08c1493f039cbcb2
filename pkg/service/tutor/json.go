package tutor

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
)

// stripFences removes a surrounding markdown code fence, with or without a
// language tag
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseJSON decodes model output into T, tolerating code fences
func ParseJSON[T any](text string) (*T, error) {
	body := stripFences(text)
	if body == "" {
		return nil, goerr.Wrap(model.ErrEmptyInferenceResponse, "model returned no text")
	}

	var out T
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, goerr.Wrap(errors.Join(model.ErrMalformedResponse, err), "failed to parse model output",
			goerr.V("length", len(body)),
		)
	}
	return &out, nil
}
