package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
)

// MistakeID is a UUID-based identifier for Mistake
type MistakeID string

// NewMistakeID generates a new UUID v4 MistakeID
func NewMistakeID() MistakeID {
	return MistakeID(uuid.New().String())
}

// String returns the string representation of the ID
func (id MistakeID) String() string {
	return string(id)
}

// TokenUsage is the token accounting reported by the inference provider
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CandidatesTokens int `json:"candidatesTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Mistake is one tracked mistake entry. The JSON shape is also the export
// format, so field names must stay stable.
type Mistake struct {
	ID        MistakeID `json:"id"`
	CreatedAt int64     `json:"createdAt"` // milliseconds since epoch

	// ImageURL holds either an inline payload or a resolved blob URL
	ImageURL string `json:"imageUrl"`
	// ImageBase64 is the cloud-mode backup of the inline image, used for
	// inference when ImageURL cannot be fetched directly.
	ImageBase64 string `json:"imageBase64,omitempty"`

	QuestionText      string `json:"questionText"`
	UserNotes         string `json:"userNotes"`
	UserCorrectAnswer string `json:"userCorrectAnswer,omitempty"`
	Reflection        string `json:"reflection,omitempty"`
	ReflectionImage   string `json:"reflectionImage,omitempty"`

	AISolution   string      `json:"aiSolution,omitempty"`
	AIAnalysis   string      `json:"aiAnalysis,omitempty"`
	AIDiagram    string      `json:"aiDiagram,omitempty"`
	AITokenUsage *TokenUsage `json:"aiTokenUsage,omitempty"`

	Tags        []string      `json:"tags"`
	Subject     types.Subject `json:"subject"`
	Mastery     types.Mastery `json:"mastery"`
	ReviewCount int           `json:"reviewCount"` // reserved, never incremented
}

// NewMistake creates a mistake with a fresh ID, the current timestamp and
// mastery set to new.
func NewMistake(imageURL, questionText string, subject types.Subject) *Mistake {
	return &Mistake{
		ID:           NewMistakeID(),
		CreatedAt:    time.Now().UnixMilli(),
		ImageURL:     imageURL,
		QuestionText: questionText,
		Tags:         []string{},
		Subject:      subject,
		Mastery:      types.MasteryNew,
	}
}

// Validate runs the minimal validation applied to imported records
func (m *Mistake) Validate() error {
	if m.ID == "" {
		return goerr.Wrap(ErrInvalidMistake, "id is required")
	}
	if m.QuestionText == "" {
		return goerr.Wrap(ErrInvalidMistake, "questionText is required", goerr.V("id", m.ID))
	}
	return nil
}

// InferenceImage returns the image reference best suited for inference:
// the inline backup if present, otherwise ImageURL.
func (m *Mistake) InferenceImage() string {
	if m.ImageBase64 != "" {
		return m.ImageBase64
	}
	return m.ImageURL
}

// Clone creates a deep copy of the mistake
func (m *Mistake) Clone() *Mistake {
	copied := *m
	if m.Tags != nil {
		copied.Tags = make([]string, len(m.Tags))
		copy(copied.Tags, m.Tags)
	}
	if m.AITokenUsage != nil {
		usage := *m.AITokenUsage
		copied.AITokenUsage = &usage
	}
	return &copied
}

// ImportResult is the coarse outcome of a bulk import
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
