package model

import "github.com/secmon-lab/wrongbook/pkg/domain/types"

// Analysis is the structured result of analyzing a question image
type Analysis struct {
	QuestionText     string        `json:"questionText"`
	Solution         string        `json:"solution"`
	Analysis         string        `json:"analysis"`
	Tags             []string      `json:"tags"`
	SuggestedSubject types.Subject `json:"suggestedSubject"`
	DiagramMarkup    string        `json:"diagramMarkup,omitempty"`
	TokenUsage       *TokenUsage   `json:"tokenUsage,omitempty"`
}

// SimilarQuestion is a generated practice question
type SimilarQuestion struct {
	Question      string      `json:"question"`
	Answer        string      `json:"answer"`
	DiagramMarkup string      `json:"diagramMarkup,omitempty"`
	TokenUsage    *TokenUsage `json:"tokenUsage,omitempty"`
}

// ApplyTo copies the analysis into the mistake. The transcription only fills
// an empty question so user edits survive re-analysis.
func (a *Analysis) ApplyTo(m *Mistake) {
	if m.QuestionText == "" {
		m.QuestionText = a.QuestionText
	}
	m.AISolution = a.Solution
	m.AIAnalysis = a.Analysis
	m.AIDiagram = a.DiagramMarkup
	if len(a.Tags) > 0 {
		m.Tags = append([]string{}, a.Tags...)
	}
	if a.SuggestedSubject != "" {
		m.Subject = a.SuggestedSubject
	}
	if a.TokenUsage != nil {
		usage := *a.TokenUsage
		m.AITokenUsage = &usage
	}
}
