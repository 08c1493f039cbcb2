package tutor

import "github.com/m-mizutani/gollem"

func analysisSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "QuestionAnalysis",
		Description: "Transcription, solution and analysis of a question the student got wrong",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"questionText": {
				Type:        gollem.TypeString,
				Description: "The question transcribed from the image",
			},
			"solution": {
				Type:        gollem.TypeString,
				Description: "Step by step solution",
			},
			"analysis": {
				Type:        gollem.TypeString,
				Description: "The concept tested and the likely cause of the mistake",
			},
			"tags": {
				Type:        gollem.TypeArray,
				Description: "3 to 5 short topic tags",
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
			},
			"suggestedSubject": {
				Type:        gollem.TypeString,
				Description: "Subject identifier of the question",
			},
			"diagramMarkup": {
				Type:        gollem.TypeString,
				Description: "Optional SVG figure",
			},
		},
		Required: []string{"questionText", "solution", "analysis", "tags", "suggestedSubject"},
	}
}

func similarSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "SimilarQuestion",
		Description: "A new practice question testing the same concept",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"question": {
				Type:        gollem.TypeString,
				Description: "The new practice question",
			},
			"answer": {
				Type:        gollem.TypeString,
				Description: "Worked answer to the new question",
			},
			"diagramMarkup": {
				Type:        gollem.TypeString,
				Description: "Optional SVG figure",
			},
		},
		Required: []string{"question", "answer"},
	}
}
