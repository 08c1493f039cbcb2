package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type tokenUsageDocument struct {
	PromptTokens     int `firestore:"promptTokens"`
	CandidatesTokens int `firestore:"candidatesTokens"`
	TotalTokens      int `firestore:"totalTokens"`
}

type mistakeDocument struct {
	ID                string              `firestore:"id"`
	UserID            string              `firestore:"userId"`
	CreatedAt         int64               `firestore:"createdAt"`
	ImageURL          string              `firestore:"imageUrl"`
	ImageBase64       string              `firestore:"imageBase64,omitempty"`
	QuestionText      string              `firestore:"questionText"`
	UserNotes         string              `firestore:"userNotes"`
	UserCorrectAnswer string              `firestore:"userCorrectAnswer,omitempty"`
	Reflection        string              `firestore:"reflection,omitempty"`
	ReflectionImage   string              `firestore:"reflectionImage,omitempty"`
	AISolution        string              `firestore:"aiSolution,omitempty"`
	AIAnalysis        string              `firestore:"aiAnalysis,omitempty"`
	AIDiagram         string              `firestore:"aiDiagram,omitempty"`
	AITokenUsage      *tokenUsageDocument `firestore:"aiTokenUsage,omitempty"`
	Tags              []string            `firestore:"tags"`
	Subject           string              `firestore:"subject"`
	Mastery           string              `firestore:"mastery"`
	ReviewCount       int                 `firestore:"reviewCount"`
}

func mistakeToDocument(userID string, m *model.Mistake) *mistakeDocument {
	doc := &mistakeDocument{
		ID:                string(m.ID),
		UserID:            userID,
		CreatedAt:         m.CreatedAt,
		ImageURL:          m.ImageURL,
		ImageBase64:       m.ImageBase64,
		QuestionText:      m.QuestionText,
		UserNotes:         m.UserNotes,
		UserCorrectAnswer: m.UserCorrectAnswer,
		Reflection:        m.Reflection,
		ReflectionImage:   m.ReflectionImage,
		AISolution:        m.AISolution,
		AIAnalysis:        m.AIAnalysis,
		AIDiagram:         m.AIDiagram,
		Tags:              m.Tags,
		Subject:           string(m.Subject),
		Mastery:           string(m.Mastery),
		ReviewCount:       m.ReviewCount,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if m.AITokenUsage != nil {
		doc.AITokenUsage = &tokenUsageDocument{
			PromptTokens:     m.AITokenUsage.PromptTokens,
			CandidatesTokens: m.AITokenUsage.CandidatesTokens,
			TotalTokens:      m.AITokenUsage.TotalTokens,
		}
	}
	return doc
}

func mistakeToModel(doc *mistakeDocument) *model.Mistake {
	m := &model.Mistake{
		ID:                model.MistakeID(doc.ID),
		CreatedAt:         doc.CreatedAt,
		ImageURL:          doc.ImageURL,
		ImageBase64:       doc.ImageBase64,
		QuestionText:      doc.QuestionText,
		UserNotes:         doc.UserNotes,
		UserCorrectAnswer: doc.UserCorrectAnswer,
		Reflection:        doc.Reflection,
		ReflectionImage:   doc.ReflectionImage,
		AISolution:        doc.AISolution,
		AIAnalysis:        doc.AIAnalysis,
		AIDiagram:         doc.AIDiagram,
		Tags:              doc.Tags,
		Subject:           types.NormalizeSubject(doc.Subject),
		Mastery:           types.Mastery(doc.Mastery).Normalize(),
		ReviewCount:       doc.ReviewCount,
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if doc.AITokenUsage != nil {
		m.AITokenUsage = &model.TokenUsage{
			PromptTokens:     doc.AITokenUsage.PromptTokens,
			CandidatesTokens: doc.AITokenUsage.CandidatesTokens,
			TotalTokens:      doc.AITokenUsage.TotalTokens,
		}
	}
	return m
}

// mergeFields builds the field map for a merge write. Every record field is
// written and empty optional fields are removed. The image backup is only
// written when set, so a stored backup survives edits that leave it empty.
func mergeFields(userID string, m *model.Mistake) map[string]any {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}

	fields := map[string]any{
		"id":           string(m.ID),
		"userId":       userID,
		"createdAt":    m.CreatedAt,
		"imageUrl":     m.ImageURL,
		"questionText": m.QuestionText,
		"userNotes":    m.UserNotes,
		"tags":         tags,
		"subject":      string(m.Subject),
		"mastery":      string(m.Mastery),
		"reviewCount":  m.ReviewCount,
	}

	if m.ImageBase64 != "" {
		fields["imageBase64"] = m.ImageBase64
	}

	optional := map[string]string{
		"userCorrectAnswer": m.UserCorrectAnswer,
		"reflection":        m.Reflection,
		"reflectionImage":   m.ReflectionImage,
		"aiSolution":        m.AISolution,
		"aiAnalysis":        m.AIAnalysis,
		"aiDiagram":         m.AIDiagram,
	}
	for key, value := range optional {
		if value == "" {
			fields[key] = firestore.Delete
			continue
		}
		fields[key] = value
	}

	fields["aiTokenUsage"] = firestore.Delete
	if m.AITokenUsage != nil {
		fields["aiTokenUsage"] = map[string]any{
			"promptTokens":     m.AITokenUsage.PromptTokens,
			"candidatesTokens": m.AITokenUsage.CandidatesTokens,
			"totalTokens":      m.AITokenUsage.TotalTokens,
		}
	}
	return fields
}

type mistakeRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newMistakeRepository(client *firestore.Client) *mistakeRepository {
	return &mistakeRepository{client: client}
}

func (r *mistakeRepository) usersCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_users"
	}
	return "users"
}

func (r *mistakeRepository) mistakes(userID string) *firestore.CollectionRef {
	return r.client.Collection(r.usersCollection()).Doc(userID).Collection("mistakes")
}

func (r *mistakeRepository) List(ctx context.Context, userID string) ([]*model.Mistake, error) {
	iter := r.mistakes(userID).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	mistakes := []*model.Mistake{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate mistakes", goerr.V("userID", userID))
		}

		var doc mistakeDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal mistake", goerr.V("userID", userID), goerr.V("docID", snap.Ref.ID))
		}
		mistakes = append(mistakes, mistakeToModel(&doc))
	}

	return mistakes, nil
}

func (r *mistakeRepository) Get(ctx context.Context, userID string, id model.MistakeID) (*model.Mistake, error) {
	snap, err := r.mistakes(userID).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "mistake does not exist", goerr.V("userID", userID), goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get mistake", goerr.V("userID", userID), goerr.V("id", id))
	}

	var doc mistakeDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal mistake", goerr.V("userID", userID), goerr.V("id", id))
	}
	return mistakeToModel(&doc), nil
}

func (r *mistakeRepository) Put(ctx context.Context, userID string, mistake *model.Mistake) error {
	if mistake.ID == "" {
		return goerr.Wrap(model.ErrInvalidMistake, "id is required")
	}

	doc := mistakeToDocument(userID, mistake)
	if _, err := r.mistakes(userID).Doc(doc.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put mistake", goerr.V("userID", userID), goerr.V("id", mistake.ID))
	}
	return nil
}

func (r *mistakeRepository) Merge(ctx context.Context, userID string, mistake *model.Mistake) error {
	if mistake.ID == "" {
		return goerr.Wrap(model.ErrInvalidMistake, "id is required")
	}

	fields := mergeFields(userID, mistake)
	if _, err := r.mistakes(userID).Doc(string(mistake.ID)).Set(ctx, fields, firestore.MergeAll); err != nil {
		return goerr.Wrap(err, "failed to merge mistake", goerr.V("userID", userID), goerr.V("id", mistake.ID))
	}
	return nil
}

func (r *mistakeRepository) Delete(ctx context.Context, userID string, id model.MistakeID) error {
	if _, err := r.mistakes(userID).Doc(string(id)).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return goerr.Wrap(err, "failed to delete mistake", goerr.V("userID", userID), goerr.V("id", id))
	}
	return nil
}
