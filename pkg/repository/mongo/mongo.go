package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "mistakes"

type tokenUsageDocument struct {
	PromptTokens     int `bson:"promptTokens"`
	CandidatesTokens int `bson:"candidatesTokens"`
	TotalTokens      int `bson:"totalTokens"`
}

type mistakeDocument struct {
	Key               string              `bson:"_id"`
	ID                string              `bson:"id"`
	UserID            string              `bson:"userId"`
	CreatedAt         int64               `bson:"createdAt"`
	ImageURL          string              `bson:"imageUrl"`
	ImageBase64       string              `bson:"imageBase64,omitempty"`
	QuestionText      string              `bson:"questionText"`
	UserNotes         string              `bson:"userNotes"`
	UserCorrectAnswer string              `bson:"userCorrectAnswer,omitempty"`
	Reflection        string              `bson:"reflection,omitempty"`
	ReflectionImage   string              `bson:"reflectionImage,omitempty"`
	AISolution        string              `bson:"aiSolution,omitempty"`
	AIAnalysis        string              `bson:"aiAnalysis,omitempty"`
	AIDiagram         string              `bson:"aiDiagram,omitempty"`
	AITokenUsage      *tokenUsageDocument `bson:"aiTokenUsage,omitempty"`
	Tags              []string            `bson:"tags"`
	Subject           string              `bson:"subject"`
	Mastery           string              `bson:"mastery"`
	ReviewCount       int                 `bson:"reviewCount"`
}

func documentKey(userID string, id model.MistakeID) string {
	return userID + "/" + string(id)
}

func toDocument(userID string, m *model.Mistake) *mistakeDocument {
	doc := &mistakeDocument{
		Key:               documentKey(userID, m.ID),
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

func toModel(doc *mistakeDocument) *model.Mistake {
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

// mergeUpdate returns the update document of a merge write. Empty optional
// fields are unset. The image backup is only set when present, so a stored
// backup survives edits that leave it empty.
func mergeUpdate(userID string, m *model.Mistake) bson.M {
	doc := toDocument(userID, m)
	set := bson.M{
		"id":           doc.ID,
		"userId":       doc.UserID,
		"createdAt":    doc.CreatedAt,
		"imageUrl":     doc.ImageURL,
		"questionText": doc.QuestionText,
		"userNotes":    doc.UserNotes,
		"tags":         doc.Tags,
		"subject":      doc.Subject,
		"mastery":      doc.Mastery,
		"reviewCount":  doc.ReviewCount,
	}
	unset := bson.M{}

	if doc.ImageBase64 != "" {
		set["imageBase64"] = doc.ImageBase64
	}

	optional := map[string]string{
		"userCorrectAnswer": doc.UserCorrectAnswer,
		"reflection":        doc.Reflection,
		"reflectionImage":   doc.ReflectionImage,
		"aiSolution":        doc.AISolution,
		"aiAnalysis":        doc.AIAnalysis,
		"aiDiagram":         doc.AIDiagram,
	}
	for key, value := range optional {
		if value == "" {
			unset[key] = ""
			continue
		}
		set[key] = value
	}
	if doc.AITokenUsage != nil {
		set["aiTokenUsage"] = doc.AITokenUsage
	} else {
		unset["aiTokenUsage"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

// Store is a DocumentStore backed by a single MongoDB collection
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ interfaces.DocumentStore = &Store{}

func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect mongodb", goerr.V("database", database))
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, goerr.Wrap(err, "failed to ping mongodb", goerr.V("database", database))
	}

	coll := client.Database(database).Collection(collectionName)
	index := mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	}
	if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
		_ = client.Disconnect(ctx)
		return nil, goerr.Wrap(err, "failed to create index", goerr.V("database", database))
	}

	return &Store{client: client, collection: coll}, nil
}

func (s *Store) List(ctx context.Context, userID string) ([]*model.Mistake, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find mistakes", goerr.V("userID", userID))
	}
	defer func() { _ = cursor.Close(ctx) }()

	mistakes := []*model.Mistake{}
	for cursor.Next(ctx) {
		var doc mistakeDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode mistake", goerr.V("userID", userID))
		}
		mistakes = append(mistakes, toModel(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate mistakes", goerr.V("userID", userID))
	}

	return mistakes, nil
}

func (s *Store) Get(ctx context.Context, userID string, id model.MistakeID) (*model.Mistake, error) {
	var doc mistakeDocument
	if err := s.collection.FindOne(ctx, bson.M{"_id": documentKey(userID, id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(model.ErrNotFound, "mistake does not exist", goerr.V("userID", userID), goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to find mistake", goerr.V("userID", userID), goerr.V("id", id))
	}
	return toModel(&doc), nil
}

func (s *Store) Put(ctx context.Context, userID string, mistake *model.Mistake) error {
	if mistake.ID == "" {
		return goerr.Wrap(model.ErrInvalidMistake, "id is required")
	}

	doc := toDocument(userID, mistake)
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": doc.Key}, doc, opts); err != nil {
		return goerr.Wrap(err, "failed to put mistake", goerr.V("userID", userID), goerr.V("id", mistake.ID))
	}
	return nil
}

func (s *Store) Merge(ctx context.Context, userID string, mistake *model.Mistake) error {
	if mistake.ID == "" {
		return goerr.Wrap(model.ErrInvalidMistake, "id is required")
	}

	filter := bson.M{"_id": documentKey(userID, mistake.ID)}
	opts := options.Update().SetUpsert(true)
	if _, err := s.collection.UpdateOne(ctx, filter, mergeUpdate(userID, mistake), opts); err != nil {
		return goerr.Wrap(err, "failed to merge mistake", goerr.V("userID", userID), goerr.V("id", mistake.ID))
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID string, id model.MistakeID) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": documentKey(userID, id)}); err != nil {
		return goerr.Wrap(err, "failed to delete mistake", goerr.V("userID", userID), goerr.V("id", id))
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return goerr.Wrap(err, "failed to disconnect mongodb")
	}
	return nil
}
