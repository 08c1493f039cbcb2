package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
)

// Firestore is the remote document store for authenticated users
type Firestore struct {
	client  *firestore.Client
	mistake *mistakeRepository
}

var _ interfaces.DocumentStore = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix isolates collections, mainly for tests sharing a database
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.mistake.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	f := &Firestore{
		client:  client,
		mistake: newMistakeRepository(client),
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) List(ctx context.Context, userID string) ([]*model.Mistake, error) {
	return f.mistake.List(ctx, userID)
}

func (f *Firestore) Get(ctx context.Context, userID string, id model.MistakeID) (*model.Mistake, error) {
	return f.mistake.Get(ctx, userID, id)
}

func (f *Firestore) Put(ctx context.Context, userID string, mistake *model.Mistake) error {
	return f.mistake.Put(ctx, userID, mistake)
}

func (f *Firestore) Merge(ctx context.Context, userID string, mistake *model.Mistake) error {
	return f.mistake.Merge(ctx, userID, mistake)
}

func (f *Firestore) Delete(ctx context.Context, userID string, id model.MistakeID) error {
	return f.mistake.Delete(ctx, userID, id)
}

func (f *Firestore) Close() error {
	if err := f.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close firestore client")
	}
	return nil
}
