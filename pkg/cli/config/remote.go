package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/repository/firestore"
	"github.com/secmon-lab/wrongbook/pkg/repository/memory"
	"github.com/secmon-lab/wrongbook/pkg/repository/mongo"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Remote holds flags for the document store serving authenticated users
type Remote struct {
	backend          string
	projectID        string
	databaseID       string
	collectionPrefix string
	mongoURI         string
	mongoDatabase    string
}

func (x *Remote) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "remote-backend",
			Usage:       "Remote document store (firestore, mongo, memory). Empty disables signed-in storage",
			Category:    "Remote store",
			Sources:     cli.EnvVars("WRONGBOOK_REMOTE_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Remote store",
			Sources:     cli.EnvVars("WRONGBOOK_FIRESTORE_PROJECT_ID"),
			Destination: &x.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Remote store",
			Sources:     cli.EnvVars("WRONGBOOK_FIRESTORE_DATABASE_ID"),
			Destination: &x.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix for Firestore root collections",
			Category:    "Remote store",
			Sources:     cli.EnvVars("WRONGBOOK_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &x.collectionPrefix,
		},
		&cli.StringFlag{
			Name:        "mongo-uri",
			Usage:       "MongoDB connection URI (required when using mongo backend)",
			Category:    "Remote store",
			Sources:     cli.EnvVars("WRONGBOOK_MONGO_URI"),
			Destination: &x.mongoURI,
		},
		&cli.StringFlag{
			Name:        "mongo-database",
			Usage:       "MongoDB database name",
			Category:    "Remote store",
			Value:       "wrongbook",
			Sources:     cli.EnvVars("WRONGBOOK_MONGO_DATABASE"),
			Destination: &x.mongoDatabase,
		},
	}
}

func (x Remote) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("firestore_project_id", x.projectID),
		slog.String("firestore_database_id", x.databaseID),
		slog.String("mongo_database", x.mongoDatabase),
		slog.Bool("mongo_uri_set", x.mongoURI != ""),
	)
}

// Configure returns nil when no remote backend is selected. The caller is
// responsible for calling Close() on the returned store.
func (x *Remote) Configure(ctx context.Context) (interfaces.DocumentStore, error) {
	switch x.backend {
	case "":
		return nil, nil

	case "firestore":
		if x.projectID == "" {
			return nil, goerr.Wrap(ErrMissingArgument, "firestore-project-id is required when using firestore backend")
		}
		var opts []firestore.Option
		if x.collectionPrefix != "" {
			opts = append(opts, firestore.WithCollectionPrefix(x.collectionPrefix))
		}
		store, err := firestore.New(ctx, x.projectID, x.databaseID, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore store")
		}
		logging.Default().Info("Using Firestore remote store",
			"project_id", x.projectID,
			"database_id", x.databaseID,
		)
		return store, nil

	case "mongo":
		if x.mongoURI == "" {
			return nil, goerr.Wrap(ErrMissingArgument, "mongo-uri is required when using mongo backend")
		}
		store, err := mongo.New(ctx, x.mongoURI, x.mongoDatabase)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize mongo store")
		}
		logging.Default().Info("Using MongoDB remote store", "database", x.mongoDatabase)
		return store, nil

	case "memory":
		logging.Default().Info("Using in-memory remote store (development mode)")
		return memory.NewDocumentStore(), nil

	default:
		return nil, goerr.Wrap(ErrUnknownBackend, "invalid remote backend", goerr.V(BackendKey, x.backend))
	}
}
