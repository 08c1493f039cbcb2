package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/repository/memory"
	"github.com/secmon-lab/wrongbook/pkg/repository/sqlite"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// LocalStore holds flags for the anonymous (this device) store
type LocalStore struct {
	backend string
	path    string
}

func (x *LocalStore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "local-backend",
			Usage:       "Local store backend (sqlite or memory)",
			Category:    "Local store",
			Value:       "sqlite",
			Sources:     cli.EnvVars("WRONGBOOK_LOCAL_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "local-path",
			Usage:       "SQLite database file for the local store",
			Category:    "Local store",
			Value:       "wrongbook.db",
			Sources:     cli.EnvVars("WRONGBOOK_LOCAL_PATH"),
			Destination: &x.path,
		},
	}
}

func (x LocalStore) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("path", x.path),
	)
}

func (x *LocalStore) Configure() (interfaces.LocalStore, error) {
	switch x.backend {
	case "sqlite":
		store, err := sqlite.New(x.path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize local store", goerr.V("path", x.path))
		}
		logging.Default().Info("Using SQLite local store", "path", x.path)
		return store, nil

	case "memory":
		logging.Default().Info("Using in-memory local store (development mode)")
		return memory.NewLocalStore(), nil

	default:
		return nil, goerr.Wrap(ErrUnknownBackend, "invalid local store backend", goerr.V(BackendKey, x.backend))
	}
}
