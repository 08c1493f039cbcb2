package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
	"github.com/secmon-lab/wrongbook/pkg/utils/safe"

	_ "modernc.org/sqlite"
)

// schemaVersion is stored in PRAGMA user_version
const schemaVersion = 1

const createSchema = `
CREATE TABLE IF NOT EXISTS mistakes (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mistakes_created_at ON mistakes (created_at DESC);
`

const upsertMistake = `
INSERT INTO mistakes (id, created_at, data) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET created_at = excluded.created_at, data = excluded.data`

// Store is the on-device mistake store. The database is opened for each
// operation and closed afterwards, so no handle outlives a call.
type Store struct {
	path string
}

var _ interfaces.LocalStore = &Store{}

// New creates a Store backed by the SQLite file at path. Parent directories
// are created when missing.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, goerr.New("local store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, goerr.Wrap(errors.Join(model.ErrStorageUnavailable, err), "failed to create local store directory", goerr.V("path", path))
	}
	return &Store{path: path}, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, goerr.Wrap(errors.Join(model.ErrStorageUnavailable, err), "failed to open local store", goerr.V("path", s.path))
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			safe.Close(ctx, db)
			return nil, goerr.Wrap(errors.Join(model.ErrStorageUnavailable, err), "failed to configure local store", goerr.V("path", s.path), goerr.V("pragma", pragma))
		}
	}

	if err := migrate(ctx, db); err != nil {
		safe.Close(ctx, db)
		return nil, goerr.Wrap(errors.Join(model.ErrStorageUnavailable, err), "failed to migrate local store", goerr.V("path", s.path))
	}

	return db, nil
}

// migrate applies the single upgrade step that creates the collection
func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return goerr.Wrap(err, "failed to read schema version")
	}
	if version >= schemaVersion {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin migration")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, createSchema); err != nil {
		return goerr.Wrap(err, "failed to create schema")
	}
	if _, err := tx.ExecContext(ctx, "PRAGMA user_version = 1"); err != nil {
		return goerr.Wrap(err, "failed to record schema version")
	}
	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit migration")
	}

	logging.From(ctx).Debug("local store schema created", "version", schemaVersion)
	return nil
}

func encode(m *model.Mistake) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode mistake", goerr.V("id", m.ID))
	}
	return string(data), nil
}

func (s *Store) ListAll(ctx context.Context) ([]*model.Mistake, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, db)

	rows, err := db.QueryContext(ctx, "SELECT data FROM mistakes ORDER BY created_at DESC")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query mistakes")
	}
	defer safe.Close(ctx, rows)

	mistakes := make([]*model.Mistake, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, goerr.Wrap(err, "failed to scan mistake")
		}

		var m model.Mistake
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return nil, goerr.Wrap(err, "failed to decode mistake")
		}
		mistakes = append(mistakes, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate mistakes")
	}

	return mistakes, nil
}

func (s *Store) Create(ctx context.Context, mistake *model.Mistake) error {
	if mistake.ID == "" {
		return goerr.Wrap(model.ErrInvalidMistake, "id is required")
	}
	data, err := encode(mistake)
	if err != nil {
		return err
	}

	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer safe.Close(ctx, db)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM mistakes WHERE id = ?", mistake.ID.String()).Scan(&exists); err != nil {
		return goerr.Wrap(err, "failed to check mistake", goerr.V("id", mistake.ID))
	}
	if exists > 0 {
		return goerr.Wrap(model.ErrDuplicateKey, "mistake already exists", goerr.V("id", mistake.ID))
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO mistakes (id, created_at, data) VALUES (?, ?, ?)",
		mistake.ID.String(), mistake.CreatedAt, data); err != nil {
		return goerr.Wrap(err, "failed to insert mistake", goerr.V("id", mistake.ID))
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit mistake", goerr.V("id", mistake.ID))
	}
	return nil
}

func (s *Store) Update(ctx context.Context, mistake *model.Mistake) error {
	if mistake.ID == "" {
		return goerr.Wrap(model.ErrInvalidMistake, "id is required")
	}
	data, err := encode(mistake)
	if err != nil {
		return err
	}

	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer safe.Close(ctx, db)

	if _, err := db.ExecContext(ctx, upsertMistake, mistake.ID.String(), mistake.CreatedAt, data); err != nil {
		return goerr.Wrap(err, "failed to update mistake", goerr.V("id", mistake.ID))
	}
	return nil
}

func (s *Store) BulkImport(ctx context.Context, mistakes []*model.Mistake) (*model.ImportResult, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, db)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to begin import transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertMistake)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare import statement")
	}
	defer safe.Close(ctx, stmt)

	logger := logging.From(ctx)
	result := &model.ImportResult{}
	for i, m := range mistakes {
		if m == nil {
			result.Skipped++
			continue
		}
		if err := m.Validate(); err != nil {
			logger.Warn("skip invalid mistake on import", "index", i, "error", err)
			result.Skipped++
			continue
		}

		data, err := encode(m)
		if err != nil {
			logger.Warn("skip unencodable mistake on import", "index", i, "error", err)
			result.Skipped++
			continue
		}

		if _, err := stmt.ExecContext(ctx, m.ID.String(), m.CreatedAt, data); err != nil {
			return nil, goerr.Wrap(err, "failed to import mistake", goerr.V("id", m.ID), goerr.V("index", i))
		}
		result.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, goerr.Wrap(err, "failed to commit import")
	}
	return result, nil
}

func (s *Store) Delete(ctx context.Context, id model.MistakeID) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer safe.Close(ctx, db)

	if _, err := db.ExecContext(ctx, "DELETE FROM mistakes WHERE id = ?", id.String()); err != nil {
		return goerr.Wrap(err, "failed to delete mistake", goerr.V("id", id))
	}
	return nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer safe.Close(ctx, db)

	if _, err := db.ExecContext(ctx, "DELETE FROM mistakes"); err != nil {
		return goerr.Wrap(err, "failed to clear mistakes")
	}
	return nil
}
