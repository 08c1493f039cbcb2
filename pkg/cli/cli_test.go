package cli_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/wrongbook/pkg/cli"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
	"github.com/secmon-lab/wrongbook/pkg/repository/sqlite"
)

func seedLocal(t *testing.T, path string, questions ...string) {
	t.Helper()
	store, err := sqlite.New(path)
	gt.NoError(t, err).Required()
	for _, q := range questions {
		gt.NoError(t, store.Create(context.Background(), model.NewMistake("https://example.com/q.jpg", q, types.SubjectMath))).Required()
	}
}

func TestRun_ExportImport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	dst := filepath.Join(dir, "dst.db")
	exported := filepath.Join(dir, "export.json")
	seedLocal(t, src, "first", "second")

	err := cli.Run(context.Background(), []string{"wrongbook", "export", "--local-path", src, "--output", exported}, "test")
	gt.NoError(t, err).Required()

	data, err := os.ReadFile(exported)
	gt.NoError(t, err).Required()
	var records []*model.Mistake
	gt.NoError(t, json.Unmarshal(data, &records)).Required()
	gt.Array(t, records).Length(2)

	err = cli.Run(context.Background(), []string{"wrongbook", "import", "--local-path", dst, "--input", exported}, "test")
	gt.NoError(t, err).Required()

	store, err := sqlite.New(dst)
	gt.NoError(t, err).Required()
	list, err := store.ListAll(context.Background())
	gt.NoError(t, err).Required()
	gt.Array(t, list).Length(2)
}

func TestRun_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")
	seedLocal(t, path, "only")

	t.Run("requires confirmation", func(t *testing.T) {
		err := cli.Run(context.Background(), []string{"wrongbook", "clear", "--local-path", path}, "test")
		gt.Value(t, err).NotNil()
	})

	t.Run("clears with --yes", func(t *testing.T) {
		err := cli.Run(context.Background(), []string{"wrongbook", "clear", "--local-path", path, "--yes"}, "test")
		gt.NoError(t, err).Required()

		store, err := sqlite.New(path)
		gt.NoError(t, err).Required()
		list, err := store.ListAll(context.Background())
		gt.NoError(t, err).Required()
		gt.Array(t, list).Length(0)
	})
}

func TestRun_AnalyzeWithoutGemini(t *testing.T) {
	image := filepath.Join(t.TempDir(), "q.png")
	gt.NoError(t, os.WriteFile(image, []byte("\x89PNG\r\n\x1a\nfake"), 0600)).Required()

	err := cli.Run(context.Background(), []string{"wrongbook", "analyze", "--local-backend", "memory", "--image", image}, "test")
	gt.Value(t, err).NotNil()
}

func TestRun_InvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrongbook.toml")
	gt.NoError(t, os.WriteFile(path, []byte("[inference]\nmax_attempts = 0\n"), 0600)).Required()

	err := cli.Run(context.Background(), []string{"wrongbook", "--config", path, "export", "--local-backend", "memory"}, "test")
	gt.Value(t, err).NotNil()
}
