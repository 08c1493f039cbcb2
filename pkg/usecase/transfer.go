package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// defaultImportConcurrency bounds concurrent remote upserts during import
const defaultImportConcurrency = 8

// TransferUseCase moves whole collections in and out as JSON arrays
type TransferUseCase struct {
	local       interfaces.LocalStore
	mistakes    *MistakeUseCase
	remote      *RemoteStore
	concurrency int
}

func NewTransferUseCase(local interfaces.LocalStore, mistakes *MistakeUseCase, remote *RemoteStore) *TransferUseCase {
	return &TransferUseCase{
		local:       local,
		mistakes:    mistakes,
		remote:      remote,
		concurrency: defaultImportConcurrency,
	}
}

// Export writes the full collection of identity as an indented JSON array
func (uc *TransferUseCase) Export(ctx context.Context, identity model.Identity, w io.Writer) error {
	mistakes, err := uc.mistakes.ListAll(ctx, identity)
	if err != nil {
		return err
	}
	if mistakes == nil {
		mistakes = []*model.Mistake{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(mistakes); err != nil {
		return goerr.Wrap(err, "failed to encode export", goerr.V("count", len(mistakes)))
	}
	return nil
}

// Import reads a JSON array of mistakes and upserts the valid ones
func (uc *TransferUseCase) Import(ctx context.Context, identity model.Identity, r io.Reader) (*model.ImportResult, error) {
	var records []*model.Mistake
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, goerr.Wrap(errors.Join(model.ErrInvalidMistake, err), "import payload must be a JSON array of mistakes")
	}

	for _, m := range records {
		if m != nil {
			m.Mastery = m.Mastery.Normalize()
			if m.Tags == nil {
				m.Tags = []string{}
			}
		}
	}

	switch id := identity.(type) {
	case model.Anonymous:
		return uc.local.BulkImport(ctx, records)
	case model.Authenticated:
		if uc.remote == nil {
			return nil, goerr.Wrap(ErrRemoteNotConfigured, "cannot import for authenticated identity")
		}
		return uc.importRemote(ctx, id.UserID, records)
	default:
		return nil, goerr.Wrap(ErrUnknownIdentity, "failed to import", goerr.V("identity", identity))
	}
}

func (uc *TransferUseCase) importRemote(ctx context.Context, userID string, records []*model.Mistake) (*model.ImportResult, error) {
	var imported, skipped atomic.Int64

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.concurrency)

	for _, m := range records {
		if m == nil || m.Validate() != nil {
			skipped.Add(1)
			continue
		}

		eg.Go(func() error {
			if _, err := uc.remote.Create(ctx, userID, m); err != nil {
				return goerr.Wrap(err, "failed to import mistake", goerr.V("id", m.ID))
			}
			imported.Add(1)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result := &model.ImportResult{
		Imported: int(imported.Load()),
		Skipped:  int(skipped.Load()),
	}
	logging.From(ctx).Info("imported mistakes",
		"userID", userID,
		"imported", result.Imported,
		"skipped", result.Skipped,
	)
	return result, nil
}

// Clear removes every mistake of the anonymous identity
func (uc *TransferUseCase) Clear(ctx context.Context, identity model.Identity) error {
	if _, ok := identity.(model.Anonymous); !ok {
		return goerr.Wrap(ErrClearNotSupported, "refusing to clear", goerr.V("identity", identity.String()))
	}
	return uc.local.ClearAll(ctx)
}
