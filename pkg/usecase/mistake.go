package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
)

// MistakeUseCase routes every persistence call to the backend owned by the
// caller's identity. Backend errors are returned unchanged and never retried.
type MistakeUseCase struct {
	local  interfaces.LocalStore
	remote *RemoteStore
}

func NewMistakeUseCase(local interfaces.LocalStore, remote *RemoteStore) *MistakeUseCase {
	return &MistakeUseCase{
		local:  local,
		remote: remote,
	}
}

func (uc *MistakeUseCase) remoteFor(id model.Authenticated) (*RemoteStore, error) {
	if uc.remote == nil {
		return nil, goerr.Wrap(ErrRemoteNotConfigured, "cannot serve authenticated identity", goerr.V("identity", id.String()))
	}
	return uc.remote, nil
}

func (uc *MistakeUseCase) ListAll(ctx context.Context, identity model.Identity) ([]*model.Mistake, error) {
	switch id := identity.(type) {
	case model.Anonymous:
		return uc.local.ListAll(ctx)
	case model.Authenticated:
		remote, err := uc.remoteFor(id)
		if err != nil {
			return nil, err
		}
		return remote.ListAll(ctx, id.UserID)
	default:
		return nil, goerr.Wrap(ErrUnknownIdentity, "failed to list mistakes", goerr.V("identity", identity))
	}
}

// Create stores a new mistake. Missing id, createdAt and mastery are filled
// in first. The returned record carries the resolved image URL.
func (uc *MistakeUseCase) Create(ctx context.Context, identity model.Identity, mistake *model.Mistake) (*model.Mistake, error) {
	m := mistake.Clone()
	if m.ID == "" {
		m.ID = model.NewMistakeID()
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().UnixMilli()
	}
	m.Mastery = m.Mastery.Normalize()
	if m.Tags == nil {
		m.Tags = []string{}
	}

	switch id := identity.(type) {
	case model.Anonymous:
		if err := uc.local.Create(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	case model.Authenticated:
		remote, err := uc.remoteFor(id)
		if err != nil {
			return nil, err
		}
		return remote.Create(ctx, id.UserID, m)
	default:
		return nil, goerr.Wrap(ErrUnknownIdentity, "failed to create mistake", goerr.V("identity", identity))
	}
}

// Update replaces the stored record with mistake
func (uc *MistakeUseCase) Update(ctx context.Context, identity model.Identity, mistake *model.Mistake) (*model.Mistake, error) {
	if mistake.ID == "" {
		return nil, goerr.Wrap(model.ErrInvalidMistake, "id is required for update")
	}

	switch id := identity.(type) {
	case model.Anonymous:
		m := mistake.Clone()
		if err := uc.local.Update(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	case model.Authenticated:
		remote, err := uc.remoteFor(id)
		if err != nil {
			return nil, err
		}
		return remote.Update(ctx, id.UserID, mistake)
	default:
		return nil, goerr.Wrap(ErrUnknownIdentity, "failed to update mistake", goerr.V("identity", identity))
	}
}

// Delete removes a mistake. imageRef is the record's image reference, used
// for best-effort blob cleanup in the remote backend.
func (uc *MistakeUseCase) Delete(ctx context.Context, identity model.Identity, mistakeID model.MistakeID, imageRef string) (*model.Cleanup, error) {
	switch id := identity.(type) {
	case model.Anonymous:
		if err := uc.local.Delete(ctx, mistakeID); err != nil {
			return nil, err
		}
		return &model.Cleanup{}, nil
	case model.Authenticated:
		remote, err := uc.remoteFor(id)
		if err != nil {
			return nil, err
		}
		return remote.Delete(ctx, id.UserID, mistakeID, imageRef)
	default:
		return nil, goerr.Wrap(ErrUnknownIdentity, "failed to delete mistake", goerr.V("identity", identity))
	}
}
