package usecase

import (
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
)

type UseCases struct {
	local  interfaces.LocalStore
	remote *RemoteStore
	tutor  interfaces.Tutor

	Mistake  *MistakeUseCase
	Transfer *TransferUseCase
	Tutor    *TutorUseCase
	Verifier IdentityVerifier
}

type Option func(*UseCases)

// WithRemote serves authenticated identities from remote
func WithRemote(remote *RemoteStore) Option {
	return func(uc *UseCases) {
		uc.remote = remote
	}
}

func WithTutor(tutor interfaces.Tutor) Option {
	return func(uc *UseCases) {
		uc.tutor = tutor
	}
}

func WithVerifier(verifier IdentityVerifier) Option {
	return func(uc *UseCases) {
		uc.Verifier = verifier
	}
}

func New(local interfaces.LocalStore, opts ...Option) *UseCases {
	uc := &UseCases{
		local: local,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Mistake = NewMistakeUseCase(local, uc.remote)
	uc.Transfer = NewTransferUseCase(local, uc.Mistake, uc.remote)
	uc.Tutor = NewTutorUseCase(uc.tutor, uc.Mistake)

	return uc
}
