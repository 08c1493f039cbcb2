package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/usecase"
)

func TestErrors_SentinelErrors(t *testing.T) {
	sentinels := []error{
		usecase.ErrRemoteNotConfigured,
		usecase.ErrTutorNotConfigured,
		usecase.ErrClearNotSupported,
		usecase.ErrUnknownIdentity,
		usecase.ErrInvalidToken,
	}

	for i, a := range sentinels {
		gt.Value(t, a).NotNil()
		for j, b := range sentinels {
			if i != j {
				gt.Bool(t, errors.Is(a, b)).False()
			}
		}
	}
}

func TestErrors_SurviveWrapping(t *testing.T) {
	err := goerr.Wrap(errors.Join(usecase.ErrInvalidToken, errors.New("bad signature")), "verify failed")
	gt.Error(t, err).Is(usecase.ErrInvalidToken)
	gt.Bool(t, errors.Is(err, model.ErrNotFound)).False()
}
