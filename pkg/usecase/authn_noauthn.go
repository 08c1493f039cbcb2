package usecase

import (
	"context"

	"github.com/secmon-lab/wrongbook/pkg/domain/model"
)

// NoAuthnVerifier accepts any token as a fixed user (for development/testing)
type NoAuthnVerifier struct {
	userID string
}

var _ IdentityVerifier = &NoAuthnVerifier{}

func NewNoAuthnVerifier(userID string) *NoAuthnVerifier {
	return &NoAuthnVerifier{userID: userID}
}

// Verify always returns the configured user
func (v *NoAuthnVerifier) Verify(ctx context.Context, token string) (model.Identity, error) {
	return model.Authenticated{UserID: v.userID}, nil
}
