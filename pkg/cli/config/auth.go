package config

import (
	"log/slog"

	"github.com/secmon-lab/wrongbook/pkg/usecase"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Auth selects how bearer tokens are turned into identities
type Auth struct {
	firebaseProject string
	noAuthnUID      string
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firebase-project-id",
			Usage:       "Firebase project whose ID tokens are accepted",
			Category:    "Authentication",
			Sources:     cli.EnvVars("WRONGBOOK_FIREBASE_PROJECT_ID"),
			Destination: &x.firebaseProject,
		},
		&cli.StringFlag{
			Name:        "no-authn",
			Usage:       "Skip token verification and treat every bearer token as the given user ID (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("WRONGBOOK_NO_AUTHN"),
			Destination: &x.noAuthnUID,
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("firebase_project_id", x.firebaseProject),
		slog.Bool("no_authn", x.noAuthnUID != ""),
	)
}

// Configure returns nil when no verification is configured; signed-in
// requests are then rejected.
func (x *Auth) Configure() usecase.IdentityVerifier {
	switch {
	case x.noAuthnUID != "":
		logging.Default().Warn("Running in no-authn mode (development only)", "user_id", x.noAuthnUID)
		return usecase.NewNoAuthnVerifier(x.noAuthnUID)
	case x.firebaseProject != "":
		logging.Default().Info("Firebase ID token verification enabled", "project_id", x.firebaseProject)
		return usecase.NewFirebaseVerifier(x.firebaseProject)
	default:
		return nil
	}
}
