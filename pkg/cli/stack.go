package cli

import (
	"context"
	"log/slog"

	"github.com/secmon-lab/wrongbook/pkg/cli/config"
	"github.com/secmon-lab/wrongbook/pkg/usecase"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// stack bundles the storage and inference configuration shared by commands
type stack struct {
	local  config.LocalStore
	remote config.Remote
	blob   config.Blob
	gemini config.Gemini
	auth   config.Auth
}

func (s *stack) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, s.local.Flags()...)
	flags = append(flags, s.remote.Flags()...)
	flags = append(flags, s.blob.Flags()...)
	flags = append(flags, s.gemini.Flags()...)
	flags = append(flags, s.auth.Flags()...)
	return flags
}

// build wires the use cases. The returned closer releases every client.
func (s *stack) build(ctx context.Context, app *config.AppConfig) (*usecase.UseCases, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	local, err := s.local.Configure()
	if err != nil {
		return nil, nil, err
	}

	var opts []usecase.Option

	docs, err := s.remote.Configure(ctx)
	if err != nil {
		return nil, nil, err
	}
	if docs != nil {
		closers = append(closers, func() {
			if err := docs.Close(); err != nil {
				logging.Default().Error("failed to close remote store", "error", err.Error())
			}
		})

		blobs, closeBlobs, err := s.blob.Configure(ctx)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, closeBlobs)

		remoteOpts := app.RemoteOptions()
		if blobs != nil {
			remoteOpts = append(remoteOpts, usecase.WithBlobStore(blobs))
		} else {
			logging.Default().Warn("No blob store configured, images stay inline in remote documents")
		}
		opts = append(opts, usecase.WithRemote(usecase.NewRemoteStore(docs, remoteOpts...)))
	}

	tutor, err := s.gemini.Configure(ctx, app)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	if tutor != nil {
		opts = append(opts, usecase.WithTutor(tutor))
		logging.Default().LogAttrs(ctx, slog.LevelInfo, "Inference client enabled", s.gemini.LogAttrs()...)
	} else {
		logging.Default().Info("Gemini not configured, analysis features are disabled")
	}

	if verifier := s.auth.Configure(); verifier != nil {
		opts = append(opts, usecase.WithVerifier(verifier))
	}

	return usecase.New(local, opts...), closeAll, nil
}

// identityFlag selects whose records a maintenance command operates on
func identityFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "uid",
		Usage:       "Operate on the remote records of this user ID instead of the local store",
		Sources:     cli.EnvVars("WRONGBOOK_UID"),
		Destination: dst,
	}
}
