package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/cli/config"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// globals is shared by every subcommand after the root Before hook ran
type globals struct {
	configPath string
	app        *config.AppConfig
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return goerr.Wrap(err, "failed to load .env")
	}
	return nil
}

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closers []func()
	g := &globals{}

	if err := loadDotEnv(); err != nil {
		logging.Default().Error("failed to load environment", "error", err)
		return err
	}

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "TOML file with upload and inference tunables",
			Sources:     cli.EnvVars("WRONGBOOK_CONFIG"),
			Destination: &g.configPath,
		},
	}
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "wrongbook",
		Usage:   "Mistake notebook with AI tutoring",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, f)

			s, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, s)

			g.app, err = config.LoadAppConfig(g.configPath)
			if err != nil {
				return ctx, err
			}

			logging.Default().Info("Starting wrongbook",
				"logger", loggerCfg,
				"sentry", sentryCfg,
				"config", g.configPath,
			)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(g),
			cmdExport(g),
			cmdImport(g),
			cmdClear(g),
			cmdAnalyze(g),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}

func stdout(c *cli.Command) io.Writer {
	if w := c.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(c *cli.Command) io.Writer {
	if w := c.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
