package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
	"github.com/secmon-lab/wrongbook/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

var errMissingConfirmation = goerr.New("refusing to clear without --yes")

func cmdExport(g *globals) *cli.Command {
	var output string
	var uid string
	var st stack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output file (- for stdout)",
			Value:       "-",
			Destination: &output,
		},
		identityFlag(&uid),
	}
	flags = append(flags, st.Flags()...)

	return &cli.Command{
		Name:  "export",
		Usage: "Export mistakes as a JSON array",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := st.build(ctx, g.app)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}
			defer closer()

			var w io.Writer = stdout(c)
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return goerr.Wrap(err, "failed to create output file", goerr.V("path", output))
				}
				defer safe.Close(ctx, f)
				w = f
			}

			if err := uc.Transfer.Export(ctx, model.NewIdentity(uid), w); err != nil {
				return goerr.Wrap(err, "failed to export mistakes")
			}

			if output != "-" {
				_, _ = color.New(color.FgGreen).Fprintf(stderr(c), "exported to %s\n", output)
			}
			return nil
		},
	}
}

func cmdImport(g *globals) *cli.Command {
	var input string
	var uid string
	var st stack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "JSON array file produced by export (- for stdin)",
			Required:    true,
			Destination: &input,
		},
		identityFlag(&uid),
	}
	flags = append(flags, st.Flags()...)

	return &cli.Command{
		Name:  "import",
		Usage: "Import mistakes, upserting valid records and skipping invalid ones",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := st.build(ctx, g.app)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}
			defer closer()

			var r io.Reader = os.Stdin
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return goerr.Wrap(err, "failed to open input file", goerr.V("path", input))
				}
				defer safe.Close(ctx, f)
				r = f
			}

			result, err := uc.Transfer.Import(ctx, model.NewIdentity(uid), r)
			if err != nil {
				return goerr.Wrap(err, "failed to import mistakes")
			}

			logging.From(ctx).Info("Import finished", "imported", result.Imported, "skipped", result.Skipped)
			printImportResult(stderr(c), result)
			return nil
		},
	}
}

func printImportResult(w io.Writer, result *model.ImportResult) {
	_, _ = color.New(color.FgGreen, color.Bold).Fprintf(w, "imported: %d\n", result.Imported)
	skipped := color.New(color.FgHiBlack)
	if result.Skipped > 0 {
		skipped = color.New(color.FgYellow)
	}
	_, _ = skipped.Fprintf(w, "skipped:  %d\n", result.Skipped)
}

func cmdClear(g *globals) *cli.Command {
	var yes bool
	var st stack

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "yes",
			Aliases:     []string{"y"},
			Usage:       "Confirm deleting every record in the local store",
			Destination: &yes,
		},
	}
	flags = append(flags, st.Flags()...)

	return &cli.Command{
		Name:  "clear",
		Usage: "Delete every mistake in the local store",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if !yes {
				return errMissingConfirmation
			}

			uc, closer, err := st.build(ctx, g.app)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}
			defer closer()

			if err := uc.Transfer.Clear(ctx, model.Anonymous{}); err != nil {
				return goerr.Wrap(err, "failed to clear local store")
			}

			_, _ = fmt.Fprintln(stderr(c), color.RedString("local store cleared"))
			return nil
		},
	}
}
