package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/practicelog/internal/shared"
	"github.com/desertthunder/practicelog/internal/ui"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	app := &cli.Command{
		Name:    "practice",
		Usage:   "Track practice sessions and the pieces practiced in them",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		runner.Close()

		var appErr *shared.Error
		if errors.As(err, &appErr) && appErr.Kind != shared.KindBackend {
			runner.writePlain("%s\n", ui.Styles.Err(appErr.Message))
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}
