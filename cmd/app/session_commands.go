package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/opentab/gatekeeper/cmd/app/commands"
	"github.com/opentab/gatekeeper/internal/app"
	"github.com/opentab/gatekeeper/internal/config"
)

func getSessionCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "sweep-sessions",
			Usage: "Reclaim storage for sessions that have been terminal past the retention window",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "retention-days",
					Aliases: []string{"r"},
					Value:   30,
					Usage:   "Keep terminal sessions for this many days before reclaiming",
				},
				&cli.IntFlag{
					Name:    "batch-size",
					Aliases: []string{"b"},
					Value:   0,
					Usage:   "Sessions reclaimed per pass (0 uses the configured default)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				sessionUC, err := container.SessionUseCase()
				if err != nil {
					return fmt.Errorf("failed to initialize session use case: %w", err)
				}

				batchSize := int(cmd.Int("batch-size"))
				if batchSize <= 0 {
					batchSize = cfg.SessionSweepBatchSize
				}

				return commands.RunSweepSessions(
					ctx,
					sessionUC,
					container.Logger(),
					os.Stdout,
					int(cmd.Int("retention-days")),
					batchSize,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "revoke-principal",
			Usage: "Invalidate every credential and session of a principal",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Principal ID (UUID)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				revocationUC, err := container.RevocationUseCase()
				if err != nil {
					return fmt.Errorf("failed to initialize revocation use case: %w", err)
				}

				sessionUC, err := container.SessionUseCase()
				if err != nil {
					return fmt.Errorf("failed to initialize session use case: %w", err)
				}

				return commands.RunRevokePrincipal(
					ctx,
					revocationUC,
					sessionUC,
					container.Logger(),
					os.Stdout,
					cmd.String("id"),
					cmd.String("format"),
				)
			},
		},
	}
}
