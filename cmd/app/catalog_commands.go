package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/playbook/cmd/app/commands"
	"github.com/allisson/playbook/internal/app"
	"github.com/allisson/playbook/internal/config"
)

func getCatalogCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "seed",
			Usage: "Load a sample organization, program, and sessions for local development",
			Flags: []cli.Flag{
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

				seeder, err := container.CatalogSeeder()
				if err != nil {
					return err
				}

				return commands.RunSeed(
					ctx,
					seeder,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
