package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/playbook/cmd/app/commands"
	"github.com/allisson/playbook/internal/app"
	"github.com/allisson/playbook/internal/config"
)

func getWebhookCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "dispatch",
			Usage: "Deliver one batch of due webhook events and exit",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   0,
					Usage:   "Maximum events to claim (0 uses the configured batch size)",
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

				delivery, err := container.DeliveryUseCase()
				if err != nil {
					return err
				}

				return commands.RunDispatch(
					ctx,
					delivery,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("limit")),
					cfg.WebhookBatchSize,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "create-endpoint",
			Usage: "Register a webhook endpoint",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable endpoint name",
				},
				&cli.StringFlag{
					Name:     "url",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "HTTPS URL that receives signed deliveries",
				},
				&cli.StringFlag{
					Name:    "secret",
					Aliases: []string{"s"},
					Usage:   "HMAC signing secret (omit to sign with the configured default at dispatch time)",
				},
				&cli.StringFlag{
					Name:    "events",
					Aliases: []string{"e"},
					Usage:   "Comma-separated event types to subscribe to (omit for all events)",
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

				endpointUseCase, err := container.EndpointUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateEndpoint(
					ctx,
					endpointUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("url"),
					cmd.String("secret"),
					cmd.String("events"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "clean-outbox-events",
			Usage: "Delete delivered webhook events older than specified days",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "days",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Delete delivered events older than this many days",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many events would be deleted without deleting",
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

				delivery, err := container.DeliveryUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanOutboxEvents(
					ctx,
					delivery,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("days")),
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
	}
}
