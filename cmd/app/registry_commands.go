package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/tokenward/tokenward/cmd/app/commands"
	"github.com/tokenward/tokenward/internal/app"
	"github.com/tokenward/tokenward/internal/config"
)

func getRegistryCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "register",
			Usage: "Bind an ownership token to an executable account",
			Flags: []cli.Flag{
				&cli.Uint64Flag{
					Name:     "token",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Ownership token ID on the ledger",
				},
				&cli.StringFlag{
					Name:    "account",
					Aliases: []string{"a"},
					Usage:   "Existing account address to bind (omit to create one)",
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

				registryUseCase, err := container.RegistryUseCase()
				if err != nil {
					return err
				}

				accountUseCase, err := container.AccountUseCase()
				if err != nil {
					return err
				}

				delegateModule, err := container.DelegateModule()
				if err != nil {
					return err
				}

				return commands.RunRegister(
					ctx,
					registryUseCase,
					accountUseCase,
					delegateModule,
					container.AuthorityAddress(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cfg.PrivateKey,
					cmd.Uint64("token"),
					cmd.String("account"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "claim",
			Usage: "Claim control of a bound account as the token's current holder",
			Flags: []cli.Flag{
				&cli.Uint64Flag{
					Name:     "token",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Ownership token ID on the ledger",
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

				registryUseCase, err := container.RegistryUseCase()
				if err != nil {
					return err
				}

				return commands.RunClaim(
					ctx,
					registryUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cfg.PrivateKey,
					cmd.Uint64("token"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "status",
			Usage: "Show registry and ledger state for a token",
			Flags: []cli.Flag{
				&cli.Uint64Flag{
					Name:     "token",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Ownership token ID on the ledger",
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

				registryUseCase, err := container.RegistryUseCase()
				if err != nil {
					return err
				}

				return commands.RunStatus(
					ctx,
					registryUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.Uint64("token"),
					cmd.String("format"),
				)
			},
		},
	}
}
