package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/tokenward/tokenward/cmd/app/commands"
	"github.com/tokenward/tokenward/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "keygen",
			Usage: "Generate a new secp256k1 keypair for a token holder",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunKeygen(commands.DefaultIO().Writer, cmd.String("format"))
			},
		},
		{
			Name:  "sign",
			Usage: "Sign a presign request with the configured private key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "resource",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Resource ID (e.g., 't42/ancestor-archive')",
				},
				&cli.StringFlag{
					Name:     "action",
					Aliases:  []string{"a"},
					Required: true,
					Usage:    "Requested action: 'read' or 'write'",
				},
				&cli.Uint64Flag{
					Name:     "token",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Ownership token ID on the ledger",
				},
				&cli.Int64Flag{
					Name:  "timestamp",
					Usage: "Unix timestamp to sign (defaults to now)",
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

				return commands.RunSign(
					commands.DefaultIO().Writer,
					cfg.PrivateKey,
					cmd.String("resource"),
					cmd.String("action"),
					cmd.Uint64("token"),
					cmd.Int64("timestamp"),
					cmd.String("format"),
				)
			},
		},
	}
}
