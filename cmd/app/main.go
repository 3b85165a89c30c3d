// Package main provides the entry point for the vaultcore application.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/vaultcore/cmd/app/commands"
)

var version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "vaultcore",
		Usage:   "Secret vault with envelope encryption, sharing, and rotation",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP API and metrics servers",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "create-master-key",
				Usage: "Generate a new master key for envelope encryption",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "id",
						Aliases: []string{"i"},
						Value:   "",
						Usage:   "Master key ID (e.g., prod-master-key-2026)",
					},
					&cli.StringFlag{
						Name:  "kms-provider",
						Usage: "KMS provider (gcpkms, awskms, azurekeyvault, hashivault, localsecrets)",
					},
					&cli.StringFlag{
						Name:  "kms-key-uri",
						Usage: "KMS key URI used to encrypt the master key at rest",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateMasterKey(
						cmd.String("id"),
						cmd.String("kms-provider"),
						cmd.String("kms-key-uri"),
					)
				},
			},
			{
				Name:  "create-kek",
				Usage: "Create the initial Key Encryption Key (KEK)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "algorithm",
						Aliases: []string{"alg"},
						Value:   "aes-gcm",
						Usage:   "Encryption algorithm to use (aes-gcm or chacha20-poly1305)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateKek(ctx, cmd.String("algorithm"))
				},
			},
			{
				Name:  "rotate-kek",
				Usage: "Rotate the Key Encryption Key (KEK)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "algorithm",
						Aliases: []string{"alg"},
						Value:   "aes-gcm",
						Usage:   "Encryption algorithm to use (aes-gcm or chacha20-poly1305)",
					},
					&cli.BoolFlag{
						Name:  "rewrap",
						Value: true,
						Usage: "Rewrap item DEKs under the new KEK after rotating",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRotateKek(ctx, cmd.String("algorithm"), cmd.Bool("rewrap"))
				},
			},
			{
				Name:  "rewrap-deks",
				Usage: "Rewrap item DEKs not wrapped under the active KEK",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRewrapDeks(ctx)
				},
			},
			{
				Name:  "create-user",
				Usage: "Create a user and print their API key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Required: true,
						Usage:    "User email address",
					},
					&cli.StringFlag{
						Name:  "org-id",
						Usage: "Organization ID (UUID) the user belongs to",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateUser(ctx, cmd.String("email"), cmd.String("org-id"))
				},
			},
			{
				Name:  "rotate-due",
				Usage: "Rotate vault items whose auto-rotation interval elapsed",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRotateDue(ctx)
				},
			},
			{
				Name:  "purge-user",
				Usage: "Hard-delete a user and all their vault data (GDPR erasure)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user-id",
						Aliases:  []string{"u"},
						Required: true,
						Usage:    "User ID (UUID) to purge",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunPurgeUser(ctx, cmd.String("user-id"))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
