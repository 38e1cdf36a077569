// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/incomeclarity/vault/cmd/app/commands"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "vault",
		Usage:   "Field-level encryption and backup tooling",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "backup-create",
				Usage: "Export the dataset and write an encrypted backup",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "scope",
						Aliases: []string{"s"},
						Usage:   "Limit the backup to one user ID (omit for the full dataset)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (defaults to BACKUP_DIR)",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Backup password (defaults to BACKUP_PASSWORD)",
					},
					&cli.BoolFlag{
						Name:  "no-compress",
						Usage: "Disable the compression stage",
					},
					&cli.BoolFlag{
						Name:  "no-encrypt",
						Usage: "Disable the encryption stage",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunBackupCreate(ctx, commands.BackupCreateOptions{
						Scope:      cmd.String("scope"),
						Output:     cmd.String("output"),
						Password:   cmd.String("password"),
						NoCompress: cmd.Bool("no-compress"),
						NoEncrypt:  cmd.Bool("no-encrypt"),
					}, commands.DefaultIO())
				},
			},
			{
				Name:      "backup-restore",
				Usage:     "Verify and apply a backup to the dataset",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Backup password (defaults to BACKUP_PASSWORD)",
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Replace existing records instead of merging",
					},
					&cli.BoolFlag{
						Name:  "skip-integrity-check",
						Usage: "Skip checksum verification before restoring",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return fmt.Errorf("usage: backup-restore <path>")
					}
					return commands.RunBackupRestore(ctx, commands.BackupRestoreOptions{
						Path:          path,
						Password:      cmd.String("password"),
						Overwrite:     cmd.Bool("overwrite"),
						SkipIntegrity: cmd.Bool("skip-integrity-check"),
					}, commands.DefaultIO())
				},
			},
			{
				Name:  "backup-list",
				Usage: "List available backups, newest first",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunBackupList(ctx, commands.DefaultIO())
				},
			},
			{
				Name:  "backup-prune",
				Usage: "Remove the oldest backups beyond the retention limit",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "keep",
						Aliases: []string{"k"},
						Usage:   "Number of backups to keep (defaults to BACKUP_RETENTION)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunBackupPrune(ctx, int(cmd.Int("keep")), commands.DefaultIO())
				},
			},
			{
				Name:      "backup-verify",
				Usage:     "Verify a backup's checksum without restoring it",
				ArgsUsage: "<path>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return fmt.Errorf("usage: backup-verify <path>")
					}
					return commands.RunBackupVerify(ctx, path, commands.DefaultIO())
				},
			},
			{
				Name:  "generate-secret",
				Usage: "Generate a new random master secret",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kms-key-uri",
						Usage: "Wrap the secret with this KMS key (e.g. base64key://..., gcpkms://..., awskms://...)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunGenerateSecret(ctx, cmd.String("kms-key-uri"), commands.DefaultIO())
				},
			},
			{
				Name:  "scheduler",
				Usage: "Run the periodic backup scheduler",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunScheduler(ctx, version)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
