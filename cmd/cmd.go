// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
		Sources: cli.EnvVars("SPOTYBOT_CONFIG"),
	}
}

// serveCommand runs the bot
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Poll Telegram and serve the OAuth redirect, health and metrics endpoints",
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example configuration file",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// accountsCommand handles operator inspection of registered identities.
func accountsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "accounts",
		Aliases: []string{"acc"},
		Usage:   "Inspect and manage registered accounts",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List registered accounts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AccountsList,
			},
			{
				Name:  "pending",
				Usage: "List registrations waiting for Spotify authorization",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AccountsPending,
			},
			{
				Name:  "remove",
				Usage: "Remove an account so the identity can register again",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "identity"},
				},
				Action: r.AccountsRemove,
			},
			{
				Name:   "purge",
				Usage:  "Delete expired pending registrations",
				Action: r.AccountsPurge,
			},
		},
	}
}
