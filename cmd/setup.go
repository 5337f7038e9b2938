package main

import (
	"context"

	"github.com/desertthunder/spotybot/internal/shared"
	"github.com/desertthunder/spotybot/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writeLine(ui.Styles.OK("config file created at %s", path))
	r.writeLine(ui.Styles.Help("Fill in telegram.token and credentials.spotify, then run 'spotybot setup database'"))
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, _, err := r.openStore(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writeLine(ui.Styles.OK("database ready at %s", config.Database.Path))
}
