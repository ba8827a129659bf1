package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if cmd.Bool("force") {
		if err := os.Remove(configPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("%s Configuration written to %s\n", styles.ok.Render("✓"), configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set media.root to the directory that holds your music\n")
	r.writePlain("2. Run 'ytmp setup database' to create the download ledger\n")
	r.writePlain("3. Run 'ytmp serve' and point the player UI at ports %d and %d\n",
		r.config.Channel.CommandPort, r.config.Channel.EventPort)
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	if cmd.Bool("rollback") {
		return r.rollbackDatabase(config)
	}

	r.logger.Info("initializing database", "path", config.DatabasePath())

	db, err := shared.OpenDatabase(config)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	schema, err := shared.SchemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.DatabasePath())
	return r.writePlain("%s Database ready at %s (schema version %d)\n", styles.ok.Render("✓"), config.DatabasePath(), schema)
}

// rollbackDatabase undoes the most recent migration without applying pending ones first.
// The next `serve` or `setup database` reapplies it.
func (r *Runner) rollbackDatabase(config *shared.Config) error {
	db, err := shared.NewDatabase(config.DatabasePath())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}
	schema, err := shared.SchemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.logger.Info("rolled back migration", "path", config.DatabasePath(), "version", schema)
	return r.writePlain("%s Rolled back %s to schema version %d\n", styles.ok.Render("✓"), config.DatabasePath(), schema)
}
