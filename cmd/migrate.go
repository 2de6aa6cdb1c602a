package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aquasense/aquasense/db"
	"github.com/aquasense/aquasense/internal/config"
	"github.com/aquasense/aquasense/internal/log"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cfg.Storage != config.StoragePostgres {
			return fmt.Errorf("migrations require storage=postgres, got %q", cfg.Storage)
		}
		logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})
		return db.Migrate(cfg.PostgresURL(), logger)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
