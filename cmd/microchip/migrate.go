package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deppfellow/microchip-api/internal/config"
	"github.com/deppfellow/microchip-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Applies the embedded migrations to the database used by the postgres storage driver.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.loggerService.Shutdown()

		if a.cfg.Storage.Driver != config.DriverPostgres {
			return fmt.Errorf("migrate needs the %q storage driver, got %q", config.DriverPostgres, a.cfg.Storage.Driver)
		}

		return database.Migrate(cmd.Context(), a.log, a.cfg)
	},
}
