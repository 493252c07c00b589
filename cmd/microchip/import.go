package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/deppfellow/microchip-api/internal/model"
	"github.com/deppfellow/microchip-api/internal/repository"
	"github.com/deppfellow/microchip-api/internal/server"
	"github.com/deppfellow/microchip-api/internal/service"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Append microchips from a YAML or JSON file",
	Long: "Reads a list of microchip records and appends them to the configured storage,\n" +
		"exactly like POST /api/.",
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "YAML or JSON file holding a list of microchips")
	_ = importCmd.MarkFlagRequired("file")
}

// readMicrochips parses path. JSON is valid YAML, so one decoder serves both.
func readMicrochips(path string) ([]model.Microchip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var chips []model.Microchip
	if err := yaml.Unmarshal(data, &chips); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return chips, nil
}

func runImport(cmd *cobra.Command, _ []string) error {
	chips, err := readMicrochips(importFile)
	if err != nil {
		return err
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}

	srv, err := server.New(a.cfg, a.log, a.loggerService)
	if err != nil {
		return err
	}
	defer func() {
		_ = srv.Shutdown(context.Background())
	}()

	repos, err := repository.NewRepositories(srv)
	if err != nil {
		return err
	}

	services, err := service.NewService(srv, repos)
	if err != nil {
		return err
	}

	stored, err := services.Microchip.Import(cmd.Context(), chips)
	if err != nil {
		return err
	}

	a.log.Info().
		Str("file", importFile).
		Int("imported", len(chips)).
		Int("collection_size", len(stored)).
		Msg("import finished")
	return nil
}
