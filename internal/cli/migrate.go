package cli

import (
	"fmt"
	"io"

	"github.com/bensuskins/household-hub/internal/config"
	"github.com/bensuskins/household-hub/internal/database"
	"github.com/spf13/cobra"
)

// MigrateResult is the JSON payload of the migrate command.
type MigrateResult struct {
	Database string `json:"database"`
	Version  uint   `json:"version"`
}

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			cfg, err := config.Load()
			if err != nil {
				return formatter.Error(fmt.Errorf("loading config: %w", err))
			}

			result, err := migrate(cfg.DatabasePath)
			if err != nil {
				return formatter.Error(err)
			}
			return formatter.Success(result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s is at schema version %d\n", result.Database, result.Version)
				return err
			})
		},
	}
}

func migrate(path string) (MigrateResult, error) {
	db, err := database.Open(path)
	if err != nil {
		return MigrateResult{}, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return MigrateResult{}, fmt.Errorf("running migrations: %w", err)
	}
	version, _, err := database.Version(db)
	if err != nil {
		return MigrateResult{}, fmt.Errorf("reading schema version: %w", err)
	}
	return MigrateResult{Database: path, Version: version}, nil
}
