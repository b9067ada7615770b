package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bensuskins/household-hub/internal/config"
	"github.com/bensuskins/household-hub/internal/database"
	"github.com/bensuskins/household-hub/internal/events"
	"github.com/bensuskins/household-hub/internal/logging"
	"github.com/bensuskins/household-hub/internal/scheduler"
	"github.com/bensuskins/household-hub/internal/server"
	"github.com/spf13/cobra"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, calendar feed and scheduled jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger, err := logging.Setup(cmd.ErrOrStderr(), rootOpts.logLevel(cfg.LogLevel), cfg.LogFormat)
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			publisher, err := events.Connect(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				return fmt.Errorf("connecting event publisher: %w", err)
			}
			defer publisher.Close()

			app, err := server.NewApp(db, cfg, publisher)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			jobs, err := scheduler.New(ctx, cfg.CacheSweepSchedule, app.Views, cfg.DigestSchedule, app.DigestService)
			if err != nil {
				return err
			}
			jobs.Start()
			defer jobs.Stop()
			logger.Info("scheduler started", "next", jobs.Next())

			return server.New(app).Start(ctx)
		},
	}
}
