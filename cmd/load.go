package cmd

import (
	"context"
	"log"

	"modforge/core/config"
	"modforge/core/database"
	"modforge/core/history"
	"modforge/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run one full load cycle",
	Long: `Validates and mounts the configured sources, runs the pipeline once,
journals the cycle, and exits.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()

		mgr, err := buildManager(cfg, logg)
		if err != nil {
			logg.Fatal("Failed to build pipeline", zap.Error(err))
		}

		// Cycle journal is optional; a one-shot load still reports to the log.
		if db, dbErr := database.Connect(cfg.Database); dbErr != nil {
			logg.Warn("Cycle journal disabled", zap.Error(dbErr))
		} else {
			journal := history.NewRecorder(db, logg)
			if migErr := journal.Migrate(); migErr != nil {
				logg.Warn("Cycle journal migration failed", zap.Error(migErr))
			} else {
				journal.Attach(mgr.Bus())
			}
		}

		if err := mgr.Load(context.Background()); err != nil {
			logg.Fatal("Load cycle failed", zap.Error(err))
		}

		for _, id := range mgr.Collection().Identifiers() {
			logg.Debug("loaded", zap.String("id", id))
		}
		mgr.UnloadAll()
	},
}

func init() {
	RootCmd.AddCommand(loadCmd)
}
