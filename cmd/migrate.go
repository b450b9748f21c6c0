package cmd

import (
	"context"
	"log"

	"github.com/spigell/career-coach/internal/entitlements"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the entitlements database migrations",
	Run: func(cmd *cobra.Command, _ []string) {
		migrate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func migrate(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	db, err := openDatabase(ctx, config.Entitlements)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}
	defer db.Close()

	if err := entitlements.Migrate(ctx, db); err != nil {
		logger.Fatal("applying migrations", zap.Error(err))
	}

	logger.Info("migrations applied")
}
