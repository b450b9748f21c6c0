package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/career-coach/internal/coach"
	"github.com/spigell/career-coach/internal/entitlements"
	"github.com/spigell/career-coach/internal/extract"
	"github.com/spigell/career-coach/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address, e.g. :8080")
	serveCmd.Flags().Bool("roadmap-fallback", false, "answer 200 with the fallback roadmap instead of 500 when generation fails")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.roadmap-fallback", serveCmd.Flags().Lookup("roadmap-fallback"))
}

func serve(parent context.Context) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the career-coach api", zap.String("version", version))

	if viper.GetBool("debug") {
		pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
		logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating the ai generator", zap.Error(err))
	}

	deps := server.Deps{
		Analyzer: coach.NewAnalyzer(generator, extract.PDF{}, logger, config.AI.MaxLogLength),
		Roadmaps: coach.NewRoadmapGenerator(generator, logger, config.AI.MaxLogLength),
		Logger:   logger,
	}

	closeStore := func() error { return nil }
	if config.Auth.Disabled {
		logger.Warn("authentication and subscription checks are disabled",
			zap.String("hint", "unset auth.disabled outside local development"),
		)
	} else {
		verifier, err := newVerifier(config.Auth)
		if err != nil {
			logger.Fatal("creating the token verifier", zap.Error(err),
				zap.String("hint", "set auth.secret-file, COACH_AUTH_SECRET or JWT_SECRET"),
			)
		}

		var store entitlements.Store
		store, closeStore, err = newEntitlementStore(ctx, config.Entitlements)
		if err != nil {
			logger.Fatal("creating the entitlements store", zap.Error(err))
		}

		deps.Verifier = verifier
		deps.Entitlements = store
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("closing the entitlements store", zap.Error(err))
		}
	}()

	srv := server.New(config.Server, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("stopping", zap.String("reason", context.Cause(gctx).Error()))
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}

// redacted returns a copy of config safe for logging.
func redacted(config *Config) Config {
	out := *config
	if config.AI != nil && config.AI.Gemini != nil {
		ai := *config.AI
		gem := *config.AI.Gemini
		if gem.APIKey != "" {
			gem.APIKey = "***"
		}
		ai.Gemini = &gem
		out.AI = &ai
	}
	if config.Auth != nil {
		a := *config.Auth
		if a.Secret != "" {
			a.Secret = "***"
		}
		out.Auth = &a
	}
	if config.Entitlements != nil {
		e := *config.Entitlements
		if e.DatabaseURL != "" {
			e.DatabaseURL = "***"
		}
		out.Entitlements = &e
	}
	if config.Client != nil {
		c := *config.Client
		if c.Token != "" {
			c.Token = "***"
		}
		out.Client = &c
	}
	return out
}
