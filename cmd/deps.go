package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/career-coach/internal/ai"
	"github.com/spigell/career-coach/internal/ai/gemini"
	"github.com/spigell/career-coach/internal/auth"
	"github.com/spigell/career-coach/internal/entitlements"
	"github.com/spigell/career-coach/internal/logger"
	"github.com/spigell/career-coach/internal/secrets"

	"go.uber.org/zap"
)

const (
	backendStatic   = "static"
	backendPostgres = "postgres"
)

// newGenerator returns the configured model client. Without an API key the
// service still runs and every AI call is served from the fallbacks.
func newGenerator(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		log.Warn("ai generation disabled, serving fallbacks only",
			zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key-file, COACH_AI_GEMINI_API_KEY or GEMINI_API_KEY"),
		)
		return ai.Unavailable{}, nil
	}

	genLogger := logger.WithCommonFields(log, gemini.Provider, cfg.Gemini.Model).
		With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, gemini.Options{
		APIKey:        apiKey,
		Model:         cfg.Gemini.Model,
		MaxRetries:    cfg.Gemini.MaxRetries,
		MaxRetryDelay: cfg.Gemini.MaxRetryDelay,
		Temperature:   cfg.Gemini.Temperature,
		Logger:        genLogger,
	})
	if err != nil {
		return nil, err
	}
	return generator, nil
}

func newVerifier(cfg *AuthConfig) (*auth.Verifier, error) {
	secret, err := secrets.Load(secrets.Source{
		Name:  "jwt secret",
		Value: cfg.Secret,
		File:  cfg.SecretFile,
		Env:   "JWT_SECRET",
	})
	if err != nil {
		return nil, err
	}
	return auth.NewVerifier(secret, cfg.Issuer, cfg.TTL)
}

// newEntitlementStore returns the store and a close func for its resources.
func newEntitlementStore(ctx context.Context, cfg *EntitlementsConfig) (entitlements.Store, func() error, error) {
	noop := func() error { return nil }

	switch backend := strings.TrimSpace(strings.ToLower(cfg.Backend)); backend {
	case "", backendStatic:
		store, err := staticStore(cfg)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case backendPostgres:
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return &entitlements.PGStore{DB: db}, db.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported entitlements backend: %s", cfg.Backend)
	}
}

func staticStore(cfg *EntitlementsConfig) (entitlements.StaticStore, error) {
	def, err := entitlements.ParseLevel(cfg.Default)
	if err != nil {
		return entitlements.StaticStore{}, fmt.Errorf("entitlements.default: %w", err)
	}

	overrides := make(map[string]entitlements.Level, len(cfg.Overrides))
	for user, raw := range cfg.Overrides {
		level, err := entitlements.ParseLevel(raw)
		if err != nil {
			return entitlements.StaticStore{}, fmt.Errorf("entitlements.overrides.%s: %w", user, err)
		}
		overrides[user] = level
	}
	return entitlements.StaticStore{Default: def, Overrides: overrides}, nil
}

func openDatabase(ctx context.Context, cfg *EntitlementsConfig) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("entitlements.database-url is required (or set COACH_ENTITLEMENTS_DATABASE_URL)")
	}
	return entitlements.Open(ctx, cfg.DatabaseURL)
}
