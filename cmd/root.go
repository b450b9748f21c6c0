package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/spigell/career-coach/internal/logger"
	"github.com/spigell/career-coach/internal/server"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	app       = "career-coach"
	envPrefix = "COACH"
)

type Config struct {
	Server       server.Config       `mapstructure:"server"`
	AI           *AIConfig           `mapstructure:"ai"`
	Auth         *AuthConfig         `mapstructure:"auth"`
	Entitlements *EntitlementsConfig `mapstructure:"entitlements"`
	Client       *ClientConfig       `mapstructure:"client"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey        string        `mapstructure:"api-key"`
	APIKeyFile    string        `mapstructure:"api-key-file"`
	Model         string        `mapstructure:"model"`
	MaxRetries    int           `mapstructure:"max-retries"`
	MaxRetryDelay time.Duration `mapstructure:"max-retry-delay"`
	Temperature   *float32      `mapstructure:"temperature"`
}

type AuthConfig struct {
	// Disabled serves the API without bearer tokens. Local development only.
	Disabled   bool          `mapstructure:"disabled"`
	Secret     string        `mapstructure:"secret"`
	SecretFile string        `mapstructure:"secret-file"`
	Issuer     string        `mapstructure:"issuer"`
	TTL        time.Duration `mapstructure:"ttl"`
}

type EntitlementsConfig struct {
	// Backend is "static" (levels from this file) or "postgres".
	Backend     string            `mapstructure:"backend"`
	DatabaseURL string            `mapstructure:"database-url"`
	Default     string            `mapstructure:"default"`
	Overrides   map[string]string `mapstructure:"overrides"`
}

type ClientConfig struct {
	BaseURL string `mapstructure:"base-url"`
	Token   string `mapstructure:"token"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "career-coach scores resumes and builds learning roadmaps with an AI model",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is career-coach.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

// Keys without a default are invisible to Unmarshal unless bound explicitly.
var envOnlyKeys = []string{
	"ai.gemini.api-key",
	"ai.gemini.api-key-file",
	"ai.gemini.temperature",
	"auth.disabled",
	"auth.secret",
	"auth.secret-file",
	"entitlements.database-url",
	"client.token",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read-timeout", "15s")
	v.SetDefault("server.write-timeout", "90s")
	v.SetDefault("server.shutdown-timeout", "10s")
	v.SetDefault("server.max-body-bytes", 10<<20)
	v.SetDefault("server.roadmap-fallback", false)
	v.SetDefault("server.cors-origins", []string{"*"})

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.max-log-length", 2000)
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-retries", 1)
	v.SetDefault("ai.gemini.max-retry-delay", "10s")

	v.SetDefault("auth.issuer", "career-coach")
	v.SetDefault("auth.ttl", "24h")

	v.SetDefault("entitlements.backend", "static")
	v.SetDefault("entitlements.default", "free")

	v.SetDefault("client.base-url", "http://localhost:8080")
}

func initConfig() {
	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	if err := bindEnv(viper.GetViper()); err != nil {
		log.Fatal(err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		// An explicit config file must be readable.
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

// bindEnv maps COACH_SERVER_ADDR style variables onto config keys.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding environment variable for %s: %w", key, err)
		}
	}
	return nil
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if config == nil {
		config = &Config{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Auth == nil {
		config.Auth = &AuthConfig{}
	}
	if config.Entitlements == nil {
		config.Entitlements = &EntitlementsConfig{}
	}
	if config.Client == nil {
		config.Client = &ClientConfig{}
	}
	return config, nil
}

// newLogger builds the process logger from the persistent flags.
func newLogger() (*zap.Logger, error) {
	return logger.New(viper.GetBool("json"), viper.GetBool("debug"))
}
