package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"konbot/internal/bootstrap/logging"
	"konbot/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Osu      OsuConfig      `mapstructure:"osu"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Bot      BotConfig      `mapstructure:"bot"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// OsuConfig configures the osu! v2 API client and its OAuth
// client-credentials exchange.
type OsuConfig struct {
	ClientID     int    `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	APIBaseURL   string `mapstructure:"api_base_url"`
	TokenURL     string `mapstructure:"token_url"`
	ProxyURL     string `mapstructure:"proxy_url"`
}

// OracleConfig points at the classification model service.
type OracleConfig struct {
	PredictURL string        `mapstructure:"predict_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// BotConfig configures the OneBot v11 websocket adapter.
type BotConfig struct {
	WSURL        string  `mapstructure:"ws_url"`
	AccessToken  string  `mapstructure:"access_token"`
	Superusers   []int64 `mapstructure:"superusers"`
	AliasProfile string  `mapstructure:"alias_profile"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Osu.ClientSecret == "" {
		return Config{}, errors.New("osu.client_secret is required")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Int("osu_client_id", cfg.Osu.ClientID),
		slog.String("oracle_predict_url", cfg.Oracle.PredictURL),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "konbot")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/konbot.sqlite")
	v.SetDefault("osu.client_id", 40940)
	v.SetDefault("osu.api_base_url", "https://osu.ppy.sh/api/v2")
	v.SetDefault("osu.token_url", "https://osu.ppy.sh/oauth/token")
	v.SetDefault("oracle.predict_url", "http://localhost:7777/predict")
	v.SetDefault("oracle.timeout", 30*time.Second)
	v.SetDefault("bot.ws_url", "ws://127.0.0.1:6700")
}
