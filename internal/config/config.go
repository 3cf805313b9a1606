// Package config reads process settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nasermirzaei89/env"

	"github.com/Bebenbaven/YTcommentGETer/internal/harvest"
	"github.com/Bebenbaven/YTcommentGETer/internal/scorer"
	"github.com/Bebenbaven/YTcommentGETer/internal/yt"
)

type Config struct {
	YouTube  yt.Config
	PageSize int

	Order harvest.Order
	Limit int
	Retry harvest.RetryConfig

	Model scorer.ModelConfig

	OutputDir       string
	TablesDir       string
	ErrorTableTopK  int
	ErrorTableWidth int

	DatabaseURL string
	AMQPURL     string
	AMQPQueue   string
	HTTPAddr    string

	LogLevel slog.Level
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, using environment variables", "error", err)
	}

	return FromEnv()
}

// FromEnv builds a Config from the environment alone.
func FromEnv() (*Config, error) {
	cfg := &Config{
		YouTube: yt.Config{
			BaseURL:     env.GetString("YOUTUBE_BASE_URL", yt.DefaultBaseURL),
			APIKey:      env.GetString("YOUTUBE_API_KEY", ""),
			AccessToken: env.GetString("YOUTUBE_ACCESS_TOKEN", ""),
			TextFormat:  env.GetString("YOUTUBE_TEXT_FORMAT", yt.TextFormatPlain),
		},
		Model: scorer.ModelConfig{
			ProjectorPath:  env.GetString("MODEL_PROJECTOR_PATH", "models_youtube/projector.json"),
			ClassifierPath: env.GetString("MODEL_CLASSIFIER_PATH", "models_youtube/classifier.json"),
		},
		OutputDir:   env.GetString("OUTPUT_DIR", "outputs"),
		TablesDir:   env.GetString("TABLES_DIR", "tables"),
		DatabaseURL: env.GetString("DATABASE_URL", ""),
		AMQPURL:     env.GetString("AMQP_SERVER_URL", ""),
		AMQPQueue:   env.GetString("AMQP_QUEUE", "crawler"),
		HTTPAddr:    env.GetString("HTTP_ADDR", ":9988"),
	}

	var err error
	if cfg.YouTube.Timeout, err = getDuration("YOUTUBE_TIMEOUT", yt.DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.PageSize, err = getInt("YOUTUBE_PAGE_SIZE", harvest.DefaultPageSize); err != nil {
		return nil, err
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return nil, fmt.Errorf("YOUTUBE_PAGE_SIZE must be within [1, 100], got %d", cfg.PageSize)
	}

	if cfg.Order, err = harvest.ParseOrder(env.GetString("HARVEST_ORDER", string(harvest.OrderTime))); err != nil {
		return nil, err
	}
	if cfg.Limit, err = getInt("HARVEST_LIMIT", harvest.NoLimit); err != nil {
		return nil, err
	}

	retries, err := getInt("HARVEST_RETRY_MAX", 0)
	if err != nil {
		return nil, err
	}
	cfg.Retry.MaxRetries = int32(retries)
	if cfg.Retry.InitialInterval, err = getDuration("HARVEST_RETRY_INITIAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.Retry.MaxInterval, err = getDuration("HARVEST_RETRY_MAX_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	if cfg.ErrorTableTopK, err = getInt("ERROR_TABLE_TOPK", 8); err != nil {
		return nil, err
	}
	if cfg.ErrorTableWidth, err = getInt("ERROR_TABLE_WIDTH", 70); err != nil {
		return nil, err
	}

	if cfg.LogLevel, err = parseLevel(env.GetString("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getInt(key string, def int) (int, error) {
	raw := env.GetString(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := env.GetString(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
