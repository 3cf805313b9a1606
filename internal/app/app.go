// Package app wires configuration into the harvesting and scoring components
// shared by the server and the command line tool.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Bebenbaven/YTcommentGETer/internal/config"
	"github.com/Bebenbaven/YTcommentGETer/internal/db"
	"github.com/Bebenbaven/YTcommentGETer/internal/harvest"
	"github.com/Bebenbaven/YTcommentGETer/internal/pipeline"
	"github.com/Bebenbaven/YTcommentGETer/internal/scorer"
	"github.com/Bebenbaven/YTcommentGETer/internal/yt"
)

func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewYouTube builds the API client and the source the harvester reads from,
// wrapped in backoff when retries are configured.
func NewYouTube(cfg *config.Config, logger *slog.Logger) (*yt.Client, harvest.Source, error) {
	client, err := yt.New(cfg.YouTube)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create youtube client: %w", err)
	}

	retry := cfg.Retry
	retry.Logger = logger
	return client, harvest.WithRetry(client, retry), nil
}

func LoadScorer(cfg *config.Config) (*scorer.Scorer, error) {
	model, err := scorer.LoadModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	return scorer.New(model)
}

// Pipeline is a pipeline together with the resources it holds open.
type Pipeline struct {
	*pipeline.Pipeline
	closers []func() error
}

func (p *Pipeline) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewPipeline builds the pipeline described by cfg. The model is loaded only
// when withScorer is set; storage is enabled when a database url is set.
func NewPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, withScorer bool) (*Pipeline, error) {
	client, src, err := NewYouTube(cfg, logger)
	if err != nil {
		return nil, err
	}
	h := harvest.New(src, harvest.Config{PageSize: cfg.PageSize, Logger: logger})

	var s *scorer.Scorer
	if withScorer {
		if s, err = LoadScorer(cfg); err != nil {
			return nil, err
		}
	}

	out := &Pipeline{}
	var opts []pipeline.Option
	if cfg.DatabaseURL != "" {
		gdb, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		out.closers = append(out.closers, sqlDB.Close)
		opts = append(opts, pipeline.WithStore(db.NewStore(gdb)), pipeline.WithVideoLookup(client))
		logger.InfoContext(ctx, "storing results in database")
	}

	out.Pipeline = pipeline.New(h, s, pipeline.Config{
		OutputDir: cfg.OutputDir,
		Order:     cfg.Order,
		Limit:     cfg.Limit,
		Logger:    logger,
	}, opts...)
	return out, nil
}
