package handlers

import (
	"context"
	"log/slog"

	"github.com/Bebenbaven/YTcommentGETer/internal/models"
	"github.com/Bebenbaven/YTcommentGETer/internal/scorer"
)

// JobQueue accepts harvest jobs for the workers.
type JobQueue interface {
	Push(ctx context.Context, job models.HarvestJob) error
}

type TextScorer interface {
	ScoreTexts(texts []string) ([]scorer.Result, scorer.Diagnostics)
}

// Handler serves the HTTP API. Either collaborator may be nil, in which case
// its endpoint answers 503.
type Handler struct {
	queue  JobQueue
	scorer TextScorer
	logger *slog.Logger
}

func New(queue JobQueue, s TextScorer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{queue: queue, scorer: s, logger: logger}
}

func fail(message string) map[string]string {
	return map[string]string{
		"code":    "fail",
		"message": message,
	}
}
