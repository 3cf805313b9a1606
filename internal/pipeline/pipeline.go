// Package pipeline runs a harvest job end to end: harvest, persist, score.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/Bebenbaven/YTcommentGETer/internal/batch"
	"github.com/Bebenbaven/YTcommentGETer/internal/harvest"
	"github.com/Bebenbaven/YTcommentGETer/internal/models"
	"github.com/Bebenbaven/YTcommentGETer/internal/scorer"
)

var ErrNoScorer = errors.New("pipeline has no scorer")

// Store persists a scored batch next to the CSV hand-off.
type Store interface {
	SaveComments(ctx context.Context, cs []models.Comment) error
	SaveVideo(ctx context.Context, v *models.Video) error
}

// VideoLookup fetches video metadata.
type VideoLookup interface {
	GetVideo(ctx context.Context, videoID string) (models.Video, error)
}

type Config struct {
	OutputDir string
	Order     harvest.Order
	Limit     int
	Logger    *slog.Logger
}

type Option func(*Pipeline)

func WithStore(s Store) Option {
	return func(p *Pipeline) { p.store = s }
}

func WithVideoLookup(v VideoLookup) Option {
	return func(p *Pipeline) { p.videos = v }
}

type Pipeline struct {
	harvester *harvest.Harvester
	scorer    *scorer.Scorer
	store     Store
	videos    VideoLookup
	outputDir string
	order     harvest.Order
	limit     int
	logger    *slog.Logger
}

// New builds a pipeline. s may be nil for harvest-only use.
func New(h *harvest.Harvester, s *scorer.Scorer, cfg Config, opts ...Option) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Order == "" {
		cfg.Order = harvest.OrderTime
	}

	p := &Pipeline{
		harvester: h,
		scorer:    s,
		outputDir: cfg.OutputDir,
		order:     cfg.Order,
		limit:     cfg.Limit,
		logger:    cfg.Logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HarvestPath is where the raw batch of a video is written.
func HarvestPath(dir, videoID string) string {
	return filepath.Join(dir, "comments_with_replies_"+videoID+".csv")
}

// ScoredPath derives the scored batch path from an input path.
func ScoredPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_scored.csv"
}

// Result describes one finished job.
type Result struct {
	VideoID     string
	Order       harvest.Order
	HarvestPath string
	ScoredPath  string
	Records     int
	Stats       harvest.Stats
	Diagnostics scorer.Diagnostics
}

func (p *Pipeline) request(job models.HarvestJob) (harvest.Request, error) {
	req := harvest.Request{VideoID: job.VideoID, Limit: p.limit, Order: p.order}
	if job.Limit != nil {
		req.Limit = *job.Limit
	}
	if job.Order != "" {
		order, err := harvest.ParseOrder(job.Order)
		if err != nil {
			return req, err
		}
		req.Order = order
	}
	return req, nil
}

// Harvest collects the comments of job and writes them to HarvestPath.
func (p *Pipeline) Harvest(ctx context.Context, job models.HarvestJob) (Result, error) {
	req, err := p.request(job)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	cs, stats, err := p.harvester.Harvest(ctx, req)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		VideoID:     req.VideoID,
		Order:       req.Order,
		HarvestPath: HarvestPath(p.outputDir, req.VideoID),
		Records:     len(cs),
		Stats:       stats,
	}
	if err := batch.WriteFile(res.HarvestPath, batch.FromComments(cs)); err != nil {
		return Result{}, err
	}

	p.logger.InfoContext(ctx, "harvested comments",
		"video_id", req.VideoID,
		"records", len(cs),
		"pages", stats.Pages,
		"reply_listings", stats.ReplyListings,
		"duplicates", stats.Duplicates,
		"capped", stats.Capped,
		"path", res.HarvestPath,
		"elapsed", time.Since(start),
	)
	return res, nil
}

// Score reads the batch at in, scores its text column and writes the result to
// out. Columns other than the toxicity pair are carried over unchanged.
func (p *Pipeline) Score(ctx context.Context, in, out string) (scorer.Diagnostics, error) {
	if p.scorer == nil {
		return scorer.Diagnostics{}, ErrNoScorer
	}

	t, err := batch.ReadFile(in)
	if err != nil {
		return scorer.Diagnostics{}, err
	}
	diag, err := p.scorer.ScoreTable(t, scorer.DefaultTableOptions())
	if err != nil {
		return scorer.Diagnostics{}, fmt.Errorf("failed to score %q: %w", in, err)
	}
	if err := batch.WriteFile(out, t); err != nil {
		return scorer.Diagnostics{}, err
	}

	p.logDiagnostics(ctx, out, diag)
	return diag, nil
}

func (p *Pipeline) logDiagnostics(ctx context.Context, path string, diag scorer.Diagnostics) {
	p.logger.InfoContext(ctx, "scored batch",
		"path", path,
		"total", diag.Total,
		"regime", diag.Regime,
		"empty_vectors", diag.EmptyVectors,
		"empty_vectors_fraction", diag.EmptyVectorFraction,
		"mean_features", diag.MeanFeatures,
		"toxic", diag.Toxic,
		"toxic_fraction", diag.ToxicFraction(),
	)
	if diag.Total > 0 && diag.EmptyVectors == diag.Total {
		p.logger.WarnContext(ctx, "no row shares an n-gram with the vocabulary, labels come from the bias alone",
			"path", path, "bias", diag.Bias)
	}
}

// Run harvests job, scores the persisted batch and, when a store is
// configured, mirrors the scored records and run statistics into it.
func (p *Pipeline) Run(ctx context.Context, job models.HarvestJob) (Result, error) {
	if p.scorer == nil {
		return Result{}, ErrNoScorer
	}

	res, err := p.Harvest(ctx, job)
	if err != nil {
		return Result{}, err
	}

	res.ScoredPath = ScoredPath(res.HarvestPath)
	if res.Diagnostics, err = p.Score(ctx, res.HarvestPath, res.ScoredPath); err != nil {
		return Result{}, err
	}

	if p.store != nil {
		if err := p.save(ctx, res); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

func (p *Pipeline) save(ctx context.Context, res Result) error {
	t, err := batch.ReadFile(res.ScoredPath)
	if err != nil {
		return err
	}
	cs, err := batch.ToComments(t)
	if err != nil {
		return err
	}
	if err := p.store.SaveComments(ctx, cs); err != nil {
		return err
	}

	v := models.Video{VideoID: res.VideoID}
	if p.videos != nil {
		meta, err := p.videos.GetVideo(ctx, res.VideoID)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to fetch video metadata", "video_id", res.VideoID, "error", err)
		} else {
			v = meta
		}
	}
	v.Order = string(res.Order)
	v.Records = res.Records
	v.Pages = res.Stats.Pages
	v.ReplyListings = res.Stats.ReplyListings
	v.Duplicates = res.Stats.Duplicates
	v.Capped = res.Stats.Capped
	v.EmptyVectors = res.Diagnostics.EmptyVectors
	v.Toxic = res.Diagnostics.Toxic

	return p.store.SaveVideo(ctx, &v)
}
