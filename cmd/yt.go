package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bebenbaven/YTcommentGETer/internal/app"
	"github.com/Bebenbaven/YTcommentGETer/internal/batch"
	"github.com/Bebenbaven/YTcommentGETer/internal/config"
	"github.com/Bebenbaven/YTcommentGETer/internal/errtable"
	"github.com/Bebenbaven/YTcommentGETer/internal/features"
	"github.com/Bebenbaven/YTcommentGETer/internal/models"
	"github.com/Bebenbaven/YTcommentGETer/internal/pipeline"
	"github.com/Bebenbaven/YTcommentGETer/internal/rabbitmq"
	"github.com/Bebenbaven/YTcommentGETer/internal/textnorm"
	"github.com/Bebenbaven/YTcommentGETer/internal/yt"
)

const usage = `usage: yt <command> [flags]

commands:
  harvest        harvest the comments of a video into a CSV batch
  score          score a CSV batch with the toxicity model
  errtable       write false positive and false negative tables for a labeled CSV
  fit-projector  fit the n-gram vocabulary on a CSV text column
  worker         consume harvest jobs from the queue
`

var commands = map[string]func(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error{
	"harvest":       runHarvest,
	"score":         runScore,
	"errtable":      runErrTable,
	"fit-projector": runFitProjector,
	"worker":        runWorker,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cmd(ctx, cfg, logger, os.Args[2:]); err != nil {
		logger.ErrorContext(ctx, "command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func runHarvest(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("harvest", flag.ContinueOnError)
	video := fs.String("video", "", "video url or id")
	limit := fs.Int("limit", cfg.Limit, "maximum number of comments, negative for no limit")
	order := fs.String("order", string(cfg.Order), "time or relevance")
	out := fs.String("out", cfg.OutputDir, "output directory")
	score := fs.Bool("score", false, "score the batch after harvesting")
	if err := fs.Parse(args); err != nil {
		return err
	}

	videoID, err := yt.ParseVideoID(*video)
	if err != nil {
		return err
	}
	cfg.OutputDir = *out

	p, err := app.NewPipeline(ctx, cfg, logger, *score)
	if err != nil {
		return err
	}
	defer p.Close()

	job := models.HarvestJob{VideoID: videoID, Limit: limit, Order: *order}
	if *score {
		res, err := p.Run(ctx, job)
		if err != nil {
			return err
		}
		fmt.Println(res.ScoredPath)
		return nil
	}

	res, err := p.Harvest(ctx, job)
	if err != nil {
		return err
	}
	fmt.Println(res.HarvestPath)
	return nil
}

func runScore(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	in := fs.String("in", "", "input CSV with a text column")
	out := fs.String("out", "", "output CSV, defaults to <in>_scored.csv")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("-in is required")
	}
	if *out == "" {
		*out = pipeline.ScoredPath(*in)
	}

	s, err := app.LoadScorer(cfg)
	if err != nil {
		return err
	}
	p := pipeline.New(nil, s, pipeline.Config{OutputDir: cfg.OutputDir, Logger: logger})

	if _, err := p.Score(ctx, *in, *out); err != nil {
		return err
	}
	fmt.Println(*out)
	return nil
}

func runErrTable(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("errtable", flag.ContinueOnError)
	in := fs.String("in", "labeled_comments.csv", "labeled CSV with text and label columns")
	out := fs.String("out", cfg.TablesDir, "directory for the LaTeX fragments")
	topK := fs.Int("topk", cfg.ErrorTableTopK, "rows per table")
	width := fs.Int("width", cfg.ErrorTableWidth, "comment display width in characters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := batch.ReadFile(*in)
	if err != nil {
		return err
	}
	texts, labels, err := errtable.ReadLabeled(t)
	if err != nil {
		return err
	}

	s, err := app.LoadScorer(cfg)
	if err != nil {
		return err
	}
	examples, err := errtable.Evaluate(s, texts, labels)
	if err != nil {
		return err
	}

	tables := errtable.Build(examples, *topK)
	if err := errtable.WriteFiles(*out, tables, *width); err != nil {
		return err
	}

	logger.InfoContext(ctx, "wrote error tables",
		"dir", *out,
		"examples", len(examples),
		"false_positives", len(tables.FalsePositives),
		"false_negatives", len(tables.FalseNegatives),
	)
	fmt.Print(errtable.NewReport(examples))
	return nil
}

func runFitProjector(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	defaults := features.DefaultFitOptions()

	fs := flag.NewFlagSet("fit-projector", flag.ContinueOnError)
	in := fs.String("in", "", "CSV with a text column")
	out := fs.String("out", cfg.Model.ProjectorPath, "projector artifact path")
	minDF := fs.Int("min-df", defaults.MinDF, "minimum document frequency")
	maxDF := fs.Float64("max-df", defaults.MaxDF, "maximum document frequency fraction")
	sublinear := fs.Bool("sublinear-tf", defaults.SublinearTF, "use 1+log(tf)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("-in is required")
	}

	t, err := batch.ReadFile(*in)
	if err != nil {
		return err
	}
	texts, err := t.Column(batch.ColText)
	if err != nil {
		return err
	}

	opts := defaults
	opts.MinDF = *minDF
	opts.MaxDF = *maxDF
	opts.SublinearTF = *sublinear

	start := time.Now()
	proj, err := features.Fit(textnorm.NormalizeAll(texts), opts)
	if err != nil {
		return err
	}
	if err := proj.Save(*out); err != nil {
		return err
	}

	logger.InfoContext(ctx, "fitted projector",
		"documents", len(texts),
		"vocabulary", proj.VocabularySize(),
		"path", *out,
		"elapsed", time.Since(start),
	)
	return nil
}

func runWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	queue := fs.String("queue", cfg.AMQPQueue, "queue name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_SERVER_URL is not set")
	}

	p, err := app.NewPipeline(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer p.Close()

	done := make(chan os.Signal)
	client := rabbitmq.New(*queue, cfg.AMQPURL, done, logger)
	defer func() {
		close(done)
		if err := client.Close(); err != nil {
			logger.ErrorContext(ctx, "failed to close rabbitmq client", "error", err)
		}
	}()

	handle := func(ctx context.Context, job models.HarvestJob) error {
		res, err := p.Run(ctx, job)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "finished job",
			"video_id", res.VideoID,
			"records", res.Records,
			"toxic", res.Diagnostics.Toxic,
			"path", res.ScoredPath,
		)
		return nil
	}

	for {
		err := client.Stream(ctx, handle)
		if !errors.Is(err, rabbitmq.ErrDisconnected) {
			return err
		}
		logger.WarnContext(ctx, "queue connection dropped, waiting to reconnect")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
		}
	}
}
