package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecodeclub/ekit/retry"
)

var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryConfig bounds the exponential backoff applied to retryable failures.
type RetryConfig struct {
	MaxRetries      int32
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Logger          *slog.Logger
}

// Retryable reports whether err is worth waiting out: quota exhaustion and
// transient transport failures.
func Retryable(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrTransient)
}

type retrySource struct {
	src    Source
	cfg    RetryConfig
	logger *slog.Logger
}

// WithRetry wraps src so retryable failures are retried with exponential
// backoff. With MaxRetries <= 0 src is returned unchanged.
func WithRetry(src Source, cfg RetryConfig) Source {
	if cfg.MaxRetries <= 0 {
		return src
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &retrySource{src: src, cfg: cfg, logger: logger}
}

func (s *retrySource) ListThreads(ctx context.Context, req ThreadsRequest) (ThreadPage, error) {
	var page ThreadPage
	err := s.do(ctx, "list_threads", func() error {
		var err error
		page, err = s.src.ListThreads(ctx, req)
		return err
	})
	return page, err
}

func (s *retrySource) ListReplies(ctx context.Context, req RepliesRequest) (ReplyPage, error) {
	var page ReplyPage
	err := s.do(ctx, "list_replies", func() error {
		var err error
		page, err = s.src.ListReplies(ctx, req)
		return err
	})
	return page, err
}

func (s *retrySource) do(ctx context.Context, op string, fn func() error) error {
	strategy, err := retry.NewExponentialBackoffRetryStrategy(s.cfg.InitialInterval, s.cfg.MaxInterval, s.cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("failed to create retry strategy: %w", err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !Retryable(err) {
			return err
		}

		next, ok := strategy.Next()
		if !ok {
			return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
		}

		s.logger.WarnContext(ctx, "retrying comment source call",
			"op", op, "attempt", attempt, "wait", next, "error", err)

		if timer == nil {
			timer = time.NewTimer(next)
		} else {
			timer.Reset(next)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}
