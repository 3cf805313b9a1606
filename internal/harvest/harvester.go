// Package harvest rebuilds the deduplicated comment forest of a video from a
// paginated comment source.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Bebenbaven/YTcommentGETer/internal/models"
)

// NoLimit disables the record cap.
const NoLimit = -1

const DefaultPageSize = 100

var (
	ErrNoVideoID  = errors.New("video id is required")
	ErrTokenCycle = errors.New("continuation token repeated")
)

type Request struct {
	VideoID string
	// Limit caps the number of returned records. Negative means no cap.
	Limit int
	Order Order
}

// Stats describes what a harvest did.
type Stats struct {
	Pages         int
	ReplyListings int
	Duplicates    int
	Capped        bool
}

type Config struct {
	PageSize int
	Logger   *slog.Logger
}

type Harvester struct {
	src      Source
	pageSize int
	logger   *slog.Logger
}

func New(src Source, cfg Config) *Harvester {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Harvester{
		src:      src,
		pageSize: cfg.PageSize,
		logger:   cfg.Logger,
	}
}

// collector appends records in encounter order, skipping ids it has already
// seen, and tracks the cap.
type collector struct {
	videoID string
	limit   int
	seen    map[string]struct{}
	out     []models.Comment
	stats   *Stats
}

func (c *collector) full() bool {
	return c.limit >= 0 && len(c.out) >= c.limit
}

// add reports whether the cap has been reached.
func (c *collector) add(rec models.Comment) bool {
	if _, ok := c.seen[rec.CommentID]; ok {
		c.stats.Duplicates++
		return c.full()
	}
	c.seen[rec.CommentID] = struct{}{}
	c.out = append(c.out, rec)

	if c.full() {
		c.stats.Capped = true
		return true
	}
	return false
}

func (c *collector) record(it Item, threadID string, reply bool) models.Comment {
	rec := models.Comment{
		VideoID:     c.videoID,
		CommentID:   it.ID,
		ThreadID:    threadID,
		IsReply:     reply,
		Author:      it.Author,
		PublishedAt: it.PublishedAt,
		UpdatedAt:   it.UpdatedAt,
		LikeCount:   it.LikeCount,
		Text:        it.Text,
	}
	if rec.LikeCount < 0 {
		rec.LikeCount = 0
	}
	if reply {
		rec.ParentID = threadID
	}
	return rec
}

// Harvest returns every comment of the video, top-level comments each
// followed by their replies, with no id repeated. Once req.Limit records are
// collected no further calls are issued. Any listing failure aborts the
// harvest.
func (h *Harvester) Harvest(ctx context.Context, req Request) ([]models.Comment, Stats, error) {
	var stats Stats

	if req.VideoID == "" {
		return nil, stats, ErrNoVideoID
	}
	if req.Order == "" {
		req.Order = OrderTime
	}

	c := &collector{
		videoID: req.VideoID,
		limit:   req.Limit,
		seen:    make(map[string]struct{}),
		out:     make([]models.Comment, 0),
		stats:   &stats,
	}
	if c.full() {
		stats.Capped = true
		return c.out, stats, nil
	}

	token := ""
	for {
		page, err := h.src.ListThreads(ctx, ThreadsRequest{
			VideoID:   req.VideoID,
			Order:     req.Order,
			PageToken: token,
			PageSize:  h.pageSize,
		})
		if err != nil {
			return nil, stats, fmt.Errorf("failed to list comment threads of video %s: %w", req.VideoID, err)
		}
		stats.Pages++

		h.logger.DebugContext(ctx, "comment thread page fetched",
			"video_id", req.VideoID, "page", stats.Pages, "threads", len(page.Threads))

		for _, th := range page.Threads {
			done, err := h.collectThread(ctx, c, th)
			if err != nil {
				return nil, stats, err
			}
			if done {
				return c.out, stats, nil
			}
		}

		if page.NextPageToken == "" {
			break
		}
		if page.NextPageToken == token {
			return nil, stats, fmt.Errorf("failed to list comment threads of video %s: %w", req.VideoID, ErrTokenCycle)
		}
		token = page.NextPageToken
	}

	return c.out, stats, nil
}

func (h *Harvester) collectThread(ctx context.Context, c *collector, th Thread) (bool, error) {
	threadID := th.TopLevel.ID
	if threadID == "" {
		threadID = th.ID
	}
	top := th.TopLevel
	top.ID = threadID

	if c.add(c.record(top, threadID, false)) {
		return true, nil
	}
	for _, r := range th.Replies {
		if c.add(c.record(r, threadID, true)) {
			return true, nil
		}
	}

	if th.TotalReplyCount <= len(th.Replies) {
		return false, nil
	}
	return h.expandReplies(ctx, c, threadID)
}

// expandReplies pages through the full reply listing of one thread. The
// listing usually repeats the embedded replies; those are skipped.
func (h *Harvester) expandReplies(ctx context.Context, c *collector, threadID string) (bool, error) {
	token := ""
	for {
		page, err := h.src.ListReplies(ctx, RepliesRequest{
			ParentID:  threadID,
			PageToken: token,
			PageSize:  h.pageSize,
		})
		if err != nil {
			return false, fmt.Errorf("failed to list replies of comment %s: %w", threadID, err)
		}
		c.stats.ReplyListings++

		for _, r := range page.Replies {
			if c.add(c.record(r, threadID, true)) {
				return true, nil
			}
		}

		if page.NextPageToken == "" {
			return false, nil
		}
		if page.NextPageToken == token {
			return false, fmt.Errorf("failed to list replies of comment %s: %w", threadID, ErrTokenCycle)
		}
		token = page.NextPageToken
	}
}
