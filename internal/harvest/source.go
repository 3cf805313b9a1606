package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Failures a Source must be able to report distinguishably. Implementations
// wrap one of these so callers can test with errors.Is.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

// Order is the thread ordering requested from the source.
type Order string

const (
	OrderTime      Order = "time"
	OrderRelevance Order = "relevance"
)

// ParseOrder accepts the API spellings plus "chronological".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "time", "chronological":
		return OrderTime, nil
	case "relevance":
		return OrderRelevance, nil
	default:
		return "", fmt.Errorf("unknown order %q", s)
	}
}

// Item is a single comment as reported by the source.
type Item struct {
	ID          string
	ParentID    string
	Author      string
	PublishedAt string
	UpdatedAt   string
	LikeCount   int64
	Text        string
}

// Thread is a top-level comment with the replies embedded in the listing.
// TotalReplyCount may exceed len(Replies).
type Thread struct {
	ID              string
	TopLevel        Item
	Replies         []Item
	TotalReplyCount int
}

type ThreadsRequest struct {
	VideoID   string
	Order     Order
	PageToken string
	PageSize  int
}

type ThreadPage struct {
	Threads       []Thread
	NextPageToken string
}

type RepliesRequest struct {
	ParentID  string
	PageToken string
	PageSize  int
}

type ReplyPage struct {
	Replies       []Item
	NextPageToken string
}

// Source lists comment threads and replies page by page. An empty
// NextPageToken ends a listing.
type Source interface {
	ListThreads(ctx context.Context, req ThreadsRequest) (ThreadPage, error)
	ListReplies(ctx context.Context, req RepliesRequest) (ReplyPage, error)
}
