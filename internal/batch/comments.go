package batch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ecodeclub/ekit/slice"

	"github.com/Bebenbaven/YTcommentGETer/internal/models"
)

const (
	ColVideoID       = "video_id"
	ColCommentID     = "comment_id"
	ColParentID      = "parent_id"
	ColThreadID      = "thread_id"
	ColIsReply       = "is_reply"
	ColAuthor        = "author"
	ColPublishedAt   = "published_at"
	ColUpdatedAt     = "updated_at"
	ColLikeCount     = "like_count"
	ColText          = "text"
	ColToxicityLabel = "toxicity_label"
	ColToxicityScore = "toxicity_score"
)

// CommentColumns is the column order of a comment batch.
func CommentColumns() []string {
	return []string{
		ColVideoID,
		ColCommentID,
		ColParentID,
		ColThreadID,
		ColIsReply,
		ColAuthor,
		ColPublishedAt,
		ColUpdatedAt,
		ColLikeCount,
		ColText,
		ColToxicityLabel,
		ColToxicityScore,
	}
}

func FormatLabel(l *int) string {
	if l == nil {
		return ""
	}
	return strconv.Itoa(*l)
}

func FormatScore(s *float64) string {
	if s == nil {
		return ""
	}
	return strconv.FormatFloat(*s, 'g', -1, 64)
}

func ParseLabel(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	l, err := strconv.Atoi(s)
	if err != nil || (l != 0 && l != 1) {
		return nil, fmt.Errorf("invalid label %q", s)
	}
	return &l, nil
}

func ParseScore(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid score %q", s)
	}
	return &f, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func commentRow(c models.Comment) []string {
	return []string{
		c.VideoID,
		c.CommentID,
		c.ParentID,
		c.ThreadID,
		flag(c.IsReply),
		c.Author,
		c.PublishedAt,
		c.UpdatedAt,
		strconv.FormatInt(c.LikeCount, 10),
		c.Text,
		FormatLabel(c.ToxicityLabel),
		FormatScore(c.ToxicityScore),
	}
}

// FromComments lays comments out in CommentColumns order.
func FromComments(cs []models.Comment) *Table {
	t := NewTable(CommentColumns())
	t.Rows = slice.Map(cs, func(_ int, c models.Comment) []string {
		return commentRow(c)
	})
	return t
}

// ToComments reads comments back. Only comment_id and text are mandatory;
// other absent columns decode as zero values.
func ToComments(t *Table) ([]models.Comment, error) {
	if err := t.Require(ColCommentID, ColText); err != nil {
		return nil, err
	}

	idx := make(map[string]int)
	for _, name := range CommentColumns() {
		idx[name] = t.Index(name)
	}

	out := make([]models.Comment, 0, t.Len())
	for i := range t.Rows {
		get := func(name string) string { return t.Cell(i, idx[name]) }

		c := models.Comment{
			VideoID:     get(ColVideoID),
			CommentID:   get(ColCommentID),
			ParentID:    get(ColParentID),
			ThreadID:    get(ColThreadID),
			Author:      get(ColAuthor),
			PublishedAt: get(ColPublishedAt),
			UpdatedAt:   get(ColUpdatedAt),
			Text:        get(ColText),
		}

		switch v := strings.ToLower(strings.TrimSpace(get(ColIsReply))); v {
		case "", "0", "false":
		case "1", "true":
			c.IsReply = true
		default:
			return nil, fmt.Errorf("row %d: invalid is_reply %q", i+1, v)
		}

		if v := strings.TrimSpace(get(ColLikeCount)); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("row %d: invalid like_count %q", i+1, v)
			}
			c.LikeCount = n
		}

		var err error
		if c.ToxicityLabel, err = ParseLabel(get(ColToxicityLabel)); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if c.ToxicityScore, err = ParseScore(get(ColToxicityScore)); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		out = append(out, c)
	}

	return out, nil
}
