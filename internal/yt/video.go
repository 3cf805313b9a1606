package yt

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Bebenbaven/YTcommentGETer/internal/harvest"
	"github.com/Bebenbaven/YTcommentGETer/internal/models"
)

// GetVideo fetches title and channel of a video.
func (c *Client) GetVideo(ctx context.Context, videoID string) (models.Video, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("id", videoID)

	doc, err := c.get(ctx, "videos", q)
	if err != nil {
		return models.Video{}, err
	}

	items := children(doc, "items")
	if len(items) == 0 {
		return models.Video{}, fmt.Errorf("video %s: %w", videoID, harvest.ErrNotFound)
	}
	it := items[0]

	return models.Video{
		VideoID:      videoID,
		Title:        str(it, "snippet.title"),
		Description:  str(it, "snippet.description"),
		ChannelID:    str(it, "snippet.channelId"),
		ChannelTitle: str(it, "snippet.channelTitle"),
	}, nil
}
