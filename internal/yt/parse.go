package yt

import (
	"encoding/json"
	"strconv"

	"github.com/Jeffail/gabs/v2"

	"github.com/Bebenbaven/YTcommentGETer/internal/harvest"
)

func lookup(c *gabs.Container, path string) interface{} {
	if c == nil {
		return nil
	}
	return c.Path(path).Data()
}

func str(c *gabs.Container, path string) string {
	s, _ := lookup(c, path).(string)
	return s
}

func num(c *gabs.Container, path string) int64 {
	switch v := lookup(c, path).(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func children(c *gabs.Container, path string) []*gabs.Container {
	if c == nil {
		return nil
	}
	return c.Path(path).Children()
}

func parseComment(c *gabs.Container, html bool) harvest.Item {
	text := str(c, "snippet.textDisplay")
	if html {
		text = htmlToText(text)
	}

	return harvest.Item{
		ID:          str(c, "id"),
		ParentID:    str(c, "snippet.parentId"),
		Author:      str(c, "snippet.authorDisplayName"),
		PublishedAt: str(c, "snippet.publishedAt"),
		UpdatedAt:   str(c, "snippet.updatedAt"),
		LikeCount:   num(c, "snippet.likeCount"),
		Text:        text,
	}
}

func parseThreadPage(doc *gabs.Container, html bool) harvest.ThreadPage {
	page := harvest.ThreadPage{NextPageToken: str(doc, "nextPageToken")}

	for _, it := range children(doc, "items") {
		th := harvest.Thread{
			ID:              str(it, "id"),
			TopLevel:        parseComment(it.Path("snippet.topLevelComment"), html),
			TotalReplyCount: int(num(it, "snippet.totalReplyCount")),
		}
		for _, r := range children(it, "replies.comments") {
			th.Replies = append(th.Replies, parseComment(r, html))
		}
		page.Threads = append(page.Threads, th)
	}

	return page
}

func parseReplyPage(doc *gabs.Container, html bool) harvest.ReplyPage {
	page := harvest.ReplyPage{NextPageToken: str(doc, "nextPageToken")}

	for _, r := range children(doc, "items") {
		page.Replies = append(page.Replies, parseComment(r, html))
	}

	return page
}
