package yt

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bebenbaven/YTcommentGETer/internal/harvest"
)

func commentJSON(id, parent, text string) string {
	parentField := ""
	if parent != "" {
		parentField = fmt.Sprintf(`"parentId": %q,`, parent)
	}
	return fmt.Sprintf(`{
		"kind": "youtube#comment",
		"id": %q,
		"snippet": {
			%s
			"authorDisplayName": "@user-%s",
			"textDisplay": %q,
			"likeCount": 3,
			"publishedAt": "2024-05-01T10:00:00Z",
			"updatedAt": "2024-05-02T10:00:00Z"
		}
	}`, id, parentField, id, text)
}

func threadJSON(id string, total int, replies ...string) string {
	reply := ""
	if len(replies) > 0 {
		reply = fmt.Sprintf(`, "replies": {"comments": [%s]}`, strings.Join(replies, ","))
	}
	return fmt.Sprintf(`{
		"kind": "youtube#commentThread",
		"id": %q,
		"snippet": {
			"videoId": "dQw4w9WgXcQ",
			"totalReplyCount": %d,
			"topLevelComment": %s
		}%s
	}`, id, total, commentJSON(id, "", "top "+id), reply)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mod ...func(*Config)) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL, APIKey: "test-key"}
	for _, m := range mod {
		m(&cfg)
	}

	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestListThreads(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/commentThreads", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "snippet,replies", q.Get("part"))
		assert.Equal(t, "dQw4w9WgXcQ", q.Get("videoId"))
		assert.Equal(t, "100", q.Get("maxResults"))
		assert.Equal(t, "relevance", q.Get("order"))
		assert.Equal(t, "plainText", q.Get("textFormat"))
		assert.Equal(t, "tok", q.Get("pageToken"))
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "br, gzip", r.Header.Get("Accept-Encoding"))

		fmt.Fprintf(w, `{"nextPageToken": "next", "items": [%s, %s]}`,
			threadJSON("A", 2, commentJSON("A.1", "A", "reply one")),
			threadJSON("B", 0),
		)
	})

	page, err := c.ListThreads(context.Background(), harvest.ThreadsRequest{
		VideoID:   "dQw4w9WgXcQ",
		Order:     harvest.OrderRelevance,
		PageToken: "tok",
		PageSize:  100,
	})
	require.NoError(t, err)

	assert.Equal(t, "next", page.NextPageToken)
	require.Len(t, page.Threads, 2)

	a := page.Threads[0]
	assert.Equal(t, "A", a.ID)
	assert.Equal(t, 2, a.TotalReplyCount)
	assert.Equal(t, harvest.Item{
		ID:          "A",
		Author:      "@user-A",
		PublishedAt: "2024-05-01T10:00:00Z",
		UpdatedAt:   "2024-05-02T10:00:00Z",
		LikeCount:   3,
		Text:        "top A",
	}, a.TopLevel)
	require.Len(t, a.Replies, 1)
	assert.Equal(t, "A", a.Replies[0].ParentID)
	assert.Equal(t, "reply one", a.Replies[0].Text)

	assert.Empty(t, page.Threads[1].Replies)
}

func TestListReplies(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/comments", r.URL.Path)
		assert.Equal(t, "A", r.URL.Query().Get("parentId"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Empty(t, r.URL.Query().Get("key"))
		assert.Empty(t, r.URL.Query().Get("pageToken"))

		fmt.Fprintf(w, `{"items": [%s, %s]}`,
			commentJSON("A.1", "A", "one"),
			commentJSON("A.2", "A", "two"),
		)
	}, func(cfg *Config) {
		cfg.APIKey = ""
		cfg.AccessToken = "token"
	})

	page, err := c.ListReplies(context.Background(), harvest.RepliesRequest{ParentID: "A", PageSize: 100})
	require.NoError(t, err)

	assert.Empty(t, page.NextPageToken)
	require.Len(t, page.Replies, 2)
	assert.Equal(t, "A.2", page.Replies[1].ID)
}

func TestCompressedBodies(t *testing.T) {
	t.Parallel()

	body := fmt.Sprintf(`{"items": [%s]}`, threadJSON("Z", 0))

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, err := bw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err = gw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	for encoding, payload := range map[string][]byte{"br": br.Bytes(), "gzip": gz.Bytes(), "": []byte(body)} {
		encoding, payload := encoding, payload
		t.Run("encoding "+encoding, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				if encoding != "" {
					w.Header().Set("Content-Encoding", encoding)
				}
				_, _ = w.Write(payload)
			})

			page, err := c.ListThreads(context.Background(), harvest.ThreadsRequest{VideoID: "v"})
			require.NoError(t, err)
			require.Len(t, page.Threads, 1)
			assert.Equal(t, "Z", page.Threads[0].TopLevel.ID)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		reason string
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, reason: "authError", want: harvest.ErrUnauthorized},
		{name: "quota", status: http.StatusForbidden, reason: "quotaExceeded", want: harvest.ErrQuotaExceeded},
		{name: "rate limit", status: http.StatusForbidden, reason: "rateLimitExceeded", want: harvest.ErrQuotaExceeded},
		{name: "too many requests", status: http.StatusTooManyRequests, want: harvest.ErrQuotaExceeded},
		{name: "comments disabled", status: http.StatusForbidden, reason: "commentsDisabled", want: harvest.ErrForbidden},
		{name: "video not found", status: http.StatusNotFound, reason: "videoNotFound", want: harvest.ErrNotFound},
		{name: "backend error", status: http.StatusServiceUnavailable, reason: "backendError", want: harvest.ErrTransient},
		{name: "bad request", status: http.StatusBadRequest, reason: "invalidPageToken", want: ErrBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprintf(w, `{"error": {"code": %d, "message": "nope", "errors": [{"reason": %q}]}}`, tt.status, tt.reason)
			})

			_, err := c.ListReplies(context.Background(), harvest.RepliesRequest{ParentID: "A"})
			require.ErrorIs(t, err, tt.want)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.reason, apiErr.Reason)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestErrorWithoutBody(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.ListThreads(context.Background(), harvest.ThreadsRequest{VideoID: "v"})
	require.ErrorIs(t, err, harvest.ErrTransient)
	assert.Equal(t, "youtube api: status 502", err.Error())
}

func TestTransportErrorIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.ListThreads(context.Background(), harvest.ThreadsRequest{VideoID: "v"})
	require.ErrorIs(t, err, harvest.ErrTransient)
}

func TestInvalidJSON(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"items": [`)
	})

	_, err := c.ListThreads(context.Background(), harvest.ThreadsRequest{VideoID: "v"})
	require.Error(t, err)
	assert.False(t, harvest.Retryable(err))
}

func TestHTMLTextFormat(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "html", r.URL.Query().Get("textFormat"))
		fmt.Fprintf(w, `{"items": [%s]}`, commentJSON("A.1", "A", `line one<br>see <a href="https://x.co/a">https://x.co/a</a> &amp; more`))
	}, func(cfg *Config) {
		cfg.TextFormat = TextFormatHTML
	})

	page, err := c.ListReplies(context.Background(), harvest.RepliesRequest{ParentID: "A"})
	require.NoError(t, err)
	require.Len(t, page.Replies, 1)
	assert.Equal(t, "line one\nsee https://x.co/a & more", page.Replies[0].Text)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.ErrorIs(t, err, ErrNoCredentials)

	_, err = New(Config{APIKey: "k", TextFormat: "markdown"})
	require.Error(t, err)

	c, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, TextFormatPlain, c.textFormat)
}

func TestGetVideo(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		if r.URL.Query().Get("id") != "dQw4w9WgXcQ" {
			fmt.Fprint(w, `{"items": []}`)
			return
		}
		fmt.Fprint(w, `{"items": [{"id": "dQw4w9WgXcQ", "snippet": {
			"title": "Never Gonna", "description": "desc",
			"channelId": "UC1", "channelTitle": "Rick"
		}}]}`)
	})

	v, err := c.GetVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Never Gonna", v.Title)
	assert.Equal(t, "UC1", v.ChannelID)
	assert.Equal(t, "Rick", v.ChannelTitle)
	assert.Equal(t, "dQw4w9WgXcQ", v.VideoID)

	_, err = c.GetVideo(context.Background(), "missing0000")
	require.ErrorIs(t, err, harvest.ErrNotFound)
}

// TestHarvestThroughClient runs the harvester against a fake API where the
// first thread embeds five of its seven replies.
func TestHarvestThroughClient(t *testing.T) {
	t.Parallel()

	var replyCalls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/commentThreads":
			embedded := make([]string, 0, 5)
			for i := 1; i <= 5; i++ {
				embedded = append(embedded, commentJSON(fmt.Sprintf("A.%d", i), "A", "r"))
			}
			fmt.Fprintf(w, `{"items": [%s, %s, %s]}`,
				threadJSON("A", 7, embedded...), threadJSON("B", 0), threadJSON("C", 0))
		case "/comments":
			replyCalls++
			assert.Equal(t, "A", r.URL.Query().Get("parentId"))
			all := make([]string, 0, 7)
			for i := 1; i <= 7; i++ {
				all = append(all, commentJSON(fmt.Sprintf("A.%d", i), "A", "r"))
			}
			fmt.Fprintf(w, `{"items": [%s]}`, strings.Join(all, ","))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	recs, stats, err := harvest.New(c, harvest.Config{}).Harvest(context.Background(), harvest.Request{
		VideoID: "dQw4w9WgXcQ",
		Limit:   harvest.NoLimit,
	})
	require.NoError(t, err)

	assert.Len(t, recs, 10)
	assert.Equal(t, 1, replyCalls)
	assert.Equal(t, 5, stats.Duplicates)

	seen := make(map[string]bool)
	for _, r := range recs {
		assert.False(t, seen[r.CommentID])
		seen[r.CommentID] = true
	}
}
