// Package yt talks to the YouTube Data API v3.
package yt

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/andybalholm/brotli"

	"github.com/Bebenbaven/YTcommentGETer/internal/harvest"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"
	DefaultTimeout = 30 * time.Second

	TextFormatPlain = "plainText"
	TextFormatHTML  = "html"
)

type Config struct {
	BaseURL     string
	APIKey      string
	AccessToken string
	TextFormat  string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	accessToken string
	textFormat  string
}

var _ harvest.Source = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" && cfg.AccessToken == "" {
		return nil, ErrNoCredentials
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	switch cfg.TextFormat {
	case "":
		cfg.TextFormat = TextFormatPlain
	case TextFormatPlain, TextFormatHTML:
	default:
		return nil, fmt.Errorf("unsupported text format %q", cfg.TextFormat)
	}
	if cfg.HTTPClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient:  cfg.HTTPClient,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		accessToken: cfg.AccessToken,
		textFormat:  cfg.TextFormat,
	}, nil
}

func (c *Client) ListThreads(ctx context.Context, req harvest.ThreadsRequest) (harvest.ThreadPage, error) {
	q := url.Values{}
	q.Set("part", "snippet,replies")
	q.Set("videoId", req.VideoID)
	q.Set("textFormat", c.textFormat)
	if req.Order != "" {
		q.Set("order", string(req.Order))
	}
	if req.PageSize > 0 {
		q.Set("maxResults", strconv.Itoa(req.PageSize))
	}
	if req.PageToken != "" {
		q.Set("pageToken", req.PageToken)
	}

	doc, err := c.get(ctx, "commentThreads", q)
	if err != nil {
		return harvest.ThreadPage{}, err
	}

	return parseThreadPage(doc, c.textFormat == TextFormatHTML), nil
}

func (c *Client) ListReplies(ctx context.Context, req harvest.RepliesRequest) (harvest.ReplyPage, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("parentId", req.ParentID)
	q.Set("textFormat", c.textFormat)
	if req.PageSize > 0 {
		q.Set("maxResults", strconv.Itoa(req.PageSize))
	}
	if req.PageToken != "" {
		q.Set("pageToken", req.PageToken)
	}

	doc, err := c.get(ctx, "comments", q)
	if err != nil {
		return harvest.ReplyPage{}, err
	}

	return parseReplyPage(doc, c.textFormat == TextFormatHTML), nil
}

func (c *Client) get(ctx context.Context, resource string, q url.Values) (*gabs.Container, error) {
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+resource+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s request: %v", harvest.ErrTransient, resource, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", harvest.ErrTransient, resource, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	doc, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", resource, err)
	}

	return doc, nil
}

// readBody decodes the body according to Content-Encoding.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}

	return io.ReadAll(r)
}
