// Package pageviews queries the Wikimedia pageviews REST API for per-article
// view totals.
package pageviews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/wikiharvest/wikiharvest/internal/upstream"
)

// Defaults for the per-article endpoint.
const (
	DefaultBaseURL     = "https://wikimedia.org/api/rest_v1/metrics/pageviews/per-article"
	DefaultProject     = "en.wikipedia.org"
	DefaultAccess      = "all-access"
	DefaultAgent       = "user"
	DefaultGranularity = "monthly"
)

// Config configures the pageviews client.
type Config struct {
	Upstream    upstream.Config
	Project     string
	Access      string
	Agent       string
	Granularity string
}

// Client queries per-article pageview totals.
type Client struct {
	up          *upstream.Client
	project     string
	access      string
	agent       string
	granularity string
	logger      *zap.Logger
}

// NewClient builds a pageviews client on the shared upstream machinery.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = DefaultBaseURL
	}
	cfg.Upstream.API = upstream.APIPageviews
	c := &Client{
		up:          upstream.New(cfg.Upstream),
		project:     cfg.Project,
		access:      cfg.Access,
		agent:       cfg.Agent,
		granularity: cfg.Granularity,
		logger:      logger,
	}
	if c.project == "" {
		c.project = DefaultProject
	}
	if c.access == "" {
		c.access = DefaultAccess
	}
	if c.agent == "" {
		c.agent = DefaultAgent
	}
	if c.granularity == "" {
		c.granularity = DefaultGranularity
	}
	return c
}

type viewsResponse struct {
	Items []viewItem `json:"items"`
}

type viewItem struct {
	Project   string `json:"project"`
	Article   string `json:"article"`
	Timestamp string `json:"timestamp"`
	Views     int64  `json:"views"`
}

// restError is the problem document the REST API returns with error
// statuses.
type restError struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// YearlyViews sums the view buckets for title between start and end, both
// YYYYMMDD; with monthly granularity start is inclusive and end exclusive.
// Titles the pageviews service has never seen total zero, not an error.
func (c *Client) YearlyViews(ctx context.Context, title, start, end string) (int64, error) {
	path := fmt.Sprintf("/%s/%s/%s/%s/%s/%s/%s",
		c.project, c.access, c.agent, EncodeTitle(title), c.granularity, start, end)

	var out viewsResponse
	resp, err := c.up.R().SetContext(ctx).SetResult(&out).Get(path)
	if err != nil {
		return 0, fmt.Errorf("fetch pageviews for %q: %w", title, c.up.TransportError(err))
	}
	if resp.StatusCode() == http.StatusNotFound {
		// No data for this title in the window.
		return 0, nil
	}
	if !resp.IsSuccess() {
		code := resp.StatusCode()
		if code >= 400 && code < 500 {
			var rerr restError
			if jerr := json.Unmarshal(resp.Body(), &rerr); jerr == nil && rerr.Detail != "" {
				return 0, fmt.Errorf("fetch pageviews for %q: %w", title,
					&upstream.Error{API: c.up.API, Status: code, Code: rerr.Title, Info: rerr.Detail})
			}
		}
		return 0, fmt.Errorf("fetch pageviews for %q: %w", title, c.up.StatusError(resp))
	}

	var total int64
	for _, item := range out.Items {
		total += item.Views
	}
	return total, nil
}

const upperhex = "0123456789ABCDEF"

// EncodeTitle prepares a title for the per-article endpoint: spaces become
// underscores, then every byte outside the RFC 3986 unreserved set is
// percent-encoded. Slashes and plus signs must be escaped or the REST path
// routing breaks ("AC/DC", "C++").
func EncodeTitle(title string) string {
	underscored := strings.ReplaceAll(title, " ", "_")
	var b strings.Builder
	b.Grow(len(underscored))
	for i := 0; i < len(underscored); i++ {
		ch := underscored[i]
		if unreserved(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[ch>>4])
		b.WriteByte(upperhex[ch&0x0F])
	}
	return b.String()
}

func unreserved(ch byte) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	case ch == '-' || ch == '.' || ch == '_' || ch == '~':
		return true
	}
	return false
}
