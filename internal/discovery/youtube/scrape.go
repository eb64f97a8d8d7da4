package youtube

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Matches /channel/UCxxx and /c/CustomName path segments in rendered markup.
var channelPathPattern = regexp.MustCompile(`/(?:channel|c)/([A-Za-z0-9_\-]+)`)

// ScrapeConfig controls the degraded results-page scraper.
type ScrapeConfig struct {
	ResultsBaseURL string
	UserAgent      string
	Timeout        time.Duration
}

// ResultsScraper extracts channel identifiers from the public search results
// page. It depends on the structure of a third-party page and is best-effort
// only; there is no correctness guarantee when the markup changes.
type ResultsScraper struct {
	cfg    ScrapeConfig
	logger *zap.Logger
}

var _ ChannelIDScraper = (*ResultsScraper)(nil)

// NewResultsScraper builds a scraper.
func NewResultsScraper(cfg ScrapeConfig, logger *zap.Logger) *ResultsScraper {
	if cfg.ResultsBaseURL == "" {
		cfg.ResultsBaseURL = "https://www.youtube.com/results"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultsScraper{cfg: cfg, logger: logger}
}

// ChannelIDs fetches the search results page for the query and pulls channel
// identifiers out of the markup, deduplicated in order of first appearance
// and capped at maxResults.
func (r *ResultsScraper) ChannelIDs(ctx context.Context, query string, maxResults int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Synchronous collector; colly v2.1.0's Async option ignores its
	// argument, so rely on the synchronous default instead.
	c := colly.NewCollector()
	// This path only runs once credentialed access is gone; it mirrors a
	// plain browser request rather than a crawler.
	c.IgnoreRobotsTxt = true
	if r.cfg.UserAgent != "" {
		c.UserAgent = r.cfg.UserAgent
	}
	c.SetRequestTimeout(r.cfg.Timeout)

	var body []byte
	c.OnResponse(func(resp *colly.Response) {
		body = resp.Body
	})

	target := fmt.Sprintf("%s?search_query=%s", r.cfg.ResultsBaseURL, url.QueryEscape(query))
	if err := c.Visit(target); err != nil {
		return nil, fmt.Errorf("fetch results page: %w", err)
	}

	ids := extractChannelIDs(body, maxResults)
	r.logger.Debug("scraped results page",
		zap.String("query", query),
		zap.Int("channels", len(ids)),
	)
	return ids, nil
}

func extractChannelIDs(body []byte, maxResults int) []string {
	matches := channelPathPattern.FindAllSubmatch(body, -1)
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, string(m[1]))
	}
	return dedupe(ids, maxResults)
}
