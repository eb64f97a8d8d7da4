// Package instagram implements an HTML-only hashtag scrape. It never sees
// follower metrics, so every profile it produces carries nil counts.
//
// The scrape depends on the structure of a third-party page (the embedded
// window._sharedData blob) and is best-effort: a markup change breaks it and
// that is an accepted limitation, not a contract.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/influenceops/creatorscout/internal/profile"
)

var sharedDataPattern = regexp.MustCompile(`window\._sharedData = (.*?);</script>`)

// Config controls the hashtag scraper.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Scraper fetches public hashtag pages and extracts poster usernames.
type Scraper struct {
	cfg    Config
	logger *zap.Logger
}

// NewScraper builds a hashtag Scraper.
func NewScraper(cfg Config, logger *zap.Logger) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.instagram.com"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible)"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{cfg: cfg, logger: logger}
}

// ProfilesByHashtag scrapes the hashtag page and returns one metric-less
// profile per unique poster, IDs namespaced as "IG:<username>", capped at
// maxResults in order of appearance.
func (s *Scraper) ProfilesByHashtag(ctx context.Context, tag string, maxResults int) ([]profile.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Synchronous collector; colly v2.1.0's Async option ignores its
	// argument, so rely on the synchronous default instead.
	c := colly.NewCollector()
	c.IgnoreRobotsTxt = true
	c.UserAgent = s.cfg.UserAgent
	c.SetRequestTimeout(s.cfg.Timeout)

	var body []byte
	c.OnResponse(func(resp *colly.Response) {
		body = resp.Body
	})

	target := fmt.Sprintf("%s/explore/tags/%s/", s.cfg.BaseURL, tag)
	if err := c.Visit(target); err != nil {
		return nil, fmt.Errorf("fetch hashtag page: %w", err)
	}

	usernames, err := extractUsernames(body, maxResults)
	if err != nil {
		return nil, err
	}

	out := make([]profile.Profile, 0, len(usernames))
	for _, user := range usernames {
		p, err := profile.New("IG:"+user, user)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	s.logger.Debug("scraped hashtag page",
		zap.String("tag", tag),
		zap.Int("profiles", len(out)),
	)
	return out, nil
}

type sharedData struct {
	EntryData struct {
		TagPage []struct {
			Graphql struct {
				Hashtag struct {
					EdgeHashtagToMedia struct {
						Edges []struct {
							Node struct {
								Owner struct {
									Username string `json:"username"`
								} `json:"owner"`
							} `json:"node"`
						} `json:"edges"`
					} `json:"edge_hashtag_to_media"`
				} `json:"hashtag"`
			} `json:"graphql"`
		} `json:"TagPage"`
	} `json:"entry_data"`
}

func extractUsernames(body []byte, maxResults int) ([]string, error) {
	m := sharedDataPattern.FindSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("sharedData blob not found in hashtag page")
	}
	var data sharedData
	if err := json.Unmarshal(m[1], &data); err != nil {
		return nil, fmt.Errorf("decode sharedData: %w", err)
	}
	if len(data.EntryData.TagPage) == 0 {
		return nil, fmt.Errorf("sharedData has no tag page")
	}

	seen := make(map[string]struct{})
	var out []string
	for _, edge := range data.EntryData.TagPage[0].Graphql.Hashtag.EdgeHashtagToMedia.Edges {
		user := edge.Node.Owner.Username
		if user == "" {
			continue
		}
		if _, ok := seen[user]; ok {
			continue
		}
		seen[user] = struct{}{}
		out = append(out, user)
		if len(out) >= maxResults {
			break
		}
	}
	return out, nil
}
