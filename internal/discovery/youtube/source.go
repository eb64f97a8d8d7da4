// Package youtube implements channel discovery against the YouTube Data API,
// with credential rotation and a degraded HTML-scrape fallback.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/influenceops/creatorscout/internal/discovery"
	"github.com/influenceops/creatorscout/internal/metrics"
	"github.com/influenceops/creatorscout/internal/profile"
)

// The channels endpoint accepts at most 50 IDs per call.
const maxStatsBatch = 50

// Config controls the API client.
type Config struct {
	APIBaseURL string
	Timeout    time.Duration
}

// ChannelIDScraper is the degraded fallback: extract channel identifiers
// straight from a public search results page when no credentialed access
// remains.
type ChannelIDScraper interface {
	ChannelIDs(ctx context.Context, query string, maxResults int) ([]string, error)
}

// Source implements discovery.Source over the YouTube Data API.
type Source struct {
	cfg     Config
	client  *http.Client
	keys    *discovery.KeyRing
	scraper ChannelIDScraper
	logger  *zap.Logger
}

var _ discovery.Source = (*Source)(nil)

// NewSource builds a Source. The key ring and scraper are injected so tests
// can run with independent rotation cursors and a fake results page.
func NewSource(cfg Config, keys *discovery.KeyRing, scraper ChannelIDScraper, logger *zap.Logger) (*Source, error) {
	if keys == nil {
		return nil, fmt.Errorf("key ring is required")
	}
	if scraper == nil {
		return nil, fmt.Errorf("scraper is required")
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://www.googleapis.com/youtube/v3"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		keys:    keys,
		scraper: scraper,
		logger:  logger,
	}, nil
}

// Discover runs one search in the requested mode and resolves the resulting
// channel identifiers to full profiles. Each top-level attempt claims the
// next credential; quota exhaustion rotates through the pool, and only after
// every credential fails does the degraded scrape path run.
func (s *Source) Discover(ctx context.Context, query string, maxResults int, mode discovery.Mode) ([]profile.Profile, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	for attempt := 0; attempt < s.keys.Size(); attempt++ {
		key := s.keys.Next()
		ids, err := s.searchChannelIDs(ctx, key, query, maxResults, mode)
		if errors.Is(err, discovery.ErrQuotaExhausted) {
			metrics.ObserveKeyRotation()
			s.logger.Warn("api key over quota, rotating",
				zap.String("mode", string(mode)),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		if err != nil {
			metrics.ObserveDiscovery(string(mode), "error")
			return nil, err
		}
		profiles, err := s.fetchChannelStats(ctx, ids)
		if err != nil {
			metrics.ObserveDiscovery(string(mode), "error")
			return nil, err
		}
		metrics.ObserveDiscovery(string(mode), "ok")
		return profiles, nil
	}

	s.logger.Warn("all api keys over quota, falling back to HTML scrape",
		zap.String("query", query),
		zap.String("mode", string(mode)),
	)
	ids, err := s.scraper.ChannelIDs(ctx, query, maxResults)
	if err != nil {
		metrics.ObserveDiscovery(string(mode), "error")
		return nil, fmt.Errorf("degraded scrape: %w", err)
	}
	if len(ids) == 0 {
		metrics.ObserveDiscovery(string(mode), "error")
		return nil, fmt.Errorf("degraded scrape found no channels: %w", discovery.ErrQuotaExhausted)
	}
	profiles, err := s.fetchChannelStats(ctx, ids)
	if err != nil {
		metrics.ObserveDiscovery(string(mode), "error")
		return nil, err
	}
	metrics.ObserveDiscovery(string(mode), "degraded")
	return profiles, nil
}

func (s *Source) searchChannelIDs(ctx context.Context, key, query string, maxResults int, mode discovery.Mode) ([]string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	switch mode {
	case discovery.ModeByRelevance:
		params.Set("type", "video")
	case discovery.ModeByName:
		params.Set("type", "channel")
	default:
		return nil, fmt.Errorf("unknown discovery mode %q", mode)
	}

	var resp searchResponse
	if err := s.apiGet(ctx, key, "search", params, &resp); err != nil {
		return nil, err
	}

	if mode == discovery.ModeByName {
		ids := make([]string, 0, len(resp.Items))
		for _, item := range resp.Items {
			if id := item.channelID(); id != "" {
				ids = append(ids, id)
			}
		}
		return dedupe(ids, maxResults), nil
	}
	return rankByVideoCount(resp, maxResults), nil
}

// rankByVideoCount tallies returned videos per channel and keeps the top
// maxResults channels, most videos first. Ties keep first-seen order so the
// ranking is deterministic.
func rankByVideoCount(resp searchResponse, maxResults int) []string {
	counts := make(map[string]int)
	var order []string
	for _, item := range resp.Items {
		id := item.channelID()
		if id == "" {
			continue
		}
		if _, seen := counts[id]; !seen {
			order = append(order, id)
		}
		counts[id]++
	}
	firstSeen := make(map[string]int, len(order))
	for i, id := range order {
		firstSeen[id] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})
	if len(order) > maxResults {
		order = order[:maxResults]
	}
	return order
}

// fetchChannelStats resolves channel IDs to profiles with one batched
// channels.list call. On quota exhaustion it rotates to the next credential
// and retries once; a second quota failure surfaces to the caller.
func (s *Source) fetchChannelStats(ctx context.Context, ids []string) ([]profile.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxStatsBatch {
		ids = ids[:maxStatsBatch]
	}
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", strings.Join(ids, ","))

	var resp channelsResponse
	err := s.apiGet(ctx, s.keys.Next(), "channels", params, &resp)
	if errors.Is(err, discovery.ErrQuotaExhausted) {
		metrics.ObserveKeyRotation()
		s.logger.Warn("stats fetch over quota, retrying with next key")
		err = s.apiGet(ctx, s.keys.Next(), "channels", params, &resp)
	}
	if err != nil {
		return nil, err
	}

	out := make([]profile.Profile, 0, len(resp.Items))
	for _, item := range resp.Items {
		p, err := profile.New(item.ID, item.Snippet.Title)
		if err != nil {
			s.logger.Warn("skipping malformed channel item", zap.Error(err))
			continue
		}
		p.Description = item.Snippet.Description
		if ts, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			p.PublishedAt = profile.TimePtr(ts)
		}
		p.SubscriberCount = profile.Int64Ptr(parseCount(item.Statistics.SubscriberCount))
		p.ViewCount = profile.Int64Ptr(parseCount(item.Statistics.ViewCount))
		p.VideoCount = profile.Int64Ptr(parseCount(item.Statistics.VideoCount))
		out = append(out, p)
	}
	return out, nil
}

func (s *Source) apiGet(ctx context.Context, key, endpoint string, params url.Values, dst any) error {
	params.Set("key", key)
	reqURL := fmt.Sprintf("%s/%s?%s", strings.TrimRight(s.cfg.APIBaseURL, "/"), endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if resp.StatusCode == http.StatusForbidden && strings.Contains(string(body), "quotaExceeded") {
		return fmt.Errorf("%s: %w", endpoint, discovery.ErrQuotaExhausted)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func parseCount(raw string) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func dedupe(ids []string, maxResults int) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) >= maxResults {
			break
		}
	}
	return out
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID struct {
		ChannelID string `json:"channelId"`
		VideoID   string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		ChannelID string `json:"channelId"`
		Title     string `json:"title"`
	} `json:"snippet"`
}

// channelID prefers the snippet's channelId (set for both channel and video
// results) and falls back to the id block for channel results.
func (i searchItem) channelID() string {
	if i.Snippet.ChannelID != "" {
		return i.Snippet.ChannelID
	}
	return i.ID.ChannelID
}

type channelsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
			ViewCount       string `json:"viewCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}
