// Package ingest implements the batch loading paths used by the CLI tooling:
// keyword-driven YouTube ingestion, hashtag-driven Instagram ingestion, and
// config-driven vertical seeding. All paths share the same best-effort
// insert-if-absent loop the recommendation fallback uses.
package ingest

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/influenceops/creatorscout/internal/discovery"
	"github.com/influenceops/creatorscout/internal/events"
	"github.com/influenceops/creatorscout/internal/metrics"
	"github.com/influenceops/creatorscout/internal/profile"
	"github.com/influenceops/creatorscout/internal/store"
)

// HashtagSource is the Instagram scrape capability the runner needs.
type HashtagSource interface {
	ProfilesByHashtag(ctx context.Context, tag string, maxResults int) ([]profile.Profile, error)
}

// Runner loads discovered profiles into the store and publishes ingest
// events for the rows that were actually inserted.
type Runner struct {
	store  store.ProfileStore
	events events.Provider
	logger *zap.Logger
}

// NewRunner constructs a Runner.
func NewRunner(s store.ProfileStore, ev events.Provider, logger *zap.Logger) *Runner {
	if ev == nil {
		ev = events.NoOpProvider{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{store: s, events: ev, logger: logger}
}

// LoadProfiles inserts profiles best-effort: a bad record or duplicate is
// skipped, never aborts the batch. It returns how many rows were newly
// inserted.
func (r *Runner) LoadProfiles(ctx context.Context, profiles []profile.Profile, source string) int {
	inserted := 0
	for _, p := range profiles {
		ok, err := r.store.InsertIfAbsent(ctx, p)
		if err != nil {
			r.logger.Warn("skipping profile during ingest",
				zap.String("id", p.ID),
				zap.String("source", source),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}
		inserted++
		metrics.ObserveProfileIngested(source)
		if err := r.events.Publish(ctx, p.ID, source); err != nil {
			r.logger.Warn("ingest event publish failed",
				zap.String("id", p.ID),
				zap.Error(err),
			)
		}
	}
	return inserted
}

// FromYouTube discovers channels for a keyword and loads them.
func (r *Runner) FromYouTube(ctx context.Context, src discovery.Source, keyword string, maxResults int, mode discovery.Mode) (int, error) {
	profiles, err := src.Discover(ctx, keyword, maxResults, mode)
	if err != nil {
		return 0, fmt.Errorf("discover %q: %w", keyword, err)
	}
	return r.LoadProfiles(ctx, profiles, "youtube"), nil
}

// FromHashtag scrapes a hashtag page and loads the posters.
func (r *Runner) FromHashtag(ctx context.Context, src HashtagSource, tag string, maxResults int) (int, error) {
	profiles, err := src.ProfilesByHashtag(ctx, tag, maxResults)
	if err != nil {
		return 0, fmt.Errorf("scrape hashtag %q: %w", tag, err)
	}
	return r.LoadProfiles(ctx, profiles, "instagram"), nil
}

// SeedConfig maps vertical names to their seed search terms.
type SeedConfig struct {
	Verticals map[string][]string `yaml:"verticals"`
}

// LoadSeedConfig reads a verticals YAML file.
func LoadSeedConfig(path string) (SeedConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedConfig{}, fmt.Errorf("read seed config: %w", err)
	}
	var cfg SeedConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return SeedConfig{}, fmt.Errorf("parse seed config: %w", err)
	}
	if len(cfg.Verticals) == 0 {
		return SeedConfig{}, fmt.Errorf("seed config has no verticals")
	}
	return cfg, nil
}

// SeedVerticals runs both discovery modes over every seed term of every
// vertical. Per-seed failures are logged and skipped so one dead vertical
// does not abort the batch; verticals are processed in name order so runs
// are reproducible.
func (r *Runner) SeedVerticals(ctx context.Context, src discovery.Source, cfg SeedConfig, perSeedMax int) int {
	names := make([]string, 0, len(cfg.Verticals))
	for name := range cfg.Verticals {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0
	for _, name := range names {
		r.logger.Info("seeding vertical", zap.String("vertical", name))
		for _, mode := range []discovery.Mode{discovery.ModeByName, discovery.ModeByRelevance} {
			for _, seed := range cfg.Verticals[name] {
				n, err := r.FromYouTube(ctx, src, seed, perSeedMax, mode)
				if err != nil {
					r.logger.Warn("seed ingest failed",
						zap.String("vertical", name),
						zap.String("seed", seed),
						zap.String("mode", string(mode)),
						zap.Error(err),
					)
					continue
				}
				total += n
			}
		}
	}
	return total
}
