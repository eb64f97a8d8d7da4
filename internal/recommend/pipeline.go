// Package recommend orchestrates the candidate-acquisition and ranking
// pipeline: interpret the brief, probe the local store, fall back to live
// discovery when local supply is thin, ingest, re-rank, and shape the
// response.
package recommend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/influenceops/creatorscout/internal/brief"
	"github.com/influenceops/creatorscout/internal/discovery"
	"github.com/influenceops/creatorscout/internal/events"
	"github.com/influenceops/creatorscout/internal/metrics"
	"github.com/influenceops/creatorscout/internal/store"
)

// Options tune the pipeline. Zero values fall back to the service defaults.
type Options struct {
	// DefaultTopN is used when the caller does not specify a result size.
	DefaultTopN int
	// SufficiencyCount is the local-candidate threshold below which a live
	// discovery is triggered.
	SufficiencyCount int
	// DiscoveryMaxItems caps how many profiles one fallback discovery may
	// return.
	DiscoveryMaxItems int
}

func (o Options) withDefaults() Options {
	if o.DefaultTopN <= 0 {
		o.DefaultTopN = 5
	}
	if o.SufficiencyCount <= 0 {
		o.SufficiencyCount = 10
	}
	if o.DiscoveryMaxItems <= 0 {
		o.DiscoveryMaxItems = 30
	}
	return o
}

// Recommendation is one ranked result. Subscribers is null for profiles whose
// source could not observe metrics.
type Recommendation struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subscribers *int64 `json:"subs"`
}

// Pipeline wires the interpreter, store, and discovery source together.
// It holds no per-request state; one instance serves concurrent requests.
type Pipeline struct {
	store  store.ProfileStore
	source discovery.Source
	events events.Provider
	opts   Options
	logger *zap.Logger
}

// NewPipeline constructs a Pipeline.
func NewPipeline(s store.ProfileStore, src discovery.Source, ev events.Provider, opts Options, logger *zap.Logger) *Pipeline {
	if ev == nil {
		ev = events.NoOpProvider{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:  s,
		source: src,
		events: ev,
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// DefaultTopN exposes the configured default result size for the serving
// boundary to apply when a request leaves top_n unset.
func (p *Pipeline) DefaultTopN() int {
	return p.opts.DefaultTopN
}

// Recommend runs the full pipeline for one brief. topN < 0 is coerced to 0,
// and 0 yields an empty result rather than an error.
//
// When the fallback discovery runs, ranking is restricted to the freshly
// discovered IDs and the subscriber threshold is ignored: that set is
// considered topically relevant by construction.
func (p *Pipeline) Recommend(ctx context.Context, briefText string, topN int) ([]Recommendation, error) {
	if topN < 0 {
		topN = 0
	}
	if topN == 0 {
		return []Recommendation{}, nil
	}

	prefs := brief.Interpret(briefText)

	// The probe requires a recorded subscriber count even at threshold zero,
	// so metric-less rows never count toward sufficiency.
	candidates, err := p.store.QueryRanked(ctx, store.Filter{MinSubscribers: &prefs.MinSubscribers}, 0)
	if err != nil {
		metrics.ObserveRecommend("error")
		return nil, fmt.Errorf("probe local candidates: %w", err)
	}

	var discoveredIDs []string
	if len(candidates) < p.opts.SufficiencyCount {
		p.logger.Info("local supply insufficient, running live discovery",
			zap.Int("local_candidates", len(candidates)),
			zap.Int64("min_subscribers", prefs.MinSubscribers),
			zap.Strings("keywords", prefs.Keywords),
		)
		discoveredIDs, err = p.discoverAndIngest(ctx, briefText)
		if err != nil {
			metrics.ObserveRecommend("error")
			return nil, err
		}
	}

	filter := store.Filter{MinSubscribers: &prefs.MinSubscribers}
	if discoveredIDs != nil {
		filter = store.Filter{IDIn: discoveredIDs}
	}
	ranked, err := p.store.QueryRanked(ctx, filter, topN)
	if err != nil {
		metrics.ObserveRecommend("error")
		return nil, fmt.Errorf("rank candidates: %w", err)
	}

	out := make([]Recommendation, 0, len(ranked))
	for _, prof := range ranked {
		out = append(out, Recommendation{
			ID:          prof.ID,
			Title:       prof.Title,
			Subscribers: prof.SubscriberCount,
		})
	}
	metrics.ObserveRecommend("ok")
	return out, nil
}

// discoverAndIngest pulls fresh profiles by relevance and loads them into the
// store best-effort: a bad record or duplicate must not abort the batch. The
// returned slice is non-nil whenever discovery ran, even when it ran empty,
// so the caller can tell "no discovery" from "discovery found nothing".
func (p *Pipeline) discoverAndIngest(ctx context.Context, briefText string) ([]string, error) {
	profiles, err := p.source.Discover(ctx, briefText, p.opts.DiscoveryMaxItems, discovery.ModeByRelevance)
	if err != nil {
		return nil, fmt.Errorf("live discovery: %w", err)
	}

	ids := make([]string, 0, len(profiles))
	for _, prof := range profiles {
		ids = append(ids, prof.ID)
		inserted, err := p.store.InsertIfAbsent(ctx, prof)
		if err != nil {
			p.logger.Warn("skipping profile during ingest",
				zap.String("id", prof.ID),
				zap.Error(err),
			)
			continue
		}
		if inserted {
			metrics.ObserveProfileIngested("recommend")
			if err := p.events.Publish(ctx, prof.ID, "recommend"); err != nil {
				p.logger.Warn("ingest event publish failed",
					zap.String("id", prof.ID),
					zap.Error(err),
				)
			}
		}
	}
	return ids, nil
}
