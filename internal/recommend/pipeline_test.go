package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/influenceops/creatorscout/internal/discovery"
	"github.com/influenceops/creatorscout/internal/profile"
	"github.com/influenceops/creatorscout/internal/store"
	"github.com/influenceops/creatorscout/internal/store/memory"
)

// fakeSource records calls and returns canned profiles or an error.
type fakeSource struct {
	profiles []profile.Profile
	err      error
	calls    int
	lastMode discovery.Mode
	lastMax  int
}

func (f *fakeSource) Discover(_ context.Context, _ string, maxResults int, mode discovery.Mode) ([]profile.Profile, error) {
	f.calls++
	f.lastMode = mode
	f.lastMax = maxResults
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles, nil
}

func ytProfile(id string, subs int64) profile.Profile {
	return profile.Profile{
		ID:              id,
		Title:           "Channel " + id,
		SubscriberCount: profile.Int64Ptr(subs),
	}
}

func seedStore(t *testing.T, s store.ProfileStore, profiles ...profile.Profile) {
	t.Helper()
	for _, p := range profiles {
		_, err := s.InsertIfAbsent(context.Background(), p)
		require.NoError(t, err)
	}
}

// Scenario A: empty store, fallback discovery of 12 profiles, top 5 ranked
// among them by subscriber count.
func TestRecommendEmptyStoreTriggersDiscovery(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	for i := 1; i <= 12; i++ {
		src.profiles = append(src.profiles, ytProfile(fmt.Sprintf("UC-%02d", i), int64(i*100)))
	}
	s := memory.NewProfileStore()
	p := NewPipeline(s, src, nil, Options{}, nil)

	got, err := p.Recommend(context.Background(), "cycling vlog, at least 5k subscribers", 5)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)
	require.Equal(t, discovery.ModeByRelevance, src.lastMode)
	require.Equal(t, 30, src.lastMax)

	require.Len(t, got, 5)
	require.Equal(t, "UC-12", got[0].ID)
	require.Equal(t, int64(1200), *got[0].Subscribers)
	require.Equal(t, "UC-08", got[4].ID)

	// All 12 discovered profiles were ingested.
	all, err := s.QueryRanked(context.Background(), store.Filter{}, 0)
	require.NoError(t, err)
	require.Len(t, all, 12)
}

// Scenario B: 15 sufficient locals, no discovery, top 3 by subscribers.
func TestRecommendSufficientLocalsSkipsDiscovery(t *testing.T) {
	t.Parallel()

	s := memory.NewProfileStore()
	for i := 1; i <= 15; i++ {
		seedStore(t, s, ytProfile(fmt.Sprintf("UC-%02d", i), int64(5000+i)))
	}
	src := &fakeSource{profiles: []profile.Profile{ytProfile("UC-live", 999999)}}
	p := NewPipeline(s, src, nil, Options{}, nil)

	got, err := p.Recommend(context.Background(), "at least 5k subscribers", 3)
	require.NoError(t, err)
	require.Zero(t, src.calls, "discovery must not run when local supply is sufficient")

	require.Len(t, got, 3)
	require.Equal(t, "UC-15", got[0].ID)
	require.Equal(t, "UC-14", got[1].ID)
	require.Equal(t, "UC-13", got[2].ID)

	// No writes happened: the live profile never entered the store.
	_, err = s.Lookup(context.Background(), "UC-live")
	require.ErrorIs(t, err, store.ErrNotFound)
}

// Scenario C: discovery fails after its internal fallback chain; the whole
// request fails and nothing from the failed call is persisted.
func TestRecommendDiscoveryFailureFailsRequest(t *testing.T) {
	t.Parallel()

	s := memory.NewProfileStore()
	src := &fakeSource{err: fmt.Errorf("degraded scrape found no channels: %w", discovery.ErrQuotaExhausted)}
	p := NewPipeline(s, src, nil, Options{}, nil)

	_, err := p.Recommend(context.Background(), "cycling vlog", 5)
	require.ErrorIs(t, err, discovery.ErrQuotaExhausted)

	all, err := s.QueryRanked(context.Background(), store.Filter{}, 0)
	require.NoError(t, err)
	require.Empty(t, all)
}

// When discovery ran, ranking is restricted to the discovered set even if
// higher-subscriber profiles exist elsewhere in the store.
func TestRecommendRanksOnlyDiscoveredSet(t *testing.T) {
	t.Parallel()

	s := memory.NewProfileStore()
	seedStore(t, s, ytProfile("UC-giant", 10_000_000))

	src := &fakeSource{profiles: []profile.Profile{
		ytProfile("UC-fresh-a", 2000),
		ytProfile("UC-fresh-b", 8000),
	}}
	p := NewPipeline(s, src, nil, Options{}, nil)

	got, err := p.Recommend(context.Background(), "cycling", 5)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)

	require.Len(t, got, 2)
	require.Equal(t, "UC-fresh-b", got[0].ID)
	require.Equal(t, "UC-fresh-a", got[1].ID)
	for _, rec := range got {
		require.NotEqual(t, "UC-giant", rec.ID)
	}
}

// Discovery that returns profiles already present re-ranks them without
// erroring or duplicating rows.
func TestRecommendDiscoveryDuplicatesAreSkipped(t *testing.T) {
	t.Parallel()

	s := memory.NewProfileStore()
	seedStore(t, s, ytProfile("UC-known", 4000))

	src := &fakeSource{profiles: []profile.Profile{
		ytProfile("UC-known", 4000),
		ytProfile("UC-new", 6000),
	}}
	p := NewPipeline(s, src, nil, Options{}, nil)

	got, err := p.Recommend(context.Background(), "cycling", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "UC-new", got[0].ID)
	require.Equal(t, "UC-known", got[1].ID)

	all, err := s.QueryRanked(context.Background(), store.Filter{}, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

// One malformed record must not abort the ingest batch.
func TestRecommendBadRecordDoesNotAbortBatch(t *testing.T) {
	t.Parallel()

	s := memory.NewProfileStore()
	src := &fakeSource{profiles: []profile.Profile{
		{ID: "UC-broken"}, // missing title
		ytProfile("UC-good", 3000),
	}}
	p := NewPipeline(s, src, nil, Options{}, nil)

	got, err := p.Recommend(context.Background(), "cycling", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "UC-good", got[0].ID)
}

// Discovery that finds nothing is a valid empty result, not an error.
func TestRecommendDiscoveryEmptyIsValid(t *testing.T) {
	t.Parallel()

	s := memory.NewProfileStore()
	seedStore(t, s, ytProfile("UC-existing", 50000))

	src := &fakeSource{profiles: nil}
	p := NewPipeline(s, src, nil, Options{}, nil)

	got, err := p.Recommend(context.Background(), "at least 100k subscribers", 5)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)
	require.Empty(t, got)
}

func TestRecommendTopNCoercion(t *testing.T) {
	t.Parallel()

	s := memory.NewProfileStore()
	src := &fakeSource{}
	p := NewPipeline(s, src, nil, Options{}, nil)

	got, err := p.Recommend(context.Background(), "cycling", 0)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Zero(t, src.calls)

	got, err = p.Recommend(context.Background(), "cycling", -3)
	require.NoError(t, err)
	require.Empty(t, got)
}

// Rows without subscriber metrics never count toward sufficiency, so a
// store full of hashtag-scraped profiles still triggers discovery and the
// discovered channels win the ranking.
func TestRecommendMetriclessLocalsDoNotSatisfySufficiency(t *testing.T) {
	t.Parallel()

	s := memory.NewProfileStore()
	for i := 0; i < 10; i++ {
		seedStore(t, s, profile.Profile{
			ID:    fmt.Sprintf("IG:rider_%02d", i),
			Title: fmt.Sprintf("rider_%02d", i),
		})
	}

	src := &fakeSource{profiles: []profile.Profile{ytProfile("UC-live", 7000)}}
	p := NewPipeline(s, src, nil, Options{}, nil)

	got, err := p.Recommend(context.Background(), "cycling", 5)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls, "metric-less rows must not satisfy the sufficiency probe")
	require.Len(t, got, 1)
	require.Equal(t, "UC-live", got[0].ID)
}

// The sufficiency constant is exact: 10 local candidates skip discovery,
// 9 trigger it.
func TestRecommendSufficiencyBoundary(t *testing.T) {
	t.Parallel()

	mkStore := func(n int) store.ProfileStore {
		s := memory.NewProfileStore()
		for i := 0; i < n; i++ {
			seedStore(t, s, ytProfile(fmt.Sprintf("UC-%02d", i), int64(1000+i)))
		}
		return s
	}

	src := &fakeSource{profiles: []profile.Profile{ytProfile("UC-live", 7000)}}
	p := NewPipeline(mkStore(10), src, nil, Options{}, nil)
	_, err := p.Recommend(context.Background(), "cycling", 5)
	require.NoError(t, err)
	require.Zero(t, src.calls)

	p = NewPipeline(mkStore(9), src, nil, Options{}, nil)
	_, err = p.Recommend(context.Background(), "cycling", 5)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)
}

func TestRecommendStoreErrorPropagates(t *testing.T) {
	t.Parallel()

	p := NewPipeline(failingStore{}, &fakeSource{}, nil, Options{}, nil)
	_, err := p.Recommend(context.Background(), "cycling", 5)
	require.Error(t, err)
	require.ErrorContains(t, err, "probe local candidates")
}

type failingStore struct{}

func (failingStore) Lookup(context.Context, string) (profile.Profile, error) {
	return profile.Profile{}, errors.New("down")
}

func (failingStore) InsertIfAbsent(context.Context, profile.Profile) (bool, error) {
	return false, errors.New("down")
}

func (failingStore) QueryRanked(context.Context, store.Filter, int) ([]profile.Profile, error) {
	return nil, errors.New("down")
}

func (failingStore) Close() {}
