// Package memory provides an in-memory ProfileStore for development/testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/influenceops/creatorscout/internal/profile"
	"github.com/influenceops/creatorscout/internal/store"
)

// ProfileStore keeps profiles in a map guarded by a RWMutex. Insert-if-absent
// under the lock gives the same no-duplicate guarantee the Postgres backend
// gets from ON CONFLICT DO NOTHING.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]profile.Profile
}

var _ store.ProfileStore = (*ProfileStore)(nil)

// NewProfileStore constructs an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]profile.Profile)}
}

// Lookup fetches one profile by ID.
func (s *ProfileStore) Lookup(_ context.Context, id string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return profile.Profile{}, store.ErrNotFound
	}
	return p, nil
}

// InsertIfAbsent stores the profile unless the ID already exists.
func (s *ProfileStore) InsertIfAbsent(_ context.Context, p profile.Profile) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[p.ID]; exists {
		return false, nil
	}
	s.profiles[p.ID] = p
	return true, nil
}

// QueryRanked filters, sorts by subscriber count descending (missing counts
// rank last, matching NULLS LAST in Postgres), breaks ties by ID ascending,
// and applies the limit.
func (s *ProfileStore) QueryRanked(_ context.Context, f store.Filter, limit int) ([]profile.Profile, error) {
	var idSet map[string]struct{}
	if f.IDIn != nil {
		idSet = make(map[string]struct{}, len(f.IDIn))
		for _, id := range f.IDIn {
			idSet[id] = struct{}{}
		}
	}

	s.mu.RLock()
	matches := make([]profile.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if idSet != nil {
			if _, ok := idSet[p.ID]; !ok {
				continue
			}
		}
		if f.MinSubscribers != nil {
			if p.SubscriberCount == nil || *p.SubscriberCount < *f.MinSubscribers {
				continue
			}
		}
		matches = append(matches, p)
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		switch {
		case a.SubscriberCount == nil && b.SubscriberCount == nil:
			return a.ID < b.ID
		case a.SubscriberCount == nil:
			return false
		case b.SubscriberCount == nil:
			return true
		case *a.SubscriberCount != *b.SubscriberCount:
			return *a.SubscriberCount > *b.SubscriberCount
		default:
			return a.ID < b.ID
		}
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Close is a no-op for the in-memory backend.
func (s *ProfileStore) Close() {}
