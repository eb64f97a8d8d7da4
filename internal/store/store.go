// Package store defines the interface for durable creator-profile storage.
// By using an interface, we decouple the pipeline from a specific database
// implementation, allowing a Postgres backend in production and an in-memory
// backend in tests and local development.
package store

import (
	"context"
	"errors"

	"github.com/influenceops/creatorscout/internal/profile"
)

// ErrNotFound is returned by Lookup when no row exists for the ID.
var ErrNotFound = errors.New("profile not found")

// Filter restricts a ranked query. Nil fields mean "no constraint"; when
// both are supplied they apply conjunctively.
type Filter struct {
	// MinSubscribers, when non-nil, keeps only rows whose subscriber count
	// is recorded and >= the value. A zero threshold still excludes rows
	// with no metrics, matching SQL comparison semantics against NULL.
	MinSubscribers *int64
	// IDIn, when non-nil, keeps only rows whose ID is in the set.
	IDIn []string
}

// ProfileStore is the persistence contract required by the recommendation
// pipeline and the ingestion utilities.
type ProfileStore interface {
	// Lookup fetches one profile by ID; ErrNotFound when absent.
	Lookup(ctx context.Context, id string) (profile.Profile, error)

	// InsertIfAbsent inserts a profile unless a row with the same ID already
	// exists. The existing row is never overwritten; the bool reports whether
	// a new row was written. Profiles missing required fields fail with
	// profile.ErrValidation.
	InsertIfAbsent(ctx context.Context, p profile.Profile) (bool, error)

	// QueryRanked returns profiles matching the filter ordered by subscriber
	// count descending, ties broken by ID ascending so results are
	// deterministic. limit <= 0 means no limit.
	QueryRanked(ctx context.Context, f Filter, limit int) ([]profile.Profile, error)

	// Close releases any underlying resources.
	Close()
}
