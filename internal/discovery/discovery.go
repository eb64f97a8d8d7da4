// Package discovery defines the interface for live channel discovery against
// remote platforms. The pipeline treats discovery as a capability, not an
// implementation, so tests can substitute fakes and the CLI tooling can share
// the same sources.
package discovery

import (
	"context"
	"errors"

	"github.com/influenceops/creatorscout/internal/profile"
)

// Mode selects the search strategy for a discovery call.
type Mode string

const (
	// ModeByName searches for channels whose name matches the query.
	ModeByName Mode = "byName"
	// ModeByRelevance searches for videos matching the query and ranks
	// channels by how many of the returned videos they published. A channel
	// with many relevant recent videos is a stronger topical signal than a
	// single channel-name hit.
	ModeByRelevance Mode = "byRelevance"
)

// ErrQuotaExhausted signals that a remote call failed because the current
// credential's usage allotment is spent. The source rotates credentials on
// this error; callers only see it once every credential and the degraded
// fallback have failed.
var ErrQuotaExhausted = errors.New("discovery quota exhausted")

// Source returns a batch of fresh profiles for a query. Metric fields may be
// nil depending on which path produced them.
type Source interface {
	Discover(ctx context.Context, query string, maxResults int, mode Mode) ([]profile.Profile, error)
}
