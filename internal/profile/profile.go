// Package profile defines the creator profile entity shared by the store,
// discovery sources, and the recommendation pipeline.
package profile

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation marks a profile that is missing required fields.
// Callers use errors.Is to distinguish it from infrastructure failures.
var ErrValidation = errors.New("invalid profile")

// Profile is one discovered creator/channel. A row is inserted at most once
// per ID and never overwritten by re-discovery.
//
// The metric fields are pointers because some sources (the HTML-only hashtag
// scrape) cannot observe them.
type Profile struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	SubscriberCount *int64     `json:"subscriber_count,omitempty"`
	ViewCount       *int64     `json:"view_count,omitempty"`
	VideoCount      *int64     `json:"video_count,omitempty"`
}

// New constructs a validated Profile. ID and Title are required; everything
// else is optional. Centralizing the shape contract here keeps discovery
// sources and ingestion utilities from shipping half-formed rows.
func New(id, title string) (Profile, error) {
	if id == "" {
		return Profile{}, fmt.Errorf("%w: id is required", ErrValidation)
	}
	if title == "" {
		return Profile{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	return Profile{ID: id, Title: title}, nil
}

// Validate re-checks the required fields on an already-built Profile.
// The store calls this before any insert.
func (p Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: id is required", ErrValidation)
	}
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	return nil
}

// Subscribers returns the subscriber count or zero when unobserved.
func (p Profile) Subscribers() int64 {
	if p.SubscriberCount == nil {
		return 0
	}
	return *p.SubscriberCount
}

// Int64Ptr is a small helper for building optional metric fields.
func Int64Ptr(v int64) *int64 { return &v }

// TimePtr is a small helper for building optional timestamps.
func TimePtr(t time.Time) *time.Time { return &t }
