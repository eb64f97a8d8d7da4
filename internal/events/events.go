// Package events defines the interface for publishing ingest notifications.
// Downstream consumers (enrichment jobs, analytics) subscribe to learn about
// newly discovered creator profiles without polling the database.
package events

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Provider publishes one message per newly inserted profile.
type Provider interface {
	// Publish announces a newly ingested profile. source names the discovery
	// path that produced it (youtube, instagram, recommend).
	Publish(ctx context.Context, profileID, source string) error

	// Close releases the underlying connection.
	Close() error
}

// NoOpProvider discards all events. It is the default when no broker is
// configured.
type NoOpProvider struct{}

// Publish for NoOpProvider does nothing.
func (NoOpProvider) Publish(_ context.Context, _, _ string) error { return nil }

// Close for NoOpProvider does nothing.
func (NoOpProvider) Close() error { return nil }

// MockProvider is a mock implementation of the Provider interface for testing.
type MockProvider struct {
	mock.Mock
}

// Publish is the mock implementation of the Publish method.
func (m *MockProvider) Publish(ctx context.Context, profileID, source string) error {
	args := m.Called(ctx, profileID, source)
	return args.Error(0)
}

// Close is the mock implementation of the Close method.
func (m *MockProvider) Close() error {
	args := m.Called()
	return args.Error(0)
}
