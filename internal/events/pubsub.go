package events

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// PubSubProvider implements the Provider interface for Google Cloud Pub/Sub.
type PubSubProvider struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubProvider creates a Pub/Sub client and verifies the topic exists.
// It authenticates using Application Default Credentials unless overridden by
// opts (tests pass a connection to a fake server).
func NewPubSubProvider(ctx context.Context, projectID, topicID string, opts ...option.ClientOption) (*PubSubProvider, error) {
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !exists {
		_ = client.Close()
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicID, projectID)
	}

	return &PubSubProvider{client: client, topic: topic}, nil
}

// Publish sends the profile ID to the topic. The client batches and retries
// in the background; the publish is awaited so ingest failures surface.
func (p *PubSubProvider) Publish(ctx context.Context, profileID, source string) error {
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       []byte(profileID),
		Attributes: map[string]string{"source": source},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish ingest event: %w", err)
	}
	return nil
}

// Close stops the topic's publisher and closes the underlying connection.
func (p *PubSubProvider) Close() error {
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
