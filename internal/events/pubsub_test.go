// Package events_test contains tests for the Pub/Sub event provider.
package events_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/influenceops/creatorscout/internal/events"
)

func TestPubSubProviderPublishAndClose(t *testing.T) {
	ctx := context.Background()

	srv := pstest.NewServer()
	defer srv.Close() //nolint:errcheck // fake server shutdown

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck // test cleanup

	// Bootstrap topic and subscription on the fake server.
	admin, err := pubsub.NewClient(ctx, "project-id", option.WithGRPCConn(conn))
	require.NoError(t, err)
	topic, err := admin.CreateTopic(ctx, "ingest-events")
	require.NoError(t, err)
	sub, err := admin.CreateSubscription(ctx, "ingest-sub", pubsub.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)

	provider, err := events.NewPubSubProvider(ctx, "project-id", "ingest-events", option.WithGRPCConn(conn))
	require.NoError(t, err)

	require.NoError(t, provider.Publish(ctx, "UC123", "youtube"))

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var got *pubsub.Message
	err = sub.Receive(recvCtx, func(_ context.Context, msg *pubsub.Message) {
		got = msg
		msg.Ack()
		cancel()
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "UC123", string(got.Data))
	require.Equal(t, "youtube", got.Attributes["source"])

	require.NoError(t, provider.Close())
	require.NoError(t, admin.Close())
}

func TestPubSubProviderMissingTopic(t *testing.T) {
	ctx := context.Background()

	srv := pstest.NewServer()
	defer srv.Close() //nolint:errcheck // fake server shutdown

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck // test cleanup

	_, err = events.NewPubSubProvider(ctx, "project-id", "absent-topic", option.WithGRPCConn(conn))
	require.Error(t, err)
}

func TestNoOpProvider(t *testing.T) {
	t.Parallel()

	var p events.NoOpProvider
	require.NoError(t, p.Publish(context.Background(), "UC123", "youtube"))
	require.NoError(t, p.Close())
}
