package feed

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sub := NewSubscriber(logger, rdb, func(_ context.Context, entity string) {
		received <- entity
	})
	go func() { _ = sub.Run(ctx) }()

	pub := NewPublisher(rdb)

	// Republish until the subscription is registered and the event lands.
	var entity string
	require.Eventually(t, func() bool {
		require.NoError(t, pub.Publish(ctx, "products"))
		select {
		case entity = <-received:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "products", entity)
}

func TestSubscriberStopsOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sub := NewSubscriber(logger, rdb, func(context.Context, string) {})

	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}
