// AngelaMos | 2026
// bus_test.go

package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewBus(client)
}

func TestBusDeliversPublishedEvent(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := bus.Subscribe(ctx, "site_settings")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, bus.Publish(ctx, "site_settings", "UPDATED", map[string]string{
		"key": "hero_title",
	}))

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "site_settings", ev.Topic)
		assert.Equal(t, "UPDATED", ev.Type)

		var payload map[string]string
		require.NoError(t, ev.Decode(&payload))
		assert.Equal(t, "hero_title", payload["key"])
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}
}

func TestBusIgnoresOtherTopics(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := bus.Subscribe(ctx, "stat_boxes")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, bus.Publish(ctx, "quick_links", "UPDATED", nil))
	require.NoError(t, bus.Publish(ctx, "stat_boxes", "UPDATED", nil))

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "stat_boxes", ev.Topic)
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}
}

func TestSubscriptionCloseEndsEvents(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "auth:u1")
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestStreamWritesEventFrames(t *testing.T) {
	rec := httptest.NewRecorder()

	stream, err := NewStream(rec)
	require.NoError(t, err)
	require.NoError(t, stream.Send("state", map[string]bool{"loading": false}))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "event: state\n"))
	assert.True(t, strings.Contains(body, `data: {"loading":false}`))
}
