package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{}

// S5: server sends NewSubscription{id=u} then SubscriptionEnded{id=u}; the
// active set transitions {} -> {u: E} -> {} and no data-plane message
// reaches the consumer queue.
func TestRealtimeClientSubscriptionLifecycle(t *testing.T) {
	serverDone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		// Drain the client's initial Subscribe command.
		_, _, err = conn.ReadMessage()
		require.NoError(t, err)

		newSub, _ := json.Marshal(map[string]interface{}{
			"NewSubscription": map[string]interface{}{
				"extractor_id":    map[string]string{"chain": "ethereum", "extractor": "vm"},
				"subscription_id": "sub-1",
			},
		})
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, newSub))

		time.Sleep(20 * time.Millisecond)

		ended, _ := json.Marshal(map[string]interface{}{
			"SubscriptionEnded": map[string]interface{}{"subscription_id": "sub-1"},
		})
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, ended))

		close(serverDone)
		<-r.Context().Done()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewRealtimeClient(Config{
		URL:              wsURL,
		DefaultExtractor: ExtractorIdentity{Chain: "ethereum", Extractor: "vm"},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	require.Eventually(t, func() bool {
		active := c.ActiveSubscriptions()
		return len(active) == 1
	}, time.Second, 5*time.Millisecond)

	active := c.ActiveSubscriptions()
	id, ok := active["sub-1"]
	require.True(t, ok)
	assert.Equal(t, "ethereum", id.Chain)

	require.Eventually(t, func() bool {
		return len(c.ActiveSubscriptions()) == 0
	}, time.Second, 5*time.Millisecond)

	select {
	case _, open := <-c.RealtimeMessages():
		if open {
			t.Fatal("expected no data-plane message to reach the consumer queue")
		}
	case <-time.After(50 * time.Millisecond):
	}
}

// spec.md §7: a SubscriptionEnded for a subscription_id the client never
// recorded is a protocol violation, fatal to the session — the client must
// tear the session down rather than log and continue.
func TestRealtimeClientUnknownSubscriptionEndedIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		// Drain the client's initial Subscribe command.
		_, _, err = conn.ReadMessage()
		require.NoError(t, err)

		ended, _ := json.Marshal(map[string]interface{}{
			"SubscriptionEnded": map[string]interface{}{"subscription_id": "unknown-sub"},
		})
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, ended))

		<-r.Context().Done()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewRealtimeClient(Config{
		URL:              wsURL,
		DefaultExtractor: ExtractorIdentity{Chain: "ethereum", Extractor: "vm"},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	require.Eventually(t, func() bool {
		return c.State() == StateClosed
	}, time.Second, 5*time.Millisecond)

	_, open := <-c.RealtimeMessages()
	assert.False(t, open, "expected the consumer queue to be closed after a fatal protocol violation")
}
