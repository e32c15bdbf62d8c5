package server

import (
	"testing"
	"time"

	"mt5-gateway/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestPushAfterUnregisterDoesNotPanic(t *testing.T) {
	hub := NewHub(logger.NewLogger(nil, "test"))
	go hub.Run()

	client := NewClient(hub, nil, "stale-client")
	hub.register <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	// A broadcaster cycle snapshots the hub here, then the client disconnects.
	hub.unregister <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		time.Second, 5*time.Millisecond)

	// The stale-snapshot delivery must be swallowed, not crash the process.
	assert.NotPanics(t, func() {
		assert.False(t, client.Push("payload"))
	})
}

func TestRetireIsIdempotent(t *testing.T) {
	client := NewClient(nil, nil, "test-client")

	assert.NotPanics(t, func() {
		client.retire()
		client.retire()
	})
	assert.False(t, client.Push("payload"))
}
