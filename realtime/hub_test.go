package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorock-rock/proto-bizblah/store/memstore"
)

func recvMsg(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hub message")
		return nil
	}
}

func TestRegisteredClientGetsFeedSnapshot(t *testing.T) {
	h := NewHub(memstore.New())
	go h.Start()

	client := &Client{hub: h, send: make(chan []byte, 8)}
	h.register <- client

	msg := recvMsg(t, client.send)
	assert.Contains(t, string(msg), `"type":"feed"`)

	h.unregister <- client
	for range client.send {
	}
}

func TestBroadcastDropsSlowConsumers(t *testing.T) {
	h := NewHub(memstore.New())
	go h.Start()

	fast := &Client{hub: h, send: make(chan []byte, 8)}
	// Unbuffered and never read: any delivery attempt must not block the hub.
	slow := &Client{hub: h, send: make(chan []byte)}

	h.register <- fast
	h.register <- slow
	recvMsg(t, fast.send) // registration snapshot

	h.broadcastJSON("feed", map[string]any{"n": 1})

	msg := recvMsg(t, fast.send)
	assert.Contains(t, string(msg), `"type":"feed"`)

	// The slow client was removed and its channel closed.
	select {
	case _, ok := <-slow.send:
		require.False(t, ok, "slow client channel should be closed, not delivered to")
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was never dropped")
	}

	// The hub keeps serving the remaining client.
	h.broadcastJSON("feed", map[string]any{"n": 2})
	recvMsg(t, fast.send)

	h.unregister <- fast
}
