// Package realtime pushes live board state over WebSocket: every connected
// client receives first-page feed snapshots, and clients watching an open
// post receive its comment tree as it changes.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/chorock-rock/proto-bizblah/counter"
	"github.com/chorock-rock/proto-bizblah/feed"
	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/store"
)

// Hub owns the client set and the shared live feed.
type Hub struct {
	st store.Store

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	feedCtl *feed.Controller
}

// NewHub builds a hub over the store.
func NewHub(st store.Store) *Hub {
	return &Hub{
		st:         st,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Start runs the hub loop and the shared all-posts feed. Blocks; run in a
// goroutine.
func (h *Hub) Start() {
	h.startFeed()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("realtime: client registered, total %d", n)
			h.sendFeedSnapshot(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			client.closeWatch()
			log.Printf("realtime: client unregistered, total %d", n)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop it rather than stall the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// startFeed opens the shared first-page feed whose changes fan out to every
// client.
func (h *Hub) startFeed() {
	h.feedCtl = feed.NewController(h.st, func(items []models.Post) {
		h.broadcastJSON("feed", counter.ClampPosts(items))
	})
	if err := h.feedCtl.LoadFirstPage(context.Background(), feed.Filter{Kind: feed.FilterAll}); err != nil {
		log.Printf("realtime: feed load failed: %v", err)
	}
}

func (h *Hub) sendFeedSnapshot(c *Client) {
	msg, err := envelope("feed", counter.ClampPosts(h.feedCtl.Items()))
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Hub) broadcastJSON(kind string, payload any) {
	msg, err := envelope(kind, payload)
	if err != nil {
		log.Printf("realtime: marshal %s: %v", kind, err)
		return
	}
	h.broadcast <- msg
}

func envelope(kind string, payload any) ([]byte, error) {
	return json.Marshal(map[string]any{"type": kind, "payload": payload})
}
