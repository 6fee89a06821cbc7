package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chorock-rock/proto-bizblah/thread"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS layer in front of the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one WebSocket connection. Besides the shared feed it may watch
// a single open post's thread at a time.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte

	mu    sync.Mutex
	watch *thread.Assembler
}

// clientMessage is the inbound command envelope.
type clientMessage struct {
	Type   string `json:"type"`
	PostID string `json:"postId,omitempty"`
}

// Handler upgrades the request and runs the connection pumps.
func Handler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("realtime: upgrade failed: %v", err)
			return
		}

		client := &Client{
			hub:    hub,
			conn:   conn,
			userID: r.URL.Query().Get("userId"),
			send:   make(chan []byte, 32),
		}
		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "watch_post":
			c.watchPost(msg.PostID)
		case "unwatch_post":
			c.closeWatch()
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// watchPost replaces the client's thread watch with the given post.
func (c *Client) watchPost(postID string) {
	if postID == "" {
		return
	}
	c.closeWatch()

	asm := thread.NewAssembler(c.hub.st, postID,
		func(tree []thread.CommentNode) {
			msg, err := envelope("thread", map[string]any{"postId": postID, "tree": tree})
			if err != nil {
				return
			}
			select {
			case c.send <- msg:
			default:
			}
		},
		func(err error) {
			log.Printf("realtime: thread watch %s: %v", postID, err)
		})
	if err := asm.Start(context.Background()); err != nil {
		log.Printf("realtime: thread watch %s failed to start: %v", postID, err)
		return
	}

	c.mu.Lock()
	c.watch = asm
	c.mu.Unlock()
}

func (c *Client) closeWatch() {
	c.mu.Lock()
	asm := c.watch
	c.watch = nil
	c.mu.Unlock()
	if asm != nil {
		asm.Close()
	}
}
