// Package session carries per-session state explicitly instead of through
// ambient browser-style storage. Controllers receive a *Context at
// construction; persistence is an injected KV interface.
package session

import "sync"

// Store persists session-scoped keys. Implementations may be in-memory,
// cookie-backed or anything else; the forum core only needs get/set.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// MemoryStore is the default Store, scoped to one session object.
type MemoryStore struct {
	mu sync.RWMutex
	kv map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{kv: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) {
	m.mu.Lock()
	m.kv[key] = value
	m.mu.Unlock()
}

const (
	brandKey  = "selectedBrand"
	viewedKey = "viewed_"
)

// Context is one user session: the authenticated identity, the resolved
// nickname and brand, and the session-scoped markers (viewed posts, brand
// selection) that outlive a single request but not the session.
type Context struct {
	UserID   string
	Nickname string

	store Store
}

// New builds a session context over the given store.
func New(userID, nickname string, store Store) *Context {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Context{UserID: userID, Nickname: nickname, store: store}
}

// Brand returns the session's selected brand label, if any.
func (c *Context) Brand() string {
	v, _ := c.store.Get(brandKey)
	return v
}

// SelectBrand records the session's brand choice.
func (c *Context) SelectBrand(label string) {
	c.store.Set(brandKey, label)
}

// HasViewed reports whether this session already counted a view for the post.
func (c *Context) HasViewed(postID string) bool {
	_, ok := c.store.Get(viewedKey + postID)
	return ok
}

// MarkViewed records that this session counted a view for the post. The
// gate is best-effort analytics, not abuse protection: a fresh session
// counts again.
func (c *Context) MarkViewed(postID string) {
	c.store.Set(viewedKey+postID, "1")
}
