// Package feed drives the paginated board list: cursor-based load-more plus
// a capped live subscription that keeps only the first page fresh.
package feed

import (
	"context"
	"sync"

	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/store"
)

// PageSize is the fixed page length of the board.
const PageSize = 10

// FilterKind selects which mutually exclusive view of the board is loaded.
type FilterKind int

const (
	// FilterAll shows public posts from every brand.
	FilterAll FilterKind = iota
	// FilterBrand shows posts authored under one brand, including its
	// brand-only posts.
	FilterBrand
	// FilterMine shows the session user's own posts.
	FilterMine
)

// Filter is one board view. Filters are views, not composable facets;
// switching discards all loaded state.
type Filter struct {
	Kind   FilterKind
	Brand  string
	UserID string
}

// ChangeFunc receives the current item list after any change.
type ChangeFunc func(items []models.Post)

// Controller holds one session's board state. Items beyond the first page
// are not live; stale counters there are accepted until a reload.
type Controller struct {
	st       store.Store
	pageSize int
	onChange ChangeFunc

	mu      sync.Mutex
	filter  Filter
	items   []models.Post
	cursor  *store.Cursor
	hasMore bool
	loading bool
	headSub store.Subscription
	lastErr error
	closed  bool
}

// NewController builds a controller with the standard page size.
func NewController(st store.Store, onChange ChangeFunc) *Controller {
	return &Controller{st: st, pageSize: PageSize, onChange: onChange, hasMore: true}
}

// Items returns a copy of the currently loaded posts.
func (c *Controller) Items() []models.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Post, len(c.items))
	copy(out, c.items)
	return out
}

// HasMore reports whether another page may exist.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Err returns the last load failure, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// LoadFirstPage resets the controller to the given filter and loads page one,
// then keeps the page head live through a single-item subscription.
func (c *Controller) LoadFirstPage(ctx context.Context, filter Filter) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	oldSub := c.headSub
	c.headSub = nil
	c.filter = filter
	c.items = nil
	c.cursor = nil
	c.hasMore = false
	c.lastErr = nil
	c.mu.Unlock()

	if oldSub != nil {
		oldSub.Unsubscribe()
	}

	q := baseQuery(filter, c.pageSize)
	docs, err := c.st.GetOnce(ctx, "posts", q)

	c.mu.Lock()
	c.loading = false
	if c.closed || c.filter != filter {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		// An unusable index leaves an empty, terminal page rather than a
		// crash; the error carries the exact index an operator must create.
		c.lastErr = err
		c.items = nil
		c.hasMore = false
		c.mu.Unlock()
		c.notify()
		return err
	}
	c.items = toPosts(docs)
	c.hasMore = len(docs) == c.pageSize
	if len(docs) > 0 {
		c.cursor = q.CursorAfter(docs[len(docs)-1])
	}
	c.mu.Unlock()

	c.notify()
	return c.subscribeHead(ctx, filter)
}

// LoadMore appends the next page. No-op while a load is in flight or when
// the feed is exhausted.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || !c.hasMore || c.closed {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	filter := c.filter
	q := baseQuery(filter, c.pageSize)
	q.After = c.cursor
	c.mu.Unlock()

	docs, err := c.st.GetOnce(ctx, "posts", q)

	c.mu.Lock()
	c.loading = false
	if c.closed || c.filter != filter {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.lastErr = err
		if store.IsIndexMissing(err) {
			c.items = nil
			c.hasMore = false
		}
		c.mu.Unlock()
		c.notify()
		return err
	}

	seen := make(map[string]bool, len(c.items))
	for _, p := range c.items {
		seen[p.ID] = true
	}
	for _, d := range docs {
		// A post that slid down while new items arrived up top would
		// otherwise appear twice.
		if !seen[d.ID] {
			c.items = append(c.items, models.PostFromDoc(d))
		}
	}
	c.hasMore = len(docs) == c.pageSize
	if len(docs) > 0 {
		c.cursor = q.CursorAfter(docs[len(docs)-1])
	}
	c.mu.Unlock()

	c.notify()
	return nil
}

// SetFilter switches the board view, discarding everything loaded under the
// previous filter.
func (c *Controller) SetFilter(ctx context.Context, filter Filter) error {
	return c.LoadFirstPage(ctx, filter)
}

// Close cancels the live subscription. The controller delivers no further
// callbacks.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	sub := c.headSub
	c.headSub = nil
	c.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// subscribeHead watches just the newest item of the active filter. A fresh
// head is prepended only while the first page has room, so pagination and
// the live view never fight over the list.
func (c *Controller) subscribeHead(ctx context.Context, filter Filter) error {
	q := baseQuery(filter, 1)
	sub, err := c.st.Subscribe(ctx, "posts", q, func(docs []store.Document) {
		c.onHead(filter, docs)
	}, func(err error) {
		c.mu.Lock()
		if !c.closed {
			c.lastErr = err
		}
		c.mu.Unlock()
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed || c.filter != filter {
		c.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	c.headSub = sub
	c.mu.Unlock()
	return nil
}

func (c *Controller) onHead(filter Filter, docs []store.Document) {
	if len(docs) == 0 {
		return
	}
	head := docs[0]

	c.mu.Lock()
	if c.closed || c.filter != filter || len(c.items) >= c.pageSize {
		c.mu.Unlock()
		return
	}
	for i, p := range c.items {
		if p.ID == head.ID {
			// Known post: refresh its counters in place.
			c.items[i] = models.PostFromDoc(head)
			c.mu.Unlock()
			c.notify()
			return
		}
	}
	c.items = append([]models.Post{models.PostFromDoc(head)}, c.items...)
	if c.cursor == nil {
		q := baseQuery(filter, 1)
		c.cursor = q.CursorAfter(head)
	}
	c.mu.Unlock()

	c.notify()
}

func (c *Controller) notify() {
	c.mu.Lock()
	if c.closed || c.onChange == nil {
		c.mu.Unlock()
		return
	}
	items := make([]models.Post, len(c.items))
	copy(items, c.items)
	c.mu.Unlock()

	c.onChange(items)
}

// baseQuery builds the filtered, createdAt-descending board query. The
// all-posts view hides brand-only posts at display time; the store's access
// rules remain the real enforcement point.
func baseQuery(f Filter, limit int) store.Query {
	q := store.Query{
		OrderBy: []store.Order{{Field: "createdAt", Desc: true}},
		Limit:   limit,
	}
	switch f.Kind {
	case FilterBrand:
		q.Filters = []store.Filter{{Field: "authorBrand", Op: "==", Value: f.Brand}}
	case FilterMine:
		q.Filters = []store.Filter{{Field: "authorId", Op: "==", Value: f.UserID}}
	default:
		q.Filters = []store.Filter{{Field: "visibility", Op: "==", Value: models.VisibilityPublic}}
	}
	return q
}

func toPosts(docs []store.Document) []models.Post {
	out := make([]models.Post, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.PostFromDoc(d))
	}
	return out
}
