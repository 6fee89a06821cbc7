// Package memstore is an in-memory store.Store used by tests and local runs.
// Subscriptions are fanned out synchronously: every mutation of a collection
// re-runs each registered query and delivers the full result set.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/chorock-rock/proto-bizblah/store"
)

type subscription struct {
	mu     sync.Mutex
	s      *Store
	path   string
	query  store.Query
	onSnap store.SnapshotFunc
	closed bool
}

func (sub *subscription) Unsubscribe() {
	sub.mu.Lock()
	sub.closed = true
	sub.mu.Unlock()
	sub.s.removeSub(sub)
}

func (sub *subscription) deliver() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	docs, err := sub.s.GetOnce(context.Background(), sub.path, sub.query)
	if err != nil {
		return
	}
	sub.onSnap(docs)
}

// Store implements store.Store backed by nested maps.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	subs        map[string][]*subscription
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]map[string]any),
		subs:        make(map[string][]*subscription),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Get(ctx context.Context, docPath string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[store.Parent(docPath)]
	id := store.DocID(docPath)
	data, ok := coll[id]
	if !ok {
		return store.Document{}, store.NewError(store.NotFound, docPath)
	}
	return store.Document{ID: id, Data: cloneData(data)}, nil
}

func (s *Store) GetOnce(ctx context.Context, collectionPath string, q store.Query) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runQuery(collectionPath, q), nil
}

func (s *Store) Subscribe(ctx context.Context, collectionPath string, q store.Query, onSnapshot store.SnapshotFunc, onError store.ErrorFunc) (store.Subscription, error) {
	sub := &subscription{s: s, path: collectionPath, query: q, onSnap: onSnapshot}

	s.mu.Lock()
	s.subs[collectionPath] = append(s.subs[collectionPath], sub)
	s.mu.Unlock()

	// Initial authoritative snapshot.
	sub.deliver()
	return sub, nil
}

func (s *Store) Create(ctx context.Context, collectionPath string, data map[string]any) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	coll := s.collections[collectionPath]
	if coll == nil {
		coll = make(map[string]map[string]any)
		s.collections[collectionPath] = coll
	}
	coll[id] = cloneData(data)
	s.mu.Unlock()

	s.notify(collectionPath)
	return id, nil
}

func (s *Store) Set(ctx context.Context, docPath string, data map[string]any, merge bool) error {
	parent := store.Parent(docPath)
	id := store.DocID(docPath)

	s.mu.Lock()
	coll := s.collections[parent]
	if coll == nil {
		coll = make(map[string]map[string]any)
		s.collections[parent] = coll
	}
	if merge {
		existing := coll[id]
		if existing == nil {
			existing = make(map[string]any)
			coll[id] = existing
		}
		for k, v := range data {
			existing[k] = v
		}
	} else {
		coll[id] = cloneData(data)
	}
	s.mu.Unlock()

	s.notify(parent)
	return nil
}

func (s *Store) Update(ctx context.Context, docPath string, partial map[string]any) error {
	parent := store.Parent(docPath)
	id := store.DocID(docPath)

	s.mu.Lock()
	data, ok := s.collections[parent][id]
	if !ok {
		s.mu.Unlock()
		return store.NewError(store.NotFound, docPath)
	}
	for k, v := range partial {
		data[k] = v
	}
	s.mu.Unlock()

	s.notify(parent)
	return nil
}

func (s *Store) Delete(ctx context.Context, docPath string) error {
	parent := store.Parent(docPath)
	id := store.DocID(docPath)

	s.mu.Lock()
	coll := s.collections[parent]
	_, existed := coll[id]
	delete(coll, id)
	s.mu.Unlock()

	if existed {
		s.notify(parent)
	}
	return nil
}

func (s *Store) AtomicIncrement(ctx context.Context, docPath string, field string, delta int64) error {
	parent := store.Parent(docPath)
	id := store.DocID(docPath)

	s.mu.Lock()
	data, ok := s.collections[parent][id]
	if !ok {
		s.mu.Unlock()
		return store.NewError(store.NotFound, docPath)
	}
	data[field] = asInt64(data[field]) + delta
	s.mu.Unlock()

	s.notify(parent)
	return nil
}

// Len reports the number of documents in a collection. Test helper.
func (s *Store) Len(collectionPath string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collectionPath])
}

func (s *Store) removeSub(sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.subs[sub.path]
	for i, candidate := range list {
		if candidate == sub {
			s.subs[sub.path] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (s *Store) notify(collectionPath string) {
	s.mu.RLock()
	list := make([]*subscription, len(s.subs[collectionPath]))
	copy(list, s.subs[collectionPath])
	s.mu.RUnlock()

	for _, sub := range list {
		sub.deliver()
	}
}

// runQuery evaluates filters, sort, cursor and limit. Caller holds the lock.
func (s *Store) runQuery(collectionPath string, q store.Query) []store.Document {
	var out []store.Document
	for id, data := range s.collections[collectionPath] {
		if matches(data, q.Filters) {
			out = append(out, store.Document{ID: id, Data: cloneData(data)})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return docLess(out[i], out[j], q.OrderBy)
	})

	if q.After != nil {
		idx := 0
		for idx < len(out) && !afterCursor(out[idx], q) {
			idx++
		}
		out = out[idx:]
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func matches(data map[string]any, filters []store.Filter) bool {
	for _, f := range filters {
		c := compare(data[f.Field], f.Value)
		switch f.Op {
		case "==":
			if c != 0 {
				return false
			}
		case "<":
			if c >= 0 {
				return false
			}
		case "<=":
			if c > 0 {
				return false
			}
		case ">":
			if c <= 0 {
				return false
			}
		case ">=":
			if c < 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func docLess(a, b store.Document, order []store.Order) bool {
	for _, o := range order {
		c := compare(a.Data[o.Field], b.Data[o.Field])
		if c == 0 {
			continue
		}
		if o.Desc {
			return c > 0
		}
		return c < 0
	}
	// Stable final key so pagination cursors are unambiguous.
	return a.ID < b.ID
}

// afterCursor reports whether doc sorts strictly past the query's cursor.
func afterCursor(doc store.Document, q store.Query) bool {
	cur := q.After
	for i, o := range q.OrderBy {
		if i >= len(cur.Values) {
			break
		}
		c := compare(doc.Data[o.Field], cur.Values[i])
		if c == 0 {
			continue
		}
		if o.Desc {
			return c < 0
		}
		return c > 0
	}
	return doc.ID > cur.ID
}

func compare(a, b any) int {
	an, aNum := toFloat(a)
	bn, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}

	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return strings.Compare(av, bv)
	case bool:
		bv, _ := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	if b == nil {
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
