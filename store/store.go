// Package store defines the document-store contract the rest of the
// application is written against. Collections are addressed by hierarchical
// slash paths (posts/{postId}/comments/{commentId}/...), queries return
// ordered document snapshots, and subscriptions deliver the full current
// result set on every underlying change.
package store

import "context"

// Document is a single stored record. Data never contains the id; the id is
// the final path segment of the document's path.
type Document struct {
	ID   string
	Data map[string]any
}

// String returns the string value of a field, or "" when absent or not a string.
func (d Document) String(field string) string {
	s, _ := d.Data[field].(string)
	return s
}

// Int64 returns the numeric value of a field as int64, tolerating the
// numeric types different store backends decode into.
func (d Document) Int64(field string) int64 {
	switch v := d.Data[field].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Bool returns the boolean value of a field, false when absent.
func (d Document) Bool(field string) bool {
	b, _ := d.Data[field].(bool)
	return b
}

// Filter is a single field predicate. Supported ops: "==", "<", "<=", ">", ">=".
type Filter struct {
	Field string
	Op    string
	Value any
}

// Order is one sort key of a query.
type Order struct {
	Field string
	Desc  bool
}

// Cursor marks a position strictly after a previously returned document.
// Values align with the query's OrderBy fields; ID breaks ties between
// documents with equal sort values.
type Cursor struct {
	Values []any
	ID     string
}

// Query describes a bounded, ordered read over one collection path.
type Query struct {
	Filters []Filter
	OrderBy []Order
	Limit   int
	After   *Cursor
}

// CursorAfter builds the cursor positioned just past doc for this query's
// sort order.
func (q Query) CursorAfter(doc Document) *Cursor {
	vals := make([]any, len(q.OrderBy))
	for i, o := range q.OrderBy {
		vals[i] = doc.Data[o.Field]
	}
	return &Cursor{Values: vals, ID: doc.ID}
}

// Subscription is a live query registration. Unsubscribe must be called on
// teardown; after it returns no further callbacks are delivered.
type Subscription interface {
	Unsubscribe()
}

// SnapshotFunc receives the full authoritative result set of a subscribed
// query. Implementations re-deliver the whole set, not diffs.
type SnapshotFunc func(docs []Document)

// ErrorFunc receives asynchronous subscription failures.
type ErrorFunc func(err error)

// Store is the entity store adapter. All blocking operations take a context.
// Counters must be mutated only through AtomicIncrement, never read-modify-write.
type Store interface {
	// Get reads a single document by its document path.
	Get(ctx context.Context, docPath string) (Document, error)

	// GetOnce runs a one-shot query against a collection path.
	GetOnce(ctx context.Context, collectionPath string, q Query) ([]Document, error)

	// Subscribe registers a live query. The initial result set is delivered
	// before Subscribe returns or shortly after, then again on every change.
	// Snapshots for one subscription are delivered in order; there is no
	// ordering guarantee across subscriptions.
	Subscribe(ctx context.Context, collectionPath string, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (Subscription, error)

	// Create inserts a new document with a store-assigned id and returns the id.
	Create(ctx context.Context, collectionPath string, data map[string]any) (string, error)

	// Set writes a document at a caller-chosen path. With merge, existing
	// fields not present in data are kept.
	Set(ctx context.Context, docPath string, data map[string]any, merge bool) error

	// Update applies a partial update to an existing document.
	Update(ctx context.Context, docPath string, partial map[string]any) error

	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, docPath string) error

	// AtomicIncrement adds delta to a numeric field as a store-level atomic
	// operation. Concurrent increments from independent clients must not
	// lose updates.
	AtomicIncrement(ctx context.Context, docPath string, field string, delta int64) error
}
