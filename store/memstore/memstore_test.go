package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorock-rock/proto-bizblah/store"
)

func TestCreateAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.Create(ctx, "posts", map[string]any{"title": "hello", "createdAt": int64(1)})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := s.Get(ctx, store.Join("posts", id))
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.String("title"))
	assert.Equal(t, int64(1), doc.Int64("createdAt"))
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s := New()

	_, err := s.Get(context.Background(), "posts/nope")
	assert.True(t, store.IsNotFound(err))
}

func TestSetMergePreservesOtherFields(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "users/u1", map[string]any{"nickname": "amber", "brand": "acme"}, false))
	require.NoError(t, s.Set(ctx, "users/u1", map[string]any{"brand": "zenith"}, true))

	doc, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, "amber", doc.String("nickname"))
	assert.Equal(t, "zenith", doc.String("brand"))
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	s := New()

	err := s.Update(context.Background(), "posts/nope", map[string]any{"title": "x"})
	assert.True(t, store.IsNotFound(err))
}

func TestAtomicIncrement(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.Create(ctx, "posts", map[string]any{"likes": int64(0)})
	require.NoError(t, err)

	path := store.Join("posts", id)
	require.NoError(t, s.AtomicIncrement(ctx, path, "likes", 1))
	require.NoError(t, s.AtomicIncrement(ctx, path, "likes", 1))
	require.NoError(t, s.AtomicIncrement(ctx, path, "likes", -1))

	doc, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Int64("likes"))

	// Incrementing a field that never existed starts from zero.
	require.NoError(t, s.AtomicIncrement(ctx, path, "views", 1))
	doc, err = s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Int64("views"))
}

func TestQueryFilterOrderLimit(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		vis := "public"
		if i%2 == 0 {
			vis = "brand-only"
		}
		_, err := s.Create(ctx, "posts", map[string]any{
			"visibility": vis,
			"createdAt":  int64(i),
		})
		require.NoError(t, err)
	}

	docs, err := s.GetOnce(ctx, "posts", store.Query{
		Filters: []store.Filter{{Field: "visibility", Op: "==", Value: "public"}},
		OrderBy: []store.Order{{Field: "createdAt", Desc: true}},
		Limit:   2,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, int64(5), docs[0].Int64("createdAt"))
	assert.Equal(t, int64(3), docs[1].Int64("createdAt"))
}

func TestCursorPaginationCoversAllDocs(t *testing.T) {
	s := New()
	ctx := context.Background()

	const total = 7
	for i := 0; i < total; i++ {
		_, err := s.Create(ctx, "posts", map[string]any{"createdAt": int64(100 - i)})
		require.NoError(t, err)
	}

	q := store.Query{
		OrderBy: []store.Order{{Field: "createdAt", Desc: true}},
		Limit:   3,
	}

	seen := make(map[string]bool)
	for {
		docs, err := s.GetOnce(ctx, "posts", q)
		require.NoError(t, err)
		if len(docs) == 0 {
			break
		}
		for _, d := range docs {
			assert.False(t, seen[d.ID], "doc %s paged twice", d.ID)
			seen[d.ID] = true
		}
		if len(docs) < q.Limit {
			break
		}
		q.After = q.CursorAfter(docs[len(docs)-1])
	}
	assert.Len(t, seen, total)
}

func TestCursorBreaksCreatedAtTies(t *testing.T) {
	s := New()
	ctx := context.Background()

	// All docs share one timestamp; the id tie-break must still partition
	// them cleanly across pages.
	for i := 0; i < 5; i++ {
		_, err := s.Create(ctx, "posts", map[string]any{"createdAt": int64(42)})
		require.NoError(t, err)
	}

	q := store.Query{
		OrderBy: []store.Order{{Field: "createdAt", Desc: true}},
		Limit:   2,
	}

	var ids []string
	for {
		docs, err := s.GetOnce(ctx, "posts", q)
		require.NoError(t, err)
		if len(docs) == 0 {
			break
		}
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
		q.After = q.CursorAfter(docs[len(docs)-1])
	}

	require.Len(t, ids, 5)
	unique := make(map[string]bool)
	for _, id := range ids {
		unique[id] = true
	}
	assert.Len(t, unique, 5)
}

func TestSubscribeDeliversInitialAndFollowingSnapshots(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Create(ctx, "posts", map[string]any{"createdAt": int64(1)})
	require.NoError(t, err)

	var snapshots [][]store.Document
	sub, err := s.Subscribe(ctx, "posts", store.Query{
		OrderBy: []store.Order{{Field: "createdAt"}},
	}, func(docs []store.Document) {
		snapshots = append(snapshots, docs)
	}, nil)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.Len(t, snapshots, 1)
	assert.Len(t, snapshots[0], 1)

	_, err = s.Create(ctx, "posts", map[string]any{"createdAt": int64(2)})
	require.NoError(t, err)

	require.Len(t, snapshots, 2)
	assert.Len(t, snapshots[1], 2)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := New()
	ctx := context.Background()

	calls := 0
	sub, err := s.Subscribe(ctx, "posts", store.Query{}, func([]store.Document) {
		calls++
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	sub.Unsubscribe()

	_, err = s.Create(ctx, "posts", map[string]any{"createdAt": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.Create(ctx, "posts", map[string]any{"title": "bye"})
	require.NoError(t, err)

	path := store.Join("posts", id)
	require.NoError(t, s.Delete(ctx, path))
	require.NoError(t, s.Delete(ctx, path))
	assert.Equal(t, 0, s.Len("posts"))
}

func TestNestedCollectionsAreIndependent(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Create(ctx, "posts/p1/comments", map[string]any{"content": "a"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "posts/p2/comments", map[string]any{"content": "b"})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Len("posts/p1/comments"))
	assert.Equal(t, 1, s.Len("posts/p2/comments"))
	assert.Equal(t, 0, s.Len("posts"))
}
