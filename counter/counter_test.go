package counter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/session"
	"github.com/chorock-rock/proto-bizblah/store"
	"github.com/chorock-rock/proto-bizblah/store/memstore"
)

func newPost(t *testing.T, s *memstore.Store) string {
	t.Helper()
	id, err := s.Create(context.Background(), "posts", map[string]any{
		"title":     "t",
		"likes":     int64(0),
		"views":     int64(0),
		"createdAt": int64(1),
	})
	require.NoError(t, err)
	return id
}

func likes(t *testing.T, s *memstore.Store, postID string) int64 {
	t.Helper()
	doc, err := s.Get(context.Background(), store.Join("posts", postID))
	require.NoError(t, err)
	return doc.Int64("likes")
}

func TestToggleLikeFlipsStateAndCounter(t *testing.T) {
	s := memstore.New()
	r := New(s)
	ctx := context.Background()

	postID := newPost(t, s)
	path := store.Join("posts", postID)

	liked, err := r.ToggleLike(ctx, path, "u1")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), likes(t, s, postID))

	liked, err = r.ToggleLike(ctx, path, "u1")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), likes(t, s, postID))

	// Re-like after soft delete reuses the same document identity.
	liked, err = r.ToggleLike(ctx, path, "u1")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), likes(t, s, postID))
	assert.Equal(t, 1, s.Len(store.Join(path, "likes")))
}

func TestToggleLikeIndependentUsers(t *testing.T) {
	s := memstore.New()
	r := New(s)
	ctx := context.Background()

	postID := newPost(t, s)
	path := store.Join("posts", postID)

	_, err := r.ToggleLike(ctx, path, "u1")
	require.NoError(t, err)
	_, err = r.ToggleLike(ctx, path, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), likes(t, s, postID))

	_, err = r.ToggleLike(ctx, path, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), likes(t, s, postID))

	got, err := r.Liked(ctx, path, "u2")
	require.NoError(t, err)
	assert.True(t, got)
	got, err = r.Liked(ctx, path, "u1")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestToggleLikeOnVanishedSubject(t *testing.T) {
	s := memstore.New()
	r := New(s)
	ctx := context.Background()

	// The subject never existed; the like document is written and the
	// counter bump is a silent no-op.
	liked, err := r.ToggleLike(ctx, "posts/gone", "u1")
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestLikedUnknownUser(t *testing.T) {
	s := memstore.New()
	r := New(s)

	postID := newPost(t, s)
	got, err := r.Liked(context.Background(), store.Join("posts", postID), "stranger")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestIncrementViewOncePerSession(t *testing.T) {
	s := memstore.New()
	r := New(s)
	ctx := context.Background()

	postID := newPost(t, s)
	sess := session.New("u1", "amber", nil)

	r.IncrementView(ctx, sess, postID)
	r.IncrementView(ctx, sess, postID)
	r.IncrementView(ctx, sess, postID)

	doc, err := s.Get(ctx, store.Join("posts", postID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Int64("views"))

	// A fresh session counts again.
	other := session.New("u2", "briar", nil)
	r.IncrementView(ctx, other, postID)
	doc, err = s.Get(ctx, store.Join("posts", postID))
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Int64("views"))
}

func TestIncrementViewVanishedPost(t *testing.T) {
	s := memstore.New()
	r := New(s)
	sess := session.New("u1", "amber", nil)

	// Must not panic or mark the session on failure paths other than
	// NotFound, and NotFound still marks it to avoid retry storms.
	r.IncrementView(context.Background(), sess, "gone")
	assert.True(t, sess.HasViewed("gone"))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, int64(0), Clamp(-3))
	assert.Equal(t, int64(0), Clamp(0))
	assert.Equal(t, int64(7), Clamp(7))
}

func TestClampPost(t *testing.T) {
	p := models.Post{Likes: -1, Views: 3, CommentsCount: -2}
	got := ClampPost(p)
	assert.Equal(t, int64(0), got.Likes)
	assert.Equal(t, int64(3), got.Views)
	assert.Equal(t, int64(0), got.CommentsCount)

	items := ClampPosts([]models.Post{{Likes: -5}, {Likes: 2}})
	assert.Equal(t, int64(0), items[0].Likes)
	assert.Equal(t, int64(2), items[1].Likes)
}
