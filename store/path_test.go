package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinAndSplit(t *testing.T) {
	p := Join("posts", "p1", "comments")
	assert.Equal(t, "posts/p1/comments", p)
	assert.Equal(t, []string{"posts", "p1", "comments"}, Split(p))
}

func TestIsDocPath(t *testing.T) {
	assert.False(t, IsDocPath("posts"))
	assert.True(t, IsDocPath("posts/p1"))
	assert.False(t, IsDocPath("posts/p1/comments"))
	assert.True(t, IsDocPath("posts/p1/comments/c1"))
}

func TestParentAndDocID(t *testing.T) {
	assert.Equal(t, "posts", Parent("posts/p1"))
	assert.Equal(t, "p1", DocID("posts/p1"))
	assert.Equal(t, "posts/p1/comments", Parent("posts/p1/comments/c1"))
	assert.Equal(t, "c1", DocID("posts/p1/comments/c1"))
}

func TestCursorAfter(t *testing.T) {
	q := Query{OrderBy: []Order{{Field: "createdAt", Desc: true}}}
	cur := q.CursorAfter(Document{ID: "d1", Data: map[string]any{"createdAt": int64(42)}})
	assert.Equal(t, "d1", cur.ID)
	assert.Equal(t, []any{int64(42)}, cur.Values)
}
