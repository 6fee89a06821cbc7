package thread

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/store"
	"github.com/chorock-rock/proto-bizblah/store/memstore"
)

func addComment(t *testing.T, s *memstore.Store, postID, content, authorName string, createdAt int64) string {
	t.Helper()
	id, err := s.Create(context.Background(), store.Join("posts", postID, "comments"), models.Comment{
		Content:    content,
		AuthorID:   "u-" + authorName,
		AuthorName: authorName,
		CreatedAt:  createdAt,
	}.Doc())
	require.NoError(t, err)
	return id
}

func addReply(t *testing.T, s *memstore.Store, postID, commentID string, r models.Reply) string {
	t.Helper()
	id, err := s.Create(context.Background(), store.Join("posts", postID, "comments", commentID, "replies"), r.Doc())
	require.NoError(t, err)
	return id
}

func TestAssemblerInitialTree(t *testing.T) {
	s := memstore.New()
	c1 := addComment(t, s, "p1", "first", "amber", 1)
	c2 := addComment(t, s, "p1", "second", "briar", 2)
	addReply(t, s, "p1", c1, models.Reply{Content: "re", AuthorName: "casey", CreatedAt: 3})

	a := NewAssembler(s, "p1", nil, nil)
	require.NoError(t, a.Start(context.Background()))
	defer a.Close()

	tree := a.Tree()
	require.Len(t, tree, 2)
	assert.Equal(t, c1, tree[0].Comment.ID)
	assert.Equal(t, c2, tree[1].Comment.ID)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, "re", tree[0].Replies[0].Content)
	assert.Empty(t, tree[1].Replies)
}

func TestAssemblerLiveCommentAndReply(t *testing.T) {
	s := memstore.New()

	var lastTree []CommentNode
	a := NewAssembler(s, "p1", func(tree []CommentNode) { lastTree = tree }, nil)
	require.NoError(t, a.Start(context.Background()))
	defer a.Close()

	require.Empty(t, a.Tree())

	c1 := addComment(t, s, "p1", "hello", "amber", 1)
	require.Len(t, lastTree, 1)
	assert.Equal(t, "hello", lastTree[0].Comment.Content)

	addReply(t, s, "p1", c1, models.Reply{Content: "hi back", AuthorName: "briar", CreatedAt: 2})
	require.Len(t, lastTree, 1)
	require.Len(t, lastTree[0].Replies, 1)
	assert.Equal(t, "hi back", lastTree[0].Replies[0].Content)
}

func TestAssemblerCommentRemoval(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	c1 := addComment(t, s, "p1", "keep", "amber", 1)
	c2 := addComment(t, s, "p1", "drop", "briar", 2)
	addReply(t, s, "p1", c2, models.Reply{Content: "orphaned", AuthorName: "casey", CreatedAt: 3})

	a := NewAssembler(s, "p1", nil, nil)
	require.NoError(t, a.Start(ctx))
	defer a.Close()

	require.Len(t, a.Tree(), 2)

	require.NoError(t, s.Delete(ctx, store.Join("posts", "p1", "comments", c2)))

	tree := a.Tree()
	require.Len(t, tree, 1)
	assert.Equal(t, c1, tree[0].Comment.ID)
}

func TestAssemblerOrdersByCreatedAt(t *testing.T) {
	s := memstore.New()
	addComment(t, s, "p1", "late", "amber", 30)
	addComment(t, s, "p1", "early", "briar", 10)
	addComment(t, s, "p1", "middle", "casey", 20)

	a := NewAssembler(s, "p1", nil, nil)
	require.NoError(t, a.Start(context.Background()))
	defer a.Close()

	tree := a.Tree()
	require.Len(t, tree, 3)
	assert.Equal(t, "early", tree[0].Comment.Content)
	assert.Equal(t, "middle", tree[1].Comment.Content)
	assert.Equal(t, "late", tree[2].Comment.Content)
}

func TestMentionResolvesAgainstLiveReply(t *testing.T) {
	s := memstore.New()
	c1 := addComment(t, s, "p1", "root", "amber", 1)
	target := addReply(t, s, "p1", c1, models.Reply{Content: "target", AuthorName: "briar", CreatedAt: 2})
	addReply(t, s, "p1", c1, models.Reply{
		Content:          "answer",
		AuthorName:       "casey",
		InReplyToReplyID: target,
		InReplyToName:    "stale-name",
		CreatedAt:        3,
	})

	a := NewAssembler(s, "p1", nil, nil)
	require.NoError(t, a.Start(context.Background()))
	defer a.Close()

	tree := a.Tree()
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 2)
	// The live target's current name wins over the snapshot stored at write
	// time.
	assert.Equal(t, "briar", tree[0].Replies[1].MentionName)
	assert.Empty(t, tree[0].Replies[0].MentionName)
}

func TestMentionFallsBackToStoredName(t *testing.T) {
	s := memstore.New()
	c1 := addComment(t, s, "p1", "root", "amber", 1)
	addReply(t, s, "p1", c1, models.Reply{
		Content:          "answer",
		AuthorName:       "casey",
		InReplyToReplyID: "deleted-reply",
		InReplyToName:    "briar",
		CreatedAt:        2,
	})

	a := NewAssembler(s, "p1", nil, nil)
	require.NoError(t, a.Start(context.Background()))
	defer a.Close()

	tree := a.Tree()
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, "briar", tree[0].Replies[0].MentionName)
}

func TestMentionUnknownWhenNothingSurvives(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	c1 := addComment(t, s, "p1", "root", "amber", 1)
	// Older data may lack the stored name entirely.
	_, err := s.Create(ctx, store.Join("posts", "p1", "comments", c1, "replies"), map[string]any{
		"content":          "answer",
		"authorName":       "casey",
		"inReplyToReplyId": "deleted-reply",
		"createdAt":        int64(2),
	})
	require.NoError(t, err)

	a := NewAssembler(s, "p1", nil, nil)
	require.NoError(t, a.Start(ctx))
	defer a.Close()

	tree := a.Tree()
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, UnknownAuthor, tree[0].Replies[0].MentionName)
}

func TestReplySnapshotBeforeCommentIsHeld(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	a := NewAssembler(s, "p1", nil, nil)
	require.NoError(t, a.Start(ctx))
	defer a.Close()

	// The reply exists in the store before its comment document does.
	require.NoError(t, s.Set(ctx, store.Join("posts", "p1", "comments", "c-early", "replies", "r1"),
		models.Reply{Content: "early", AuthorName: "briar", CreatedAt: 2}.Doc(), false))

	// Snapshots from independent subscriptions carry no cross-ordering
	// guarantee; deliver the reply set ahead of its comment.
	a.onReplies("c-early", []store.Document{{ID: "r1", Data: map[string]any{
		"content":    "early",
		"authorName": "briar",
		"createdAt":  int64(2),
	}}})

	// Held, not rendered: the tree shows nothing until the comment lands.
	assert.Empty(t, a.Tree())

	require.NoError(t, s.Set(ctx, store.Join("posts", "p1", "comments", "c-early"),
		models.Comment{Content: "root", AuthorName: "amber", CreatedAt: 1}.Doc(), false))

	tree := a.Tree()
	require.Len(t, tree, 1)
	assert.Equal(t, "c-early", tree[0].Comment.ID)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, "early", tree[0].Replies[0].Content)
}

func TestAssemblerCloseStopsCallbacks(t *testing.T) {
	s := memstore.New()

	calls := 0
	a := NewAssembler(s, "p1", func([]CommentNode) { calls++ }, nil)
	require.NoError(t, a.Start(context.Background()))

	addComment(t, s, "p1", "one", "amber", 1)
	before := calls
	require.Greater(t, before, 0)

	a.Close()
	addComment(t, s, "p1", "two", "briar", 2)
	assert.Equal(t, before, calls)
}

func TestLoadOneShotTree(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	c1 := addComment(t, s, "p1", "root", "amber", 1)
	target := addReply(t, s, "p1", c1, models.Reply{Content: "target", AuthorName: "briar", CreatedAt: 2})
	addReply(t, s, "p1", c1, models.Reply{
		Content:          "answer",
		AuthorName:       "casey",
		InReplyToReplyID: target,
		CreatedAt:        3,
	})

	tree, err := Load(ctx, s, "p1")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 2)
	assert.Equal(t, "briar", tree[0].Replies[1].MentionName)

	empty, err := Load(ctx, s, "no-such-post")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
