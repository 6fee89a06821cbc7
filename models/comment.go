package models

import "github.com/chorock-rock/proto-bizblah/store"

// Comment lives under posts/{postId}/comments and is cascade-deleted with
// its post.
type Comment struct {
	ID           string `bson:"_id,omitempty" json:"id"`
	PostID       string `bson:"postId,omitempty" json:"postId,omitempty"`
	Content      string `bson:"content" json:"content"`
	AuthorID     string `bson:"authorId" json:"authorId"`
	AuthorName   string `bson:"authorName" json:"authorName"`
	Likes        int64  `bson:"likes" json:"likes"`
	RepliesCount int64  `bson:"repliesCount" json:"repliesCount"`
	CreatedAt    int64  `bson:"createdAt" json:"createdAt"`
}

// CommentFromDoc maps a stored document onto a Comment.
func CommentFromDoc(d store.Document) Comment {
	return Comment{
		ID:           d.ID,
		Content:      d.String("content"),
		AuthorID:     d.String("authorId"),
		AuthorName:   d.String("authorName"),
		Likes:        d.Int64("likes"),
		RepliesCount: d.Int64("repliesCount"),
		CreatedAt:    d.Int64("createdAt"),
	}
}

// Doc returns the storable representation of the comment.
func (c Comment) Doc() map[string]any {
	return map[string]any{
		"content":      c.Content,
		"authorId":     c.AuthorID,
		"authorName":   c.AuthorName,
		"likes":        c.Likes,
		"repliesCount": c.RepliesCount,
		"createdAt":    c.CreatedAt,
	}
}

// Reply lives under posts/{postId}/comments/{commentId}/replies. A reply to
// another reply stays in the same flat list and carries a mention
// back-reference instead of nesting deeper.
type Reply struct {
	ID               string `bson:"_id,omitempty" json:"id"`
	Content          string `bson:"content" json:"content"`
	AuthorID         string `bson:"authorId" json:"authorId"`
	AuthorName       string `bson:"authorName" json:"authorName"`
	InReplyToReplyID string `bson:"inReplyToReplyId,omitempty" json:"inReplyToReplyId,omitempty"`
	InReplyToName    string `bson:"inReplyToName,omitempty" json:"inReplyToName,omitempty"`
	CreatedAt        int64  `bson:"createdAt" json:"createdAt"`
}

// ReplyFromDoc maps a stored document onto a Reply.
func ReplyFromDoc(d store.Document) Reply {
	return Reply{
		ID:               d.ID,
		Content:          d.String("content"),
		AuthorID:         d.String("authorId"),
		AuthorName:       d.String("authorName"),
		InReplyToReplyID: d.String("inReplyToReplyId"),
		InReplyToName:    d.String("inReplyToName"),
		CreatedAt:        d.Int64("createdAt"),
	}
}

// Doc returns the storable representation of the reply.
func (r Reply) Doc() map[string]any {
	doc := map[string]any{
		"content":    r.Content,
		"authorId":   r.AuthorID,
		"authorName": r.AuthorName,
		"createdAt":  r.CreatedAt,
	}
	if r.InReplyToReplyID != "" {
		doc["inReplyToReplyId"] = r.InReplyToReplyID
		doc["inReplyToName"] = r.InReplyToName
	}
	return doc
}
