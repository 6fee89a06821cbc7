package models

import "github.com/chorock-rock/proto-bizblah/store"

// Visibility scopes for posts.
const (
	VisibilityPublic    = "public"
	VisibilityBrandOnly = "brand-only"
)

// Post is a board post. Likes, Views and CommentsCount are best-effort
// display counters maintained by atomic increments; the like and comment
// documents underneath the post are the ground truth.
type Post struct {
	ID            string `bson:"_id,omitempty" json:"id"`
	Title         string `bson:"title" json:"title"`
	Content       string `bson:"content" json:"content"`
	AuthorID      string `bson:"authorId" json:"authorId"`
	AuthorName    string `bson:"authorName" json:"authorName"`
	AuthorBrand   string `bson:"authorBrand" json:"authorBrand"`
	Visibility    string `bson:"visibility" json:"visibility"`
	Views         int64  `bson:"views" json:"views"`
	Likes         int64  `bson:"likes" json:"likes"`
	CommentsCount int64  `bson:"commentsCount" json:"commentsCount"`
	CreatedAt     int64  `bson:"createdAt" json:"createdAt"`
	UpdatedAt     int64  `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// PostFromDoc maps a stored document onto a Post.
func PostFromDoc(d store.Document) Post {
	return Post{
		ID:            d.ID,
		Title:         d.String("title"),
		Content:       d.String("content"),
		AuthorID:      d.String("authorId"),
		AuthorName:    d.String("authorName"),
		AuthorBrand:   d.String("authorBrand"),
		Visibility:    d.String("visibility"),
		Views:         d.Int64("views"),
		Likes:         d.Int64("likes"),
		CommentsCount: d.Int64("commentsCount"),
		CreatedAt:     d.Int64("createdAt"),
		UpdatedAt:     d.Int64("updatedAt"),
	}
}

// Doc returns the storable representation of the post.
func (p Post) Doc() map[string]any {
	return map[string]any{
		"title":         p.Title,
		"content":       p.Content,
		"authorId":      p.AuthorID,
		"authorName":    p.AuthorName,
		"authorBrand":   p.AuthorBrand,
		"visibility":    p.Visibility,
		"views":         p.Views,
		"likes":         p.Likes,
		"commentsCount": p.CommentsCount,
		"createdAt":     p.CreatedAt,
		"updatedAt":     p.UpdatedAt,
	}
}
