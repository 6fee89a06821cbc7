package models

import "github.com/chorock-rock/proto-bizblah/store"

// Notice is an admin-authored announcement.
type Notice struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	Title     string `bson:"title" json:"title"`
	Content   string `bson:"content" json:"content"`
	Views     int64  `bson:"views" json:"views"`
	CreatedAt int64  `bson:"createdAt" json:"createdAt"`
}

// NoticeFromDoc maps a stored document onto a Notice.
func NoticeFromDoc(d store.Document) Notice {
	return Notice{
		ID:        d.ID,
		Title:     d.String("title"),
		Content:   d.String("content"),
		Views:     d.Int64("views"),
		CreatedAt: d.Int64("createdAt"),
	}
}

// Doc returns the storable representation of the notice.
func (n Notice) Doc() map[string]any {
	return map[string]any{
		"title":     n.Title,
		"content":   n.Content,
		"views":     n.Views,
		"createdAt": n.CreatedAt,
	}
}

// Suggestion statuses. Transitions are forward-only:
// pending -> reviewed -> resolved.
const (
	SuggestionPending  = "pending"
	SuggestionReviewed = "reviewed"
	SuggestionResolved = "resolved"
)

// SuggestionRank orders statuses for the forward-only check. Unknown
// statuses rank below pending.
func SuggestionRank(status string) int {
	switch status {
	case SuggestionPending:
		return 1
	case SuggestionReviewed:
		return 2
	case SuggestionResolved:
		return 3
	}
	return 0
}

// Suggestion is user feedback reviewed by admins.
type Suggestion struct {
	ID         string `bson:"_id,omitempty" json:"id"`
	Content    string `bson:"content" json:"content"`
	AuthorID   string `bson:"authorId" json:"authorId"`
	AuthorName string `bson:"authorName" json:"authorName"`
	Status     string `bson:"status" json:"status"`
	CreatedAt  int64  `bson:"createdAt" json:"createdAt"`
	UpdatedAt  int64  `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// SuggestionFromDoc maps a stored document onto a Suggestion.
func SuggestionFromDoc(d store.Document) Suggestion {
	return Suggestion{
		ID:         d.ID,
		Content:    d.String("content"),
		AuthorID:   d.String("authorId"),
		AuthorName: d.String("authorName"),
		Status:     d.String("status"),
		CreatedAt:  d.Int64("createdAt"),
		UpdatedAt:  d.Int64("updatedAt"),
	}
}

// Doc returns the storable representation of the suggestion.
func (s Suggestion) Doc() map[string]any {
	return map[string]any{
		"content":    s.Content,
		"authorId":   s.AuthorID,
		"authorName": s.AuthorName,
		"status":     s.Status,
		"createdAt":  s.CreatedAt,
		"updatedAt":  s.UpdatedAt,
	}
}
