package models

import "github.com/chorock-rock/proto-bizblah/store"

// UserProfile is the forum-facing identity of an authenticated user. The
// nickname is globally unique, enforced through the nicknames reservation
// collection, not this document.
type UserProfile struct {
	ID                     string `bson:"_id,omitempty" json:"id"`
	Nickname               string `bson:"nickname" json:"nickname"`
	Brand                  string `bson:"brand" json:"brand"`
	BusinessNumberVerified bool   `bson:"businessNumberVerified" json:"businessNumberVerified"`
	CreatedAt              int64  `bson:"createdAt" json:"createdAt"`
	UpdatedAt              int64  `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// UserProfileFromDoc maps a stored document onto a UserProfile.
func UserProfileFromDoc(d store.Document) UserProfile {
	return UserProfile{
		ID:                     d.ID,
		Nickname:               d.String("nickname"),
		Brand:                  d.String("brand"),
		BusinessNumberVerified: d.Bool("businessNumberVerified"),
		CreatedAt:              d.Int64("createdAt"),
		UpdatedAt:              d.Int64("updatedAt"),
	}
}

// Like is a per-(subject, user) record under a post's or comment's likes
// collection. It is soft-deleted so the document identity stays stable
// across repeated toggles.
type Like struct {
	UserID    string `bson:"userId" json:"userId"`
	Deleted   bool   `bson:"deleted" json:"deleted"`
	CreatedAt int64  `bson:"createdAt" json:"createdAt"`
}
