// Package board owns post, comment and reply lifecycle: creation with
// counter bookkeeping, author-only edits, and the ordered cascade delete.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/store"
)

// ErrNotAuthor is returned when a mutation requires post/comment ownership.
var ErrNotAuthor = errors.New("not the author")

// ErrEmptyContent is returned for blank titles or bodies.
var ErrEmptyContent = errors.New("content is empty")

// Service runs board mutations over the store.
type Service struct {
	st store.Store
}

// NewService returns a board service.
func NewService(st store.Store) *Service {
	return &Service{st: st}
}

// Author identifies the acting user with their display fields, snapshotted
// onto authored documents so reads never join against the profile.
type Author struct {
	UserID   string
	Nickname string
	Brand    string
}

// CreatePost writes a new post and returns its id.
func (s *Service) CreatePost(ctx context.Context, author Author, title, content, visibility string) (string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return "", ErrEmptyContent
	}
	if visibility != models.VisibilityBrandOnly {
		visibility = models.VisibilityPublic
	}

	p := models.Post{
		Title:       title,
		Content:     content,
		AuthorID:    author.UserID,
		AuthorName:  author.Nickname,
		AuthorBrand: author.Brand,
		Visibility:  visibility,
		CreatedAt:   time.Now().UnixMilli(),
	}
	return s.st.Create(ctx, "posts", p.Doc())
}

// ListAll returns posts newest first regardless of visibility, paged by a
// createdAt upper bound. Back-office moderation uses it; member feeds go
// through the feed controller and its visibility rules.
func (s *Service) ListAll(ctx context.Context, limit int, before int64) ([]models.Post, error) {
	q := store.Query{
		OrderBy: []store.Order{{Field: "createdAt", Desc: true}},
		Limit:   limit,
	}
	if before > 0 {
		q.Filters = []store.Filter{{Field: "createdAt", Op: "<", Value: before}}
	}
	docs, err := s.st.GetOnce(ctx, "posts", q)
	if err != nil {
		return nil, err
	}
	out := make([]models.Post, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.PostFromDoc(d))
	}
	return out, nil
}

// GetPost reads one post.
func (s *Service) GetPost(ctx context.Context, postID string) (models.Post, error) {
	doc, err := s.st.Get(ctx, store.Join("posts", postID))
	if err != nil {
		return models.Post{}, err
	}
	return models.PostFromDoc(doc), nil
}

// UpdatePost edits title and body. Only the author may edit.
func (s *Service) UpdatePost(ctx context.Context, postID, requesterID, title, content string) error {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return ErrEmptyContent
	}

	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != requesterID {
		return ErrNotAuthor
	}

	return s.st.Update(ctx, store.Join("posts", postID), map[string]any{
		"title":     title,
		"content":   content,
		"updatedAt": time.Now().UnixMilli(),
	})
}

// AddComment appends a comment and counts it on the post.
func (s *Service) AddComment(ctx context.Context, author Author, postID, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}

	c := models.Comment{
		Content:    content,
		AuthorID:   author.UserID,
		AuthorName: author.Nickname,
		CreatedAt:  time.Now().UnixMilli(),
	}
	id, err := s.st.Create(ctx, store.Join("posts", postID, "comments"), c.Doc())
	if err != nil {
		return "", err
	}

	if err := s.bumpCommentsCount(ctx, postID, 1); err != nil {
		return id, err
	}
	return id, nil
}

// AddReply appends a reply under a comment. Replies count toward both the
// comment's repliesCount and the post's commentsCount. A reply to another
// reply carries a mention back-reference, resolved here against the live
// reply so the stored name reflects the target at write time.
func (s *Service) AddReply(ctx context.Context, author Author, postID, commentID, content, inReplyToReplyID string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}

	r := models.Reply{
		Content:    content,
		AuthorID:   author.UserID,
		AuthorName: author.Nickname,
		CreatedAt:  time.Now().UnixMilli(),
	}
	repliesPath := store.Join("posts", postID, "comments", commentID, "replies")
	if inReplyToReplyID != "" {
		r.InReplyToReplyID = inReplyToReplyID
		r.InReplyToName = s.replyAuthorName(ctx, store.Join(repliesPath, inReplyToReplyID))
	}

	id, err := s.st.Create(ctx, repliesPath, r.Doc())
	if err != nil {
		return "", err
	}

	commentPath := store.Join("posts", postID, "comments", commentID)
	if err := s.ignoreGone(s.st.AtomicIncrement(ctx, commentPath, "repliesCount", 1)); err != nil {
		return id, err
	}
	if err := s.bumpCommentsCount(ctx, postID, 1); err != nil {
		return id, err
	}
	return id, nil
}

// DeleteComment removes a comment with its replies and likes, and returns
// the post's commentsCount to the pre-comment state (the comment itself
// plus each deleted reply).
func (s *Service) DeleteComment(ctx context.Context, postID, commentID, requesterID string, isAdmin bool) error {
	commentPath := store.Join("posts", postID, "comments", commentID)
	doc, err := s.st.Get(ctx, commentPath)
	if store.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !isAdmin && doc.String("authorId") != requesterID {
		return ErrNotAuthor
	}

	deleted, err := s.deleteCommentSubtree(ctx, postID, commentID)
	if err != nil {
		return err
	}
	return s.bumpCommentsCount(ctx, postID, -(1 + int64(deleted.Replies)))
}

// CascadeReport accounts for one cascade delete run.
type CascadeReport struct {
	Comments int      `json:"comments"`
	Replies  int      `json:"replies"`
	Likes    int      `json:"likes"`
	Failures []string `json:"failures,omitempty"`
}

func (rep *CascadeReport) fail(step string, err error) {
	rep.Failures = append(rep.Failures, fmt.Sprintf("%s: %v", step, err))
}

// DeletePost removes the post and its whole subtree: every comment's
// replies and likes, the comments, the post's likes, and finally the post
// document. There is no transaction; a partial failure is reported per step
// and the operation is retryable with the same post id until it completes
// (all steps are idempotent deletes).
func (s *Service) DeletePost(ctx context.Context, postID, requesterID string, isAdmin bool) (*CascadeReport, error) {
	rep := &CascadeReport{}

	postPath := store.Join("posts", postID)
	doc, err := s.st.Get(ctx, postPath)
	if store.IsNotFound(err) {
		return rep, nil
	}
	if err != nil {
		return rep, err
	}
	if !isAdmin && doc.String("authorId") != requesterID {
		return rep, ErrNotAuthor
	}

	comments, err := s.st.GetOnce(ctx, store.Join("posts", postID, "comments"), store.Query{})
	if err != nil {
		return rep, err
	}
	for _, c := range comments {
		sub, err := s.deleteCommentSubtree(ctx, postID, c.ID)
		rep.Replies += sub.Replies
		rep.Likes += sub.Likes
		if err != nil {
			rep.fail("comment "+c.ID, err)
			continue
		}
		rep.Comments++
	}

	likes, err := s.st.GetOnce(ctx, store.Join("posts", postID, "likes"), store.Query{})
	if err != nil {
		rep.fail("list post likes", err)
	}
	for _, l := range likes {
		if err := s.st.Delete(ctx, store.Join("posts", postID, "likes", l.ID)); err != nil {
			rep.fail("post like "+l.ID, err)
			continue
		}
		rep.Likes++
	}

	if len(rep.Failures) > 0 {
		// Leave the post document so a retry finds the remaining orphans.
		return rep, fmt.Errorf("cascade delete of post %s incomplete: %s", postID, strings.Join(rep.Failures, "; "))
	}

	if err := s.st.Delete(ctx, postPath); err != nil {
		rep.fail("post document", err)
		return rep, err
	}
	return rep, nil
}

type subtreeReport struct {
	Replies int
	Likes   int
}

// deleteCommentSubtree removes one comment's replies and likes, then the
// comment document.
func (s *Service) deleteCommentSubtree(ctx context.Context, postID, commentID string) (subtreeReport, error) {
	var rep subtreeReport
	commentPath := store.Join("posts", postID, "comments", commentID)

	replies, err := s.st.GetOnce(ctx, store.Join(commentPath, "replies"), store.Query{})
	if err != nil {
		return rep, err
	}
	for _, r := range replies {
		if err := s.st.Delete(ctx, store.Join(commentPath, "replies", r.ID)); err != nil {
			return rep, err
		}
		rep.Replies++
	}

	likes, err := s.st.GetOnce(ctx, store.Join(commentPath, "likes"), store.Query{})
	if err != nil {
		return rep, err
	}
	for _, l := range likes {
		if err := s.st.Delete(ctx, store.Join(commentPath, "likes", l.ID)); err != nil {
			return rep, err
		}
		rep.Likes++
	}

	if err := s.st.Delete(ctx, commentPath); err != nil {
		return rep, err
	}
	return rep, nil
}

func (s *Service) bumpCommentsCount(ctx context.Context, postID string, delta int64) error {
	return s.ignoreGone(s.st.AtomicIncrement(ctx, store.Join("posts", postID), "commentsCount", delta))
}

// ignoreGone drops NotFound: counting against a just-deleted parent is
// expected under eventual consistency.
func (s *Service) ignoreGone(err error) error {
	if store.IsNotFound(err) {
		return nil
	}
	return err
}

func (s *Service) replyAuthorName(ctx context.Context, replyPath string) string {
	doc, err := s.st.Get(ctx, replyPath)
	if err != nil {
		return ""
	}
	return doc.String("authorName")
}
