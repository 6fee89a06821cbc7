// Package community covers the side boards: notices, suggestions and brand
// reviews.
package community

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chorock-rock/proto-bizblah/board"
	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/session"
	"github.com/chorock-rock/proto-bizblah/store"
)

// ErrStatusRegression is returned when a suggestion status would move
// backwards. Transitions are forward-only: pending -> reviewed -> resolved.
var ErrStatusRegression = errors.New("suggestion status cannot move backwards")

// ErrUnknownStatus is returned for a status outside the lifecycle.
var ErrUnknownStatus = errors.New("unknown suggestion status")

// ErrAlreadyReviewed is returned when a user submits a second review for
// the same brand.
var ErrAlreadyReviewed = errors.New("brand already reviewed by this user")

// Service runs the side-board operations.
type Service struct {
	st store.Store
}

// NewService returns a community service.
func NewService(st store.Store) *Service {
	return &Service{st: st}
}

// CreateNotice writes an admin announcement.
func (s *Service) CreateNotice(ctx context.Context, title, content string) (string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return "", board.ErrEmptyContent
	}
	n := models.Notice{Title: title, Content: content, CreatedAt: time.Now().UnixMilli()}
	return s.st.Create(ctx, "notices", n.Doc())
}

// ListNotices returns notices, newest first.
func (s *Service) ListNotices(ctx context.Context, limit int) ([]models.Notice, error) {
	docs, err := s.st.GetOnce(ctx, "notices", store.Query{
		OrderBy: []store.Order{{Field: "createdAt", Desc: true}},
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Notice, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.NoticeFromDoc(d))
	}
	return out, nil
}

// DeleteNotice removes an announcement.
func (s *Service) DeleteNotice(ctx context.Context, noticeID string) error {
	return s.st.Delete(ctx, store.Join("notices", noticeID))
}

// CountNoticeView bumps a notice's view counter once per session.
func (s *Service) CountNoticeView(ctx context.Context, sess *session.Context, noticeID string) {
	key := "notice:" + noticeID
	if sess.HasViewed(key) {
		return
	}
	if err := s.st.AtomicIncrement(ctx, store.Join("notices", noticeID), "views", 1); err != nil && !store.IsNotFound(err) {
		return
	}
	sess.MarkViewed(key)
}

// SubmitSuggestion files user feedback in pending status.
func (s *Service) SubmitSuggestion(ctx context.Context, author board.Author, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", board.ErrEmptyContent
	}
	sg := models.Suggestion{
		Content:    content,
		AuthorID:   author.UserID,
		AuthorName: author.Nickname,
		Status:     models.SuggestionPending,
		CreatedAt:  time.Now().UnixMilli(),
	}
	return s.st.Create(ctx, "suggestions", sg.Doc())
}

// ListSuggestions returns suggestions, newest first.
func (s *Service) ListSuggestions(ctx context.Context) ([]models.Suggestion, error) {
	docs, err := s.st.GetOnce(ctx, "suggestions", store.Query{
		OrderBy: []store.Order{{Field: "createdAt", Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Suggestion, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.SuggestionFromDoc(d))
	}
	return out, nil
}

// UpdateSuggestionStatus advances a suggestion's status. Regressions and
// unknown statuses are rejected; re-setting the current status is allowed.
func (s *Service) UpdateSuggestionStatus(ctx context.Context, suggestionID, newStatus string) error {
	if models.SuggestionRank(newStatus) == 0 {
		return ErrUnknownStatus
	}

	path := store.Join("suggestions", suggestionID)
	doc, err := s.st.Get(ctx, path)
	if err != nil {
		return err
	}
	if models.SuggestionRank(newStatus) < models.SuggestionRank(doc.String("status")) {
		return ErrStatusRegression
	}

	return s.st.Update(ctx, path, map[string]any{
		"status":    newStatus,
		"updatedAt": time.Now().UnixMilli(),
	})
}

// SubmitBrandReview records a user's one-time review of their brand.
func (s *Service) SubmitBrandReview(ctx context.Context, review models.BrandReview) (string, error) {
	existing, err := s.st.GetOnce(ctx, "brandReviews", store.Query{
		Filters: []store.Filter{
			{Field: "brand", Op: "==", Value: review.Brand},
			{Field: "authorId", Op: "==", Value: review.AuthorID},
		},
		Limit: 1,
	})
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return "", ErrAlreadyReviewed
	}

	review.CreatedAt = time.Now().UnixMilli()
	return s.st.Create(ctx, "brandReviews", review.Doc())
}

// BrandReviews returns a brand's reviews, newest first.
func (s *Service) BrandReviews(ctx context.Context, brandLabel string) ([]models.BrandReview, error) {
	docs, err := s.st.GetOnce(ctx, "brandReviews", store.Query{
		Filters: []store.Filter{{Field: "brand", Op: "==", Value: brandLabel}},
		OrderBy: []store.Order{{Field: "createdAt", Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.BrandReview, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.BrandReviewFromDoc(d))
	}
	return out, nil
}

// ReviewSummary is a brand's per-axis and overall score averages.
type ReviewSummary struct {
	Count           int     `json:"count"`
	Overall         float64 `json:"overall"`
	Profitability   float64 `json:"profitability"`
	Support         float64 `json:"support"`
	Logistics       float64 `json:"logistics"`
	Competitiveness float64 `json:"competitiveness"`
	Communication   float64 `json:"communication"`
}

// Summarize averages a review list.
func Summarize(reviews []models.BrandReview) ReviewSummary {
	sum := ReviewSummary{Count: len(reviews)}
	if sum.Count == 0 {
		return sum
	}
	for _, r := range reviews {
		sum.Profitability += r.Profitability
		sum.Support += r.Support
		sum.Logistics += r.Logistics
		sum.Competitiveness += r.Competitiveness
		sum.Communication += r.Communication
	}
	n := float64(sum.Count)
	sum.Profitability /= n
	sum.Support /= n
	sum.Logistics /= n
	sum.Competitiveness /= n
	sum.Communication /= n
	sum.Overall = (sum.Profitability + sum.Support + sum.Logistics + sum.Competitiveness + sum.Communication) / 5
	return sum
}
