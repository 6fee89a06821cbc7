package community

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorock-rock/proto-bizblah/board"
	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/session"
	"github.com/chorock-rock/proto-bizblah/store"
	"github.com/chorock-rock/proto-bizblah/store/memstore"
)

var amber = board.Author{UserID: "u1", Nickname: "amber", Brand: "acme"}

func TestNoticesLifecycle(t *testing.T) {
	s := memstore.New()
	svc := NewService(s)
	ctx := context.Background()

	id1, err := svc.CreateNotice(ctx, "Welcome", "Hello owners")
	require.NoError(t, err)
	_, err = svc.CreateNotice(ctx, "Maintenance", "Sunday 2am")
	require.NoError(t, err)

	notices, err := svc.ListNotices(ctx, 10)
	require.NoError(t, err)
	require.Len(t, notices, 2)

	require.NoError(t, svc.DeleteNotice(ctx, id1))
	notices, err = svc.ListNotices(ctx, 10)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, "Maintenance", notices[0].Title)
}

func TestCreateNoticeRejectsBlank(t *testing.T) {
	svc := NewService(memstore.New())

	_, err := svc.CreateNotice(context.Background(), "  ", "body")
	assert.ErrorIs(t, err, board.ErrEmptyContent)
}

func TestCountNoticeViewOncePerSession(t *testing.T) {
	s := memstore.New()
	svc := NewService(s)
	ctx := context.Background()

	id, err := svc.CreateNotice(ctx, "Welcome", "Hello")
	require.NoError(t, err)

	sess := session.New("u1", "amber", nil)
	svc.CountNoticeView(ctx, sess, id)
	svc.CountNoticeView(ctx, sess, id)

	doc, err := s.Get(ctx, store.Join("notices", id))
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Int64("views"))
}

func TestSuggestionStartsPending(t *testing.T) {
	s := memstore.New()
	svc := NewService(s)
	ctx := context.Background()

	_, err := svc.SubmitSuggestion(ctx, amber, "Add dark mode")
	require.NoError(t, err)

	list, err := svc.ListSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.SuggestionPending, list[0].Status)
	assert.Equal(t, "amber", list[0].AuthorName)
}

func TestSuggestionStatusForwardOnly(t *testing.T) {
	s := memstore.New()
	svc := NewService(s)
	ctx := context.Background()

	id, err := svc.SubmitSuggestion(ctx, amber, "Add dark mode")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateSuggestionStatus(ctx, id, models.SuggestionReviewed))
	// Same status again is allowed.
	require.NoError(t, svc.UpdateSuggestionStatus(ctx, id, models.SuggestionReviewed))
	require.NoError(t, svc.UpdateSuggestionStatus(ctx, id, models.SuggestionResolved))

	err = svc.UpdateSuggestionStatus(ctx, id, models.SuggestionPending)
	assert.ErrorIs(t, err, ErrStatusRegression)

	err = svc.UpdateSuggestionStatus(ctx, id, "archived")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestSuggestionStatusSkipsAhead(t *testing.T) {
	s := memstore.New()
	svc := NewService(s)
	ctx := context.Background()

	id, err := svc.SubmitSuggestion(ctx, amber, "Faster feed")
	require.NoError(t, err)

	// pending straight to resolved is a legal forward move.
	require.NoError(t, svc.UpdateSuggestionStatus(ctx, id, models.SuggestionResolved))
}

func TestBrandReviewOnePerUser(t *testing.T) {
	s := memstore.New()
	svc := NewService(s)
	ctx := context.Background()

	review := models.BrandReview{
		Brand:         "acme",
		AuthorID:      "u1",
		AuthorName:    "amber",
		Profitability: 4, Support: 3, Logistics: 5, Competitiveness: 4, Communication: 2,
		Comment: "solid",
	}
	_, err := svc.SubmitBrandReview(ctx, review)
	require.NoError(t, err)

	_, err = svc.SubmitBrandReview(ctx, review)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	// Same user reviewing a different brand is fine.
	other := review
	other.Brand = "zenith"
	_, err = svc.SubmitBrandReview(ctx, other)
	require.NoError(t, err)

	// Different user, same brand, also fine.
	second := review
	second.AuthorID = "u2"
	_, err = svc.SubmitBrandReview(ctx, second)
	require.NoError(t, err)
}

func TestBrandReviewsAndSummary(t *testing.T) {
	s := memstore.New()
	svc := NewService(s)
	ctx := context.Background()

	_, err := svc.SubmitBrandReview(ctx, models.BrandReview{
		Brand: "acme", AuthorID: "u1", AuthorName: "amber",
		Profitability: 4, Support: 4, Logistics: 4, Competitiveness: 4, Communication: 4,
	})
	require.NoError(t, err)
	_, err = svc.SubmitBrandReview(ctx, models.BrandReview{
		Brand: "acme", AuthorID: "u2", AuthorName: "briar",
		Profitability: 2, Support: 2, Logistics: 2, Competitiveness: 2, Communication: 2,
	})
	require.NoError(t, err)
	_, err = svc.SubmitBrandReview(ctx, models.BrandReview{
		Brand: "zenith", AuthorID: "u3", AuthorName: "casey",
		Profitability: 5, Support: 5, Logistics: 5, Competitiveness: 5, Communication: 5,
	})
	require.NoError(t, err)

	reviews, err := svc.BrandReviews(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	sum := Summarize(reviews)
	assert.Equal(t, 2, sum.Count)
	assert.InDelta(t, 3.0, sum.Overall, 0.001)
	assert.InDelta(t, 3.0, sum.Profitability, 0.001)
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	assert.Zero(t, sum.Count)
	assert.Zero(t, sum.Overall)
}
