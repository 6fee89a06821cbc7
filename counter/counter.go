// Package counter maintains the like/view/comment counters. Counters are
// display values kept eventually consistent by store-level atomic
// increments; the like documents themselves are the ground truth.
package counter

import (
	"context"
	"log"
	"time"

	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/session"
	"github.com/chorock-rock/proto-bizblah/store"
)

// CounterField is the counter mutated by like toggles on posts and comments.
const CounterField = "likes"

// Reconciler performs the like-toggle protocol and view counting.
type Reconciler struct {
	st store.Store
}

// New returns a Reconciler over the given store.
func New(st store.Store) *Reconciler {
	return &Reconciler{st: st}
}

// ToggleLike flips the caller's like on the subject (a post or comment
// document path) and moves its likes counter by exactly one.
//
// The like document write and the counter increment are two sequential
// operations, not a transaction; a crash between them leaves the counter
// transiently off, which the data model accepts. Callers must read the
// returned state before allowing a second toggle: two toggles issued
// without observing the state in between can double-count.
func (r *Reconciler) ToggleLike(ctx context.Context, subjectPath, userID string) (nowLiked bool, err error) {
	likePath := store.Join(subjectPath, "likes", userID)

	likeDoc, err := r.st.Get(ctx, likePath)
	switch {
	case err == nil && !likeDoc.Bool("deleted"):
		// Unlike: soft-delete keeps the document identity stable.
		if err := r.st.Update(ctx, likePath, map[string]any{"deleted": true}); err != nil {
			return false, err
		}
		if err := r.increment(ctx, subjectPath, -1); err != nil {
			return false, err
		}
		return false, nil

	case err == nil || store.IsNotFound(err):
		data := map[string]any{
			"userId":    userID,
			"createdAt": time.Now().UnixMilli(),
			"deleted":   false,
		}
		if err := r.st.Set(ctx, likePath, data, false); err != nil {
			return false, err
		}
		if err := r.increment(ctx, subjectPath, 1); err != nil {
			return false, err
		}
		return true, nil

	default:
		return false, err
	}
}

// Liked reports whether the user currently likes the subject.
func (r *Reconciler) Liked(ctx context.Context, subjectPath, userID string) (bool, error) {
	likeDoc, err := r.st.Get(ctx, store.Join(subjectPath, "likes", userID))
	if store.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !likeDoc.Bool("deleted"), nil
}

// IncrementView bumps a post's view counter at most once per session.
// Fire-and-forget: failures are logged, never surfaced, and a vanished post
// is a silent no-op.
func (r *Reconciler) IncrementView(ctx context.Context, sess *session.Context, postID string) {
	if sess.HasViewed(postID) {
		return
	}
	err := r.st.AtomicIncrement(ctx, store.Join("posts", postID), "views", 1)
	if err != nil && !store.IsNotFound(err) {
		log.Printf("counter: view increment for post %s failed: %v", postID, err)
		return
	}
	sess.MarkViewed(postID)
}

// increment moves the subject's like counter, treating a vanished subject
// as a no-op: liking a just-deleted post is expected under eventual
// consistency, not an error.
func (r *Reconciler) increment(ctx context.Context, subjectPath string, delta int64) error {
	err := r.st.AtomicIncrement(ctx, subjectPath, CounterField, delta)
	if store.IsNotFound(err) {
		return nil
	}
	return err
}

// Clamp keeps a counter presentable: concurrent toggles can transiently
// drive the stored value negative.
func Clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// ClampPost floors a post's display counters at zero.
func ClampPost(p models.Post) models.Post {
	p.Likes = Clamp(p.Likes)
	p.Views = Clamp(p.Views)
	p.CommentsCount = Clamp(p.CommentsCount)
	return p
}

// ClampPosts applies ClampPost across a post list in place and returns it.
func ClampPosts(items []models.Post) []models.Post {
	for i := range items {
		items[i] = ClampPost(items[i])
	}
	return items
}
