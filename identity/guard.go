// Package identity enforces nickname uniqueness through a reservation
// collection keyed by the exact nickname string.
package identity

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/chorock-rock/proto-bizblah/store"
)

// Nickname length bounds (runes, after trimming).
const (
	MinNicknameLen = 2
	MaxNicknameLen = 20
)

// randomAttempts caps retries of the random generator before falling back
// to a timestamp suffix.
const randomAttempts = 5

// ErrNicknameTaken is returned when another user owns the nickname.
var ErrNicknameTaken = errors.New("nickname already in use")

// ErrInvalidNickname is returned when the nickname fails validation.
var ErrInvalidNickname = errors.New("nickname must be 2-20 characters")

// Guard reserves nicknames. The reservation is a check-then-act over the
// nicknames collection: two users racing for the same brand-new nickname in
// the read-absent window can both pass. The store exposes no
// compare-and-swap, so the window is documented and accepted rather than
// papered over.
type Guard struct {
	st store.Store
}

// NewGuard returns a Guard over the given store.
func NewGuard(st store.Store) *Guard {
	return &Guard{st: st}
}

// Normalize trims the nickname. Matching is case-sensitive and exact.
func Normalize(nickname string) string {
	return strings.TrimSpace(nickname)
}

// Validate checks the nickname's length bounds.
func Validate(nickname string) error {
	n := len([]rune(Normalize(nickname)))
	if n < MinNicknameLen || n > MaxNicknameLen {
		return ErrInvalidNickname
	}
	return nil
}

// Reserve claims the nickname for the user. Re-reserving one's own nickname
// is an idempotent success; a nickname owned by someone else returns
// ErrNicknameTaken.
func (g *Guard) Reserve(ctx context.Context, nickname, userID string) error {
	nickname = Normalize(nickname)
	if err := Validate(nickname); err != nil {
		return err
	}

	resPath := store.Join("nicknames", nickname)
	doc, err := g.st.Get(ctx, resPath)
	switch {
	case store.IsNotFound(err):
		// Absent: claim it. See the race note on Guard.
	case err != nil:
		return err
	case doc.String("userId") == userID:
		return nil
	default:
		return ErrNicknameTaken
	}

	return g.st.Set(ctx, resPath, map[string]any{
		"userId":    userID,
		"createdAt": time.Now().UnixMilli(),
	}, true)
}

// Owner returns the userId holding the nickname, or "" when unreserved.
func (g *Guard) Owner(ctx context.Context, nickname string) (string, error) {
	doc, err := g.st.Get(ctx, store.Join("nicknames", Normalize(nickname)))
	if store.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return doc.String("userId"), nil
}

// SetupProfile reserves the nickname and writes the user's profile in one
// onboarding step. When the profile's nickname disagrees with an existing
// reservation held by the same user, the reservation wins and the profile
// is rewritten to match.
func (g *Guard) SetupProfile(ctx context.Context, userID, nickname, brandLabel string) error {
	nickname = Normalize(nickname)
	if err := g.Reserve(ctx, nickname, userID); err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	return g.st.Set(ctx, store.Join("users", userID), map[string]any{
		"nickname":  nickname,
		"brand":     brandLabel,
		"updatedAt": now,
		"createdAt": now,
	}, true)
}

// MarkBusinessVerified records that the user's business registration number
// passed the external registry check. The check itself happens outside this
// service; only its outcome is stored.
func (g *Guard) MarkBusinessVerified(ctx context.Context, userID string) error {
	return g.st.Set(ctx, store.Join("users", userID), map[string]any{
		"businessNumberVerified": true,
		"updatedAt":              time.Now().UnixMilli(),
	}, true)
}

var nicknameWords = []string{
	"sunny", "brave", "quiet", "lucky", "merry", "swift", "cozy", "bold",
	"keen", "spry", "vivid", "calm", "witty", "prime", "noble", "jolly",
}

// RandomNickname reserves and returns a generated nickname: a short word
// plus a two-digit suffix, retried a bounded number of times, then a
// timestamp-suffixed variant. Termination is guaranteed; absolute
// uniqueness of the fallback is not (a same-millisecond collision across
// processes is accepted as negligible).
func (g *Guard) RandomNickname(ctx context.Context, userID string) (string, error) {
	for i := 0; i < randomAttempts; i++ {
		candidate := fmt.Sprintf("%s%02d", nicknameWords[rand.IntN(len(nicknameWords))], rand.IntN(100))
		err := g.Reserve(ctx, candidate, userID)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, ErrNicknameTaken) {
			return "", err
		}
	}

	fallback := fmt.Sprintf("owner%d", time.Now().UnixMilli()%1_000_000_000)
	if err := g.Reserve(ctx, fallback, userID); err != nil {
		return "", err
	}
	return fallback, nil
}
