// Package handlers is the HTTP surface. Handlers bind and validate
// requests, delegate to the domain services and translate the store error
// taxonomy into status codes.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chorock-rock/proto-bizblah/board"
	"github.com/chorock-rock/proto-bizblah/brand"
	"github.com/chorock-rock/proto-bizblah/community"
	"github.com/chorock-rock/proto-bizblah/counter"
	"github.com/chorock-rock/proto-bizblah/identity"
	"github.com/chorock-rock/proto-bizblah/session"
	"github.com/chorock-rock/proto-bizblah/store"
)

const requestTimeout = 10 * time.Second

// Deps wires the handler package. Set once from main before the router
// starts serving.
type Deps struct {
	Store             store.Store
	Board             *board.Service
	Community         *community.Service
	Brands            *brand.Resolver
	Guard             *identity.Guard
	Counters          *counter.Reconciler
	JWTSecret         string
	AdminPasswordHash string
}

var deps Deps

// Setup installs the handler dependencies.
func Setup(d Deps) {
	deps = d
}

// reqCtx builds the per-request operation context: bounded, detached from
// the client connection so a navigated-away client doesn't cancel a
// half-applied write.
func reqCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// author reads the acting user's identity snapshot from the validated token.
func author(c *gin.Context) board.Author {
	return board.Author{
		UserID:   c.GetString("userId"),
		Nickname: c.GetString("nickname"),
		Brand:    c.GetString("brand"),
	}
}

// sessions holds one server-side session context per user. It backs the
// per-session view gating; a restart clears it, which only means a view may
// count again — best-effort analytics.
var (
	sessionsMu sync.Mutex
	sessions   = make(map[string]*session.Context)
)

func sessionFor(c *gin.Context) *session.Context {
	userID := c.GetString("userId")

	sessionsMu.Lock()
	defer sessionsMu.Unlock()
	s, ok := sessions[userID]
	if !ok {
		s = session.New(userID, c.GetString("nickname"), nil)
		sessions[userID] = s
	}
	return s
}

// writeErr maps domain and store errors onto HTTP responses.
func writeErr(c *gin.Context, err error) {
	var se *store.StoreError
	if errors.As(err, &se) {
		switch se.Kind {
		case store.NotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		case store.PermissionDenied:
			c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		case store.IndexMissing:
			// Actionable diagnostic: the operator needs the exact index.
			resp := gin.H{"error": "Query requires a missing index"}
			if se.Index != nil {
				resp["index"] = se.Index.String()
			}
			c.JSON(http.StatusInternalServerError, resp)
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable, retry later"})
		}
		return
	}

	switch {
	case errors.Is(err, board.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the author can do that"})
	case errors.Is(err, board.ErrEmptyContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
	case errors.Is(err, identity.ErrNicknameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Nickname already in use, choose another"})
	case errors.Is(err, identity.ErrInvalidNickname):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nickname must be 2-20 characters"})
	case errors.Is(err, brand.ErrEmptyName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Brand name is required"})
	case errors.Is(err, community.ErrStatusRegression):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status can only move forward"})
	case errors.Is(err, community.ErrUnknownStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
	case errors.Is(err, community.ErrAlreadyReviewed):
		c.JSON(http.StatusConflict, gin.H{"error": "You already reviewed this brand"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Request failed"})
	}
}
