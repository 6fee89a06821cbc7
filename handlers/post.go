package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/chorock-rock/proto-bizblah/counter"
	"github.com/chorock-rock/proto-bizblah/feed"
	"github.com/chorock-rock/proto-bizblah/store"
	"github.com/chorock-rock/proto-bizblah/thread"
)

// CreatePostRequest is the post composer payload.
type CreatePostRequest struct {
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content" binding:"required"`
	Visibility string `json:"visibility,omitempty"`
}

// CreatePost writes a new post authored by the session user.
func CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	id, err := deps.Board.CreatePost(ctx, author(c), req.Title, req.Content, req.Visibility)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"postId": id})
}

// feeds holds one board controller per user session so the cursor and the
// live head subscription survive across requests.
var (
	feedsMu sync.Mutex
	feeds   = make(map[string]*feed.Controller)
)

func feedFor(c *gin.Context) *feed.Controller {
	userID := c.GetString("userId")

	feedsMu.Lock()
	defer feedsMu.Unlock()
	ctl, ok := feeds[userID]
	if !ok {
		ctl = feed.NewController(deps.Store, nil)
		feeds[userID] = ctl
	}
	return ctl
}

func requestedFilter(c *gin.Context) feed.Filter {
	switch c.Query("filter") {
	case "brand":
		return feed.Filter{Kind: feed.FilterBrand, Brand: c.GetString("brand")}
	case "mine":
		return feed.Filter{Kind: feed.FilterMine, UserID: c.GetString("userId")}
	default:
		return feed.Filter{Kind: feed.FilterAll}
	}
}

// GetFeed loads (or reloads) the first page of the requested board view.
func GetFeed(c *gin.Context) {
	ctl := feedFor(c)

	ctx, cancel := reqCtx()
	defer cancel()

	if err := ctl.LoadFirstPage(ctx, requestedFilter(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":   counter.ClampPosts(ctl.Items()),
		"hasMore": ctl.HasMore(),
	})
}

// LoadMoreFeed appends the next page of the session's board view.
func LoadMoreFeed(c *gin.Context) {
	ctl := feedFor(c)

	ctx, cancel := reqCtx()
	defer cancel()

	if err := ctl.LoadMore(ctx); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":   counter.ClampPosts(ctl.Items()),
		"hasMore": ctl.HasMore(),
	})
}

// GetPost returns one post with its comment tree, counting the view once
// per session.
func GetPost(c *gin.Context) {
	postID := c.Param("id")

	ctx, cancel := reqCtx()
	defer cancel()

	post, err := deps.Board.GetPost(ctx, postID)
	if err != nil {
		writeErr(c, err)
		return
	}

	deps.Counters.IncrementView(ctx, sessionFor(c), postID)

	tree, err := thread.Load(ctx, deps.Store, postID)
	if err != nil {
		writeErr(c, err)
		return
	}

	liked, err := deps.Counters.Liked(ctx, store.Join("posts", postID), c.GetString("userId"))
	if err != nil {
		writeErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post":     counter.ClampPost(post),
		"comments": tree,
		"liked":    liked,
	})
}

// UpdatePostRequest edits a post's title and body.
type UpdatePostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// UpdatePost applies an author-only edit.
func UpdatePost(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	if err := deps.Board.UpdatePost(ctx, c.Param("id"), c.GetString("userId"), req.Title, req.Content); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post updated"})
}

// DeletePost cascade-deletes a post. Author or admin only.
func DeletePost(c *gin.Context) {
	ctx, cancel := reqCtx()
	defer cancel()

	report, err := deps.Board.DeletePost(ctx, c.Param("id"), c.GetString("userId"), c.GetBool("isAdmin"))
	if err != nil {
		// The report tells the operator which steps to retry.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted", "report": report})
}

