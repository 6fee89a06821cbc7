package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chorock-rock/proto-bizblah/store"
)

// TogglePostLike flips the caller's like on a post and reports the new state.
func TogglePostLike(c *gin.Context) {
	toggleLike(c, store.Join("posts", c.Param("id")))
}

// ToggleCommentLike flips the caller's like on a comment.
func ToggleCommentLike(c *gin.Context) {
	toggleLike(c, store.Join("posts", c.Param("id"), "comments", c.Param("commentId")))
}

func toggleLike(c *gin.Context, subjectPath string) {
	ctx, cancel := reqCtx()
	defer cancel()

	liked, err := deps.Counters.ToggleLike(ctx, subjectPath, c.GetString("userId"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}
