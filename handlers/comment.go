package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chorock-rock/proto-bizblah/thread"
)

// CommentRequest is the body for a new comment.
type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// AddComment appends a comment to a post.
func AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	id, err := deps.Board.AddComment(ctx, author(c), c.Param("id"), req.Content)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"commentId": id})
}

// ReplyRequest is the body for a new reply. InReplyTo names another reply
// in the same thread when the reply mentions it.
type ReplyRequest struct {
	Content   string `json:"content" binding:"required"`
	InReplyTo string `json:"inReplyTo,omitempty"`
}

// AddReply appends a reply under a comment.
func AddReply(c *gin.Context) {
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	id, err := deps.Board.AddReply(ctx, author(c), c.Param("id"), c.Param("commentId"), req.Content, req.InReplyTo)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"replyId": id})
}

// DeleteComment removes a comment with its replies. Author or admin only.
func DeleteComment(c *gin.Context) {
	ctx, cancel := reqCtx()
	defer cancel()

	err := deps.Board.DeleteComment(ctx, c.Param("id"), c.Param("commentId"), c.GetString("userId"), c.GetBool("isAdmin"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}

// GetThread returns a post's assembled comment tree without the post body.
func GetThread(c *gin.Context) {
	ctx, cancel := reqCtx()
	defer cancel()

	tree, err := thread.Load(ctx, deps.Store, c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": tree})
}
