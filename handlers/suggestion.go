package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SuggestionRequest is the body for new feedback.
type SuggestionRequest struct {
	Content string `json:"content" binding:"required"`
}

// SubmitSuggestion files feedback in pending status.
func SubmitSuggestion(c *gin.Context) {
	var req SuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	id, err := deps.Community.SubmitSuggestion(ctx, author(c), req.Content)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"suggestionId": id})
}

// ListSuggestions returns all filed suggestions, newest first.
func ListSuggestions(c *gin.Context) {
	ctx, cancel := reqCtx()
	defer cancel()

	suggestions, err := deps.Community.ListSuggestions(ctx)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
