package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListNotices returns announcements, newest first.
func ListNotices(c *gin.Context) {
	ctx, cancel := reqCtx()
	defer cancel()

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	notices, err := deps.Community.ListNotices(ctx, limit)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notices": notices})
}

// CountNoticeView records a notice read, once per session.
func CountNoticeView(c *gin.Context) {
	ctx, cancel := reqCtx()
	defer cancel()

	deps.Community.CountNoticeView(ctx, sessionFor(c), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "Counted"})
}
