package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chorock-rock/proto-bizblah/counter"
	"github.com/chorock-rock/proto-bizblah/models"
)

// AdminListPosts lists posts for moderation, newest first and without the
// member feed's visibility rules, so brand-only posts are reachable too.
// before= pages by createdAt.
func AdminListPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	before, _ := strconv.ParseInt(c.Query("before"), 10, 64)

	ctx, cancel := reqCtx()
	defer cancel()

	posts, err := deps.Board.ListAll(ctx, limit, before)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": counter.ClampPosts(posts)})
}

// NoticeRequest is the body for a new announcement.
type NoticeRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// AdminCreateNotice publishes an announcement.
func AdminCreateNotice(c *gin.Context) {
	var req NoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	id, err := deps.Community.CreateNotice(ctx, req.Title, req.Content)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"noticeId": id})
}

// AdminDeleteNotice removes an announcement.
func AdminDeleteNotice(c *gin.Context) {
	ctx, cancel := reqCtx()
	defer cancel()

	if err := deps.Community.DeleteNotice(ctx, c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notice deleted"})
}

// StatusRequest names the new suggestion status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminUpdateSuggestion advances a suggestion through its lifecycle.
func AdminUpdateSuggestion(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	if err := deps.Community.UpdateSuggestionStatus(ctx, c.Param("id"), req.Status); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated"})
}

// BulkBrandRequest is the back-office directory import payload.
type BulkBrandRequest struct {
	Brands []struct {
		Name       string `json:"name"`
		StoreCount int64  `json:"storeCount"`
	} `json:"brands" binding:"required"`
}

// AdminBulkCreateBrands imports directory rows, skipping duplicates.
func AdminBulkCreateBrands(c *gin.Context) {
	var req BulkBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows := make([]models.Brand, 0, len(req.Brands))
	for _, b := range req.Brands {
		rows = append(rows, models.Brand{Name: b.Name, StoreCount: b.StoreCount})
	}

	ctx, cancel := reqCtx()
	defer cancel()

	res, err := deps.Brands.BulkCreate(ctx, rows)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}
