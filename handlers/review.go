package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chorock-rock/proto-bizblah/community"
	"github.com/chorock-rock/proto-bizblah/models"
)

// ReviewRequest carries the five score axes plus a free-text comment.
type ReviewRequest struct {
	Profitability   float64 `json:"profitability" binding:"min=0,max=5"`
	Support         float64 `json:"support" binding:"min=0,max=5"`
	Logistics       float64 `json:"logistics" binding:"min=0,max=5"`
	Competitiveness float64 `json:"competitiveness" binding:"min=0,max=5"`
	Communication   float64 `json:"communication" binding:"min=0,max=5"`
	Comment         string  `json:"comment"`
}

// SubmitBrandReview records the caller's one-time review of their own brand.
func SubmitBrandReview(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	brandLabel := c.GetString("brand")
	if brandLabel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Complete onboarding before reviewing"})
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	id, err := deps.Community.SubmitBrandReview(ctx, models.BrandReview{
		Brand:           brandLabel,
		AuthorID:        c.GetString("userId"),
		AuthorName:      c.GetString("nickname"),
		Profitability:   req.Profitability,
		Support:         req.Support,
		Logistics:       req.Logistics,
		Competitiveness: req.Competitiveness,
		Communication:   req.Communication,
		Comment:         req.Comment,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reviewId": id})
}

// GetBrandReviews returns a brand's reviews with the averaged summary.
func GetBrandReviews(c *gin.Context) {
	ctx, cancel := reqCtx()
	defer cancel()

	reviews, err := deps.Community.BrandReviews(ctx, c.Param("name"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"summary": community.Summarize(reviews),
	})
}
