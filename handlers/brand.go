package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SearchBrands prefix-searches the active brand directory.
func SearchBrands(c *gin.Context) {
	ctx, cancel := reqCtx()
	defer cancel()

	limit, _ := strconv.Atoi(c.Query("limit"))
	brands, err := deps.Brands.Search(ctx, c.Query("q"), limit)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

// TopBrands lists the most popular brands by store count.
func TopBrands(c *gin.Context) {
	ctx, cancel := reqCtx()
	defer cancel()

	n, _ := strconv.Atoi(c.DefaultQuery("n", "10"))
	if n <= 0 {
		n = 10
	}
	brands, err := deps.Brands.TopByPopularity(ctx, n)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

// ResolveBrandRequest names the brand to look up or register.
type ResolveBrandRequest struct {
	Name string `json:"name" binding:"required"`
}

// ResolveBrand returns the directory entry for a brand name, creating a
// custom entry when the directory has none.
func ResolveBrand(c *gin.Context) {
	var req ResolveBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	b, err := deps.Brands.ResolveOrCreate(ctx, req.Name)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brand": b})
}
