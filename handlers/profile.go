package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/store"
)

// GetMyProfile returns the caller's profile.
func GetMyProfile(c *gin.Context) {
	ctx, cancel := reqCtx()
	defer cancel()

	doc, err := deps.Store.Get(ctx, store.Join("users", c.GetString("userId")))
	if store.IsNotFound(err) {
		c.JSON(http.StatusOK, gin.H{"onboarded": false})
		return
	}
	if err != nil {
		writeErr(c, err)
		return
	}

	profile := models.UserProfileFromDoc(doc)
	c.JSON(http.StatusOK, gin.H{
		"profile":   profile,
		"onboarded": profile.Nickname != "",
	})
}

// SetupRequest completes onboarding: the chosen brand plus nickname.
type SetupRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Brand    string `json:"brand" binding:"required"`
}

// CompleteOnboarding resolves the brand, reserves the nickname and writes
// the profile. Returns a refreshed token carrying the new identity snapshot.
func CompleteOnboarding(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userId")

	ctx, cancel := reqCtx()
	defer cancel()

	b, err := deps.Brands.ResolveOrCreate(ctx, req.Brand)
	if err != nil {
		writeErr(c, err)
		return
	}
	if err := deps.Brands.RecordUsage(ctx, b.ID); err != nil {
		writeErr(c, err)
		return
	}

	if err := deps.Guard.SetupProfile(ctx, userID, req.Nickname, b.Name); err != nil {
		writeErr(c, err)
		return
	}

	sessionFor(c).SelectBrand(b.Name)

	token, err := mintToken(userID, req.Nickname, b.Name, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"nickname": req.Nickname,
		"brand":    b.Name,
	})
}

// BusinessNumberRequest carries the registration number whose external
// registry check succeeded. Verification runs in front of this service; the
// handler records its outcome on the profile.
type BusinessNumberRequest struct {
	BusinessNumber string `json:"businessNumber" binding:"required"`
}

// VerifyBusinessNumber marks the caller's profile as business-verified.
func VerifyBusinessNumber(c *gin.Context) {
	var req BusinessNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	if err := deps.Guard.MarkBusinessVerified(ctx, c.GetString("userId")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

// RandomNickname reserves a generated nickname for the caller and returns
// it without writing the profile; the client confirms it through
// CompleteOnboarding (re-reserving one's own nickname is idempotent).
func RandomNickname(c *gin.Context) {
	ctx, cancel := reqCtx()
	defer cancel()

	nickname, err := deps.Guard.RandomNickname(ctx, c.GetString("userId"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nickname": nickname})
}
