package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/chorock-rock/proto-bizblah/middleware"
	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/store"
)

const tokenTTL = 24 * time.Hour

// TokenRequest exchanges a provider-verified identity for a session token.
// Verifying the provider assertion is the identity collaborator's job
// (gateway / OAuth proxy); this service trusts the forwarded subject.
type TokenRequest struct {
	Provider string `json:"provider" binding:"required"`
	Subject  string `json:"subject" binding:"required"`
}

// IssueToken mints the session JWT. The response tells the client whether
// the user still needs onboarding (brand + nickname).
func IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := req.Provider + ":" + req.Subject

	ctx, cancel := reqCtx()
	defer cancel()

	var profile models.UserProfile
	onboarded := false
	doc, err := deps.Store.Get(ctx, store.Join("users", userID))
	switch {
	case err == nil:
		profile = models.UserProfileFromDoc(doc)
		onboarded = profile.Nickname != ""
	case store.IsNotFound(err):
		// First sign-in; profile is written during onboarding.
	default:
		writeErr(c, err)
		return
	}

	token, err := mintToken(userID, profile.Nickname, profile.Brand, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"userId":    userID,
		"onboarded": onboarded,
		"nickname":  profile.Nickname,
		"brand":     profile.Brand,
	})
}

// AdminLoginRequest authenticates the back-office.
type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AdminLogin compares the password against the configured bcrypt hash and
// mints an admin token.
func AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if deps.AdminPasswordHash == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access is not configured"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(deps.AdminPasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	token, err := mintToken("admin", "admin", "", true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func mintToken(userID, nickname, brandLabel string, isAdmin bool) (string, error) {
	claims := &middleware.Claims{
		UserID:   userID,
		Nickname: nickname,
		Brand:    brandLabel,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(deps.JWTSecret))
}
