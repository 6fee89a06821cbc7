package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/chorock-rock/proto-bizblah/config"
	"github.com/chorock-rock/proto-bizblah/handlers"
	"github.com/chorock-rock/proto-bizblah/middleware"
	"github.com/chorock-rock/proto-bizblah/realtime"
)

// SetupRouter builds the engine with all API routes.
func SetupRouter(cfg config.Config, hub *realtime.Hub) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.AllowOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	writeLimiter := middleware.NewIPRateLimiter(30, time.Minute)

	api := r.Group("/api")
	{
		api.POST("/auth/token", handlers.IssueToken)
		api.POST("/admin/login", handlers.AdminLogin)

		auth := api.Group("/")
		auth.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			auth.GET("/me", handlers.GetMyProfile)
			auth.POST("/me/setup", middleware.RateLimit(writeLimiter), handlers.CompleteOnboarding)
			auth.POST("/me/business-number", middleware.RateLimit(writeLimiter), handlers.VerifyBusinessNumber)
			auth.GET("/me/random-nickname", handlers.RandomNickname)

			auth.GET("/feed", handlers.GetFeed)
			auth.GET("/feed/more", handlers.LoadMoreFeed)

			auth.POST("/posts", middleware.RateLimit(writeLimiter), handlers.CreatePost)
			auth.GET("/posts/:id", handlers.GetPost)
			auth.PUT("/posts/:id", handlers.UpdatePost)
			auth.DELETE("/posts/:id", handlers.DeletePost)
			auth.POST("/posts/:id/like", handlers.TogglePostLike)

			auth.GET("/posts/:id/comments", handlers.GetThread)
			auth.POST("/posts/:id/comments", middleware.RateLimit(writeLimiter), handlers.AddComment)
			auth.POST("/posts/:id/comments/:commentId/replies", middleware.RateLimit(writeLimiter), handlers.AddReply)
			auth.DELETE("/posts/:id/comments/:commentId", handlers.DeleteComment)
			auth.POST("/posts/:id/comments/:commentId/like", handlers.ToggleCommentLike)

			auth.GET("/brands/search", handlers.SearchBrands)
			auth.GET("/brands/top", handlers.TopBrands)
			auth.POST("/brands/resolve", handlers.ResolveBrand)
			auth.GET("/brands/:name/reviews", handlers.GetBrandReviews)
			auth.POST("/brands/reviews", middleware.RateLimit(writeLimiter), handlers.SubmitBrandReview)

			auth.GET("/notices", handlers.ListNotices)
			auth.POST("/notices/:id/view", handlers.CountNoticeView)

			auth.POST("/suggestions", middleware.RateLimit(writeLimiter), handlers.SubmitSuggestion)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.JWTAuth(cfg.JWTSecret), middleware.AdminOnly())
		{
			admin.GET("/posts", handlers.AdminListPosts)
			admin.POST("/notices", handlers.AdminCreateNotice)
			admin.DELETE("/notices/:id", handlers.AdminDeleteNotice)
			admin.GET("/suggestions", handlers.ListSuggestions)
			admin.PUT("/suggestions/:id/status", handlers.AdminUpdateSuggestion)
			admin.POST("/brands/bulk", handlers.AdminBulkCreateBrands)
		}
	}

	r.GET("/ws", middleware.JWTAuth(cfg.JWTSecret), gin.WrapF(realtime.Handler(hub)))

	return r
}
