package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"launchpad/internal/config"
	"launchpad/internal/middleware"
	"launchpad/internal/models"
	"launchpad/internal/policy"
	"launchpad/internal/queue"
	"launchpad/internal/repository"
	"launchpad/internal/security"
	"launchpad/internal/service"
	"launchpad/internal/storage"
)

// healthCheck is one dependency probed by the health endpoints.
type healthCheck struct {
	name string
	ping func(ctx context.Context) error
}

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	tokens        *security.TokenIssuer
	users         middleware.UserFinder
	auth          *service.AuthService
	profiles      *service.UserService
	products      *service.ProductService
	comments      *service.CommentService
	categories    *service.CategoryService
	notifications *service.NotificationService
	search        *service.SearchService
	analytics     *service.AnalyticsService
	checks        []healthCheck
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, tokens *security.TokenIssuer, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	followRepo := repository.NewFollowRepository(db)
	searchRepo := repository.NewSearchRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	producer := queue.NewProducer(cache, cfg.Worker.Stream)
	media := service.NewMediaService(store, cfg.Storage.MaxUploadSize, log)
	notifications := service.NewNotificationService(notificationRepo, userRepo, cache, log)

	return HandlerSet{
		log:           log,
		cfg:           cfg,
		tokens:        tokens,
		users:         userRepo,
		auth:          service.NewAuthService(userRepo, tokens, producer, media, cfg, log),
		profiles:      service.NewUserService(userRepo, followRepo, productRepo, media, log),
		products:      service.NewProductService(productRepo, notifications, media, log),
		comments:      service.NewCommentService(commentRepo, productRepo, notifications, log),
		categories:    service.NewCategoryService(categoryRepo),
		notifications: notifications,
		search:        service.NewSearchService(productRepo, commentRepo, searchRepo),
		analytics:     service.NewAnalyticsService(analyticsRepo, productRepo, userRepo),
		checks: []healthCheck{
			{name: "database", ping: db.Ping},
			{name: "cache", ping: func(ctx context.Context) error { return cache.Ping(ctx).Err() }},
			{name: "storage", ping: store.Ping},
		},
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	gate := middleware.Auth(h.tokens, h.users)
	optional := middleware.OptionalAuth(h.tokens, h.users)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh-token", h.Refresh)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
		auth.POST("/verify-email", h.VerifyEmail)
		auth.POST("/resend-verification", h.ResendVerification)
		auth.POST("/logout", gate, h.Logout)
		auth.GET("/me", gate, h.Me)
	}

	users := v1.Group("/users")
	{
		users.PATCH("/profile", gate, h.UpdateProfile)
		users.DELETE("", gate, h.DeleteAccount)
		users.GET("/:userId", h.GetProfile)
		users.GET("/:userId/followers", h.Followers)
		users.GET("/:userId/following", h.Following)
		users.POST("/:userId/follow", gate, h.Follow)
		users.DELETE("/:userId/follow", gate, h.Unfollow)
	}

	products := v1.Group("/products")
	{
		products.GET("", optional, h.ListProducts)
		products.GET("/trending", optional, h.TrendingProducts)
		products.GET("/:productId", optional, h.GetProduct)
		products.POST("", gate, h.CreateProduct)
		products.PATCH("/:productId", gate, h.UpdateProduct)
		products.DELETE("/:productId", gate, h.DeleteProduct)
		products.PATCH("/:productId/status", gate, middleware.RequireCapability(policy.ModerateProducts), h.ModerateProduct)
		products.POST("/:productId/upvote", gate, h.Upvote)
		products.DELETE("/:productId/upvote", gate, h.RemoveUpvote)
	}

	comments := v1.Group("/comments")
	{
		comments.GET("/product/:productId", optional, h.ListComments)
		comments.POST("/product/:productId", gate, h.CreateComment)
		comments.PATCH("/:commentId", gate, h.EditComment)
		comments.DELETE("/:commentId", gate, h.DeleteComment)
		comments.POST("/:commentId/hide", gate, middleware.RequireCapability(policy.HideComment), h.HideComment)
		comments.POST("/:commentId/like", gate, h.LikeComment)
		comments.DELETE("/:commentId/like", gate, h.UnlikeComment)
	}

	categories := v1.Group("/categories")
	{
		manage := middleware.RequireCapability(policy.ManageCategories)
		categories.GET("", h.ListCategories)
		categories.GET("/trending", h.TrendingCategories)
		categories.GET("/:categoryId", h.GetCategory)
		categories.POST("", gate, manage, h.CreateCategory)
		categories.PATCH("/:categoryId", gate, manage, h.UpdateCategory)
		categories.DELETE("/:categoryId", gate, manage, h.DeleteCategory)
	}

	notifications := v1.Group("/notifications", gate)
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("", middleware.RequireCapability(policy.SendNotifications), h.SendNotification)
		notifications.PATCH("/read", h.MarkNotificationsRead)
		notifications.DELETE("", h.DeleteNotifications)
		notifications.GET("/preferences", h.NotificationPreferences)
		notifications.PATCH("/preferences", h.UpdateNotificationPreferences)
	}

	search := v1.Group("/search")
	{
		search.GET("/products", h.SearchProducts)
		search.GET("/users", h.SearchUsers)
		search.GET("/comments", h.SearchComments)
		search.GET("/suggestions", h.Suggestions)
	}

	analytics := v1.Group("/analytics", gate)
	{
		analytics.GET("/products/:productId", h.ProductAnalytics)
		analytics.GET("/users/:userId", h.UserAnalytics)
		analytics.GET("/platform", middleware.RequireCapability(policy.ViewPlatformAnalytics), h.PlatformAnalytics)
	}
}

// fail hands err to middleware.ErrorHandler.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

// parseLimit reads an optional positive limit capped at ceiling.
func parseLimit(c *gin.Context, def, ceiling int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit < 1 || limit > ceiling {
		return def
	}
	return limit
}

// actor returns the gated user. Routes using it are always behind Auth.
func actor(c *gin.Context) models.User {
	user, _ := middleware.CurrentUser(c)
	return user
}
