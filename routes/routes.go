package routes

import (
	"net/http"
	"time"

	"github.com/bluewhale-protocol/api-go/cache"
	"github.com/bluewhale-protocol/api-go/config"
	"github.com/bluewhale-protocol/api-go/controllers"
	"github.com/bluewhale-protocol/api-go/middleware"
	"github.com/bluewhale-protocol/api-go/notify"
	"github.com/bluewhale-protocol/api-go/storage"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Dependencies is everything the HTTP layer needs from main.
type Dependencies struct {
	Config   *config.Config
	Stores   *store.Stores
	Tokens   *utils.TokenManager
	Cache    cache.Cache
	Notifier notify.Dispatcher
	Files    storage.FileStore
	Google   controllers.GoogleVerifier
	Log      zerolog.Logger
}

// guards are the per-route middleware shared by the route groups.
type guards struct {
	auth         gin.HandlerFunc
	optional     gin.HandlerFunc
	self         gin.HandlerFunc
	contentOwner gin.HandlerFunc
	commentOwner gin.HandlerFunc
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(cors.New(corsConfig(deps.Config.Server.AllowedOrigins)))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to Blue Whale Protocol API"})
	})
	r.GET("/health", healthCheck)

	if local, ok := deps.Files.(*storage.LocalStore); ok {
		r.Static(deps.Config.Storage.LocalPublicURL, local.Dir())
	}

	g := guards{
		auth:         middleware.RequireAuth(deps.Tokens, deps.Stores.Users),
		optional:     middleware.OptionalAuth(deps.Tokens, deps.Stores.Users),
		self:         middleware.RequireSelf(),
		contentOwner: middleware.RequireContentOwner(deps.Stores.Contents),
		commentOwner: middleware.RequireCommentOwner(deps.Stores.Comments),
	}

	authController := controllers.NewAuthController(deps.Stores, deps.Tokens, deps.Google, deps.Log)
	validationController := controllers.NewValidationController(deps.Stores.Users, deps.Log)
	userController := controllers.NewUserController(deps.Stores, deps.Notifier, deps.Files, deps.Log)
	feedController := controllers.NewFeedController(deps.Stores, deps.Cache, deps.Config.Redis.FeedTTL, deps.Log)
	contentController := controllers.NewContentController(deps.Stores, deps.Files, deps.Cache, deps.Log)
	interactionController := controllers.NewInteractionController(deps.Stores, deps.Notifier, deps.Log)
	commentController := controllers.NewCommentController(deps.Stores, deps.Notifier, deps.Log)
	notificationController := controllers.NewNotificationController(deps.Stores, deps.Cache, deps.Config.Redis.CounterTTL, deps.Log)

	SetupAuthRoutes(r, g, authController)
	SetupValidationRoutes(r, validationController)
	SetupUserRoutes(r, g, userController)
	SetupContentRoutes(r, g, feedController, contentController, interactionController)
	SetupCommentRoutes(r, g, commentController)
	SetupNotificationRoutes(r, g, notificationController)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "bluewhale-api",
	})
}
