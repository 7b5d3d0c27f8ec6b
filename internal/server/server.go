package server

import (
	"log"
	"strings"
	"time"

	"linkupserver/internal/config"
	"linkupserver/internal/middleware"
	"linkupserver/pkg/storage"

	articleHttp "linkupserver/internal/modules/article/delivery/http"
	articleRepo "linkupserver/internal/modules/article/repository"
	articleService "linkupserver/internal/modules/article/service"

	connectionHttp "linkupserver/internal/modules/connection/delivery/http"
	connectionRepo "linkupserver/internal/modules/connection/repository"
	connectionService "linkupserver/internal/modules/connection/service"

	notifHttp "linkupserver/internal/modules/notification/delivery/http"
	notifRepo "linkupserver/internal/modules/notification/repository"
	notifService "linkupserver/internal/modules/notification/service"

	profileHttp "linkupserver/internal/modules/profile/delivery/http"
	profileService "linkupserver/internal/modules/profile/service"

	searchHttp "linkupserver/internal/modules/search/delivery/http"
	searchService "linkupserver/internal/modules/search/service"

	userHttp "linkupserver/internal/modules/user/delivery/http"
	userRepo "linkupserver/internal/modules/user/repository"
	userService "linkupserver/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)

	imageStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		// Image uploads degrade to 500s; everything else keeps working.
		log.Printf("cloudinary storage unavailable: %v", err)
		imageStorage = nil
	}

	meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := searchService.NewSearchService(meiliClient)
	searchHandler := searchHttp.NewSearchHandler(searchSvc)

	authSvc := userService.NewAuthService(users, searchSvc, redisClient, cfg.JWTSecret, cfg.TokenTTL)
	authHandler := userHttp.NewAuthHandler(authSvc)

	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc, redisClient)

	connections := connectionRepo.NewConnectionRepository(db)
	connectionSvc := connectionService.NewConnectionService(connections, notificationSvc)
	connectionHandler := connectionHttp.NewConnectionHandler(connectionSvc)

	articles := articleRepo.NewArticleRepository(db)
	articleSvc := articleService.NewArticleService(articles, users, notificationSvc)
	articleHandler := articleHttp.NewArticleHandler(articleSvc)

	profileSvc := profileService.NewProfileService(users, imageStorage, searchSvc)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	router := gin.New()
	setupCORS(router, cfg.AllowedOrigins)
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	api := router.Group("/api")

	// Public routes
	api.POST("/register", authHandler.Register)
	api.POST("/signin", authHandler.Signin)

	// Public profile: anonymous reads count views too, so the viewer
	// identity is optional here.
	api.GET("/users/:uid/profile", authMiddleware.OptionalAuth(), profileHandler.Get)
	api.GET("/users/:uid/articles", articleHandler.ListByUser)

	// Protected routes
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/check", authHandler.Check)

		protected.GET("/users/search", searchHandler.Members)

		protected.GET("/profile", profileHandler.Summary)
		protected.PATCH("/profile", profileHandler.Update)
		protected.POST("/profile/photo", profileHandler.UploadPhoto)
		protected.POST("/profile/background", profileHandler.UploadBackgroundCover)

		protected.GET("/connections", connectionHandler.Overview)
		protected.POST("/connections/:uid", connectionHandler.Request)
		protected.POST("/connections/:uid/accept", connectionHandler.Accept)
		protected.POST("/connections/:uid/refuse", connectionHandler.Refuse)
		protected.POST("/connections/:uid/withdraw", connectionHandler.Withdraw)
		protected.POST("/connections/:uid/remove", connectionHandler.Remove)

		protected.POST("/articles", articleHandler.Create)
		protected.DELETE("/articles/:id", articleHandler.Delete)
		protected.POST("/articles/:id/like", articleHandler.Like)
		protected.POST("/articles/:id/unlike", articleHandler.Unlike)
		protected.POST("/articles/:id/favorite", articleHandler.Favorite)
		protected.POST("/articles/:id/unfavorite", articleHandler.Unfavorite)
		protected.GET("/articles/:id/comments", articleHandler.Comments)
		protected.POST("/articles/:id/comments", articleHandler.AddComment)
		protected.DELETE("/articles/:id/comments/:commentId", articleHandler.DeleteComment)

		protected.GET("/notices", notificationHandler.List)
		protected.GET("/notices/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Engine exposes the router for httptest-based integration tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
