package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/sharehub/config"
	"github.com/cppla/sharehub/controllers"
	"github.com/cppla/sharehub/middleware"
	"github.com/cppla/sharehub/services"
	"github.com/cppla/sharehub/storage"
	"github.com/cppla/sharehub/store"
	"github.com/cppla/sharehub/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(st store.Store, files storage.FileStore) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	maxUploadBytes := int64(cfg.MaxUploadMB) << 20
	r.MaxMultipartMemory = 8 << 20

	if cfg.StorageDriver == "" || cfg.StorageDriver == "local" {
		r.Static(cfg.UploadURLPrefix, cfg.UploadDir)
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authService := services.NewAuthService(st)
	postService := services.NewPostService(st, files)
	postService.CascadeComments = cfg.CascadeDeleteComments
	postService.MaxMedia = cfg.MaxMediaFiles
	postService.MaxUploadBytes = maxUploadBytes
	commentService := services.NewCommentService(st)
	userService := services.NewUserService(st, files)
	userService.MaxUploadBytes = maxUploadBytes

	authController := controllers.NewAuthController(authService, services.OAuthProviders(cfg))
	postController := controllers.NewPostController(postService, cfg.MaxPageSize, cfg.CacheTTL())
	commentController := controllers.NewCommentController(commentService)
	userController := controllers.NewUserController(userService)
	statsController := controllers.NewStatsController(userService)

	requireAuth := middleware.AuthRequired(authService)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/me", requireAuth, authController.Me)
	authGroup.POST("/logout", requireAuth, authController.Logout)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)

	postsGroup := api.Group("/posts")
	postsGroup.GET("", postController.ListPosts)
	postsGroup.GET("/search/query", postController.SearchPosts)
	postsGroup.GET("/:id", postController.GetPost)
	postsGroup.POST("", requireAuth, postController.CreatePost)
	postsGroup.PUT("/:id", requireAuth, postController.UpdatePost)
	postsGroup.DELETE("/:id", requireAuth, postController.DeletePost)
	postsGroup.POST("/:id/like", requireAuth, postController.ToggleLike)

	commentsGroup := api.Group("/comments")
	commentsGroup.GET("/post/:postId", commentController.ListComments)
	commentsGroup.POST("", requireAuth, commentController.CreateComment)
	commentsGroup.DELETE("/:id", requireAuth, commentController.DeleteComment)
	commentsGroup.POST("/:id/like", requireAuth, commentController.ToggleLike)

	usersGroup := api.Group("/users")
	usersGroup.PUT("/profile", requireAuth, userController.UpdateProfile)
	usersGroup.POST("/profile/picture", requireAuth, userController.UploadProfilePicture)
	usersGroup.POST("/bookmark/:postId", requireAuth, userController.ToggleBookmark)
	usersGroup.GET("/bookmarks/all", requireAuth, userController.ListBookmarks)
	usersGroup.GET("/:username", userController.GetProfile)

	api.GET("/stats", statsController.GetStats)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, "Route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, "Not found")
	})

	return r
}
