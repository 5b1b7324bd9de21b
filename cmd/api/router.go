package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bookshelf-api/internal/shared/middleware"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/response"
	"bookshelf-api/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = true

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		middleware.CORS(c.Config.Security.AllowedOrigins),
		middleware.ClientIPMiddleware(),
		middleware.Authenticate(c.JWTManager),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c.Config.App.Version, healthChecks(c), poolStats(c)))
		v1.GET("/metrics", gin.WrapH(promhttp.Handler()))

		setupAuthRoutes(v1, c)
		setupUserRoutes(v1, c)
		setupAdminRoutes(v1, c)
		setupAuthorRoutes(v1, c)
		setupBookRoutes(v1, c)
		setupPostRoutes(v1, c)
		setupLibraryRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/refresh", c.UserHandler.Refresh)
	}
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container) {
	users := v1.Group("/users")
	users.Use(middleware.RequireAuth())
	{
		users.GET("/me", c.UserHandler.GetMe)
		users.PATCH("/me", c.UserHandler.UpdateMe)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(middleware.RequireRole(permission.RoleAdmin))
	{
		admin.GET("/users", c.UserHandler.ListUsers)
		admin.PATCH("/users/:id/role", c.UserHandler.UpdateUserRole)
	}
}

// ========================================
// AUTHOR ROUTES
// ========================================
func setupAuthorRoutes(v1 *gin.RouterGroup, c *container.Container) {
	author := v1.Group("/authors")
	{
		author.GET("", c.AuthorHandler.List)
		author.GET("/:id", c.AuthorHandler.Get)
		author.POST("", c.AuthorHandler.Create)
		author.PUT("/:id", c.AuthorHandler.Replace)
		author.PATCH("/:id", c.AuthorHandler.Patch)
		author.DELETE("/:id", c.AuthorHandler.Delete)
	}
}

// ========================================
// BOOK ROUTES
// ========================================
func setupBookRoutes(v1 *gin.RouterGroup, c *container.Container) {
	book := v1.Group("/books")
	{
		book.GET("", c.BookHandler.ListBooks)
		book.GET("/export", c.BookHandler.ExportBooks)
		book.GET("/:id", c.BookHandler.GetBook)
		book.POST("", c.BookHandler.CreateBook)
		book.PUT("/:id", c.BookHandler.ReplaceBook)
		book.PATCH("/:id", c.BookHandler.PatchBook)
		book.DELETE("/:id", c.BookHandler.DeleteBook)
	}
}

// ========================================
// POST + COMMENT ROUTES
// ========================================
func setupPostRoutes(v1 *gin.RouterGroup, c *container.Container) {
	post := v1.Group("/posts")
	{
		post.GET("", c.PostHandler.ListPosts)
		post.GET("/:id", c.PostHandler.GetPost)
		post.POST("", c.PostHandler.CreatePost)
		post.PUT("/:id", c.PostHandler.ReplacePost)
		post.PATCH("/:id", c.PostHandler.PatchPost)
		post.DELETE("/:id", c.PostHandler.DeletePost)

		post.GET("/:id/comments", c.PostHandler.ListComments)
		post.POST("/:id/comments", c.PostHandler.CreateComment)
		post.PATCH("/:id/comments/:commentID", c.PostHandler.UpdateComment)
		post.DELETE("/:id/comments/:commentID", c.PostHandler.DeleteComment)
	}
}

// ========================================
// LIBRARY ROUTES
// ========================================
// Role/permission check chi tiết nằm trong library service
func setupLibraryRoutes(v1 *gin.RouterGroup, c *container.Container) {
	library := v1.Group("/libraries")
	library.Use(middleware.RequireAuth())
	{
		library.GET("", c.LibraryHandler.ListLibraries)
		library.GET("/:id", c.LibraryHandler.GetLibrary)
		library.POST("", c.LibraryHandler.CreateLibrary)
		library.DELETE("/:id", c.LibraryHandler.DeleteLibrary)
		library.PUT("/:id/librarian", c.LibraryHandler.AssignLibrarian)
		library.POST("/:id/books", c.LibraryHandler.AddBooks)
		library.DELETE("/:id/books/:bookID", c.LibraryHandler.RemoveBook)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================

// pinger là phần chung của PostgresDB và RedisCache mà /health cần
type pinger interface {
	Ping(ctx context.Context) error
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var errNotInitialized = errors.New("not initialized")

func healthChecks(c *container.Container) map[string]pinger {
	checks := map[string]pinger{
		"database": pingFunc(func(context.Context) error { return errNotInitialized }),
		"redis":    pingFunc(func(context.Context) error { return errNotInitialized }),
	}
	if c.DB != nil {
		checks["database"] = pingFunc(c.DB.HealthCheck)
	}
	if c.Cache != nil {
		checks["redis"] = c.Cache
	}
	return checks
}

// statsFunc trả về snapshot của DB pool cho /health, nil khi chưa có DB
type statsFunc func() (interface{}, error)

func poolStats(c *container.Container) statsFunc {
	if c.DB == nil {
		return nil
	}
	return func() (interface{}, error) { return c.DB.Stats() }
}

func healthCheckHandler(version string, checks map[string]pinger, stats statsFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		healthy := true
		services := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				services[name] = "error: " + err.Error()
				healthy = false
				continue
			}
			services[name] = "ok"
		}

		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   version,
			"services":  services,
		}
		if stats != nil {
			if snapshot, err := stats(); err == nil {
				health["database_pool"] = snapshot
			}
		}

		if !healthy {
			health["status"] = "degraded"
			response.ErrorWithDetails(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service unavailable", health)
			return
		}
		response.Success(c, http.StatusOK, "Service healthy", health)
	}
}
