package container

import (
	"context"
	"fmt"
	"time"

	"bookshelf-api/internal/config"
	"bookshelf-api/internal/infrastructure/cache"
	"bookshelf-api/internal/infrastructure/database"
	"bookshelf-api/pkg/jwt"
	"bookshelf-api/pkg/logger"

	authorHandler "bookshelf-api/internal/domains/author/handler"
	authorRepo "bookshelf-api/internal/domains/author/repository"
	authorService "bookshelf-api/internal/domains/author/service"

	bookHandler "bookshelf-api/internal/domains/book/handler"
	bookRepo "bookshelf-api/internal/domains/book/repository"
	bookService "bookshelf-api/internal/domains/book/service"

	postHandler "bookshelf-api/internal/domains/post/handler"
	postRepo "bookshelf-api/internal/domains/post/repository"
	postService "bookshelf-api/internal/domains/post/service"

	userHandler "bookshelf-api/internal/domains/user/handler"
	userRepo "bookshelf-api/internal/domains/user/repository"
	userService "bookshelf-api/internal/domains/user/service"

	libraryHandler "bookshelf-api/internal/domains/library/handler"
	libraryRepo "bookshelf-api/internal/domains/library/repository"
	libraryService "bookshelf-api/internal/domains/library/service"
)

// Container giữ tất cả dependencies của application
type Container struct {
	// Config
	Config *config.Config

	// Infrastructure
	DB         *database.PostgresDB
	Cache      *cache.RedisCache
	JWTManager *jwt.Manager

	// Repositories
	AuthorRepo  authorRepo.RepositoryInterface
	BookRepo    bookRepo.RepositoryInterface
	PostRepo    postRepo.RepositoryInterface
	UserRepo    userRepo.RepositoryInterface
	LibraryRepo libraryRepo.Repository

	// Services
	AuthorService  authorService.ServiceInterface
	BookService    bookService.ServiceInterface
	PostService    postService.ServiceInterface
	UserService    userService.ServiceInterface
	LibraryService libraryService.Service

	// Handlers
	AuthorHandler  *authorHandler.AuthorHandler
	BookHandler    *bookHandler.Handler
	PostHandler    *postHandler.PostHandler
	UserHandler    *userHandler.UserHandler
	LibraryHandler *libraryHandler.Handler
}

// NewContainer khởi tạo container theo thứ tự:
// Config → DB → Cache → JWT → Repositories → Services → Handlers
func NewContainer() (*Container, error) {
	c := &Container{}

	if err := c.initConfig(); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}
	if err := c.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("Container initialized", map[string]interface{}{
		"env":     c.Config.App.Environment,
		"version": c.Config.App.Version,
	})
	return c, nil
}

func (c *Container) initConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// ========================================
// INFRASTRUCTURE
// ========================================
func (c *Container) initInfrastructure() error {
	dbCfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("load database config: %w", err)
	}

	c.DB = database.NewPostgresDB(dbCfg)
	if err := c.DB.Connect(context.Background()); err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}

	c.Cache = cache.NewRedisCache(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Cache.Connect(ctx); err != nil {
		c.DB.Close()
		return fmt.Errorf("connect redis: %w", err)
	}

	c.JWTManager = jwt.NewManager(
		c.Config.JWT.Secret,
		time.Duration(c.Config.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(c.Config.JWT.RefreshTokenExpiry)*time.Hour,
	)
	return nil
}

// ========================================
// REPOSITORIES
// ========================================
func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.AuthorRepo = authorRepo.NewPostgresRepository(pool, c.Cache)
	c.BookRepo = bookRepo.NewPostgresRepository(pool, c.Cache)
	c.PostRepo = postRepo.NewPostgresRepository(pool)
	c.UserRepo = userRepo.NewPostgresRepository(pool, c.Cache)
	c.LibraryRepo = libraryRepo.NewRepository(pool)
}

// ========================================
// SERVICES
// ========================================
func (c *Container) initServices() {
	c.AuthorService = authorService.NewAuthorService(c.AuthorRepo)
	c.BookService = bookService.NewBookService(c.BookRepo)
	c.PostService = postService.NewPostService(c.PostRepo)
	c.UserService = userService.NewUserService(c.UserRepo, c.Cache, c.JWTManager, userService.Config{
		BcryptCost:       userService.DefaultBcryptCost,
		MaxLoginAttempts: c.Config.Security.MaxLoginAttempts,
		LoginLockout:     c.Config.Security.LoginLockout,
	})
	c.LibraryService = libraryService.NewService(c.LibraryRepo)
}

// ========================================
// HANDLERS
// ========================================
func (c *Container) initHandlers() {
	c.AuthorHandler = authorHandler.NewAuthorHandler(c.AuthorService)
	c.BookHandler = bookHandler.NewHandler(c.BookService)
	c.PostHandler = postHandler.NewPostHandler(c.PostService)
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.LibraryHandler = libraryHandler.NewHandler(c.LibraryService)
}

// Cleanup đóng tất cả connections (gọi khi shutdown)
func (c *Container) Cleanup() {
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			logger.Error("failed to close redis", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	logger.Info("Container cleaned up", nil)
}
