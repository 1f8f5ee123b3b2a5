package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dchat/internal/api"
	"dchat/internal/config"
	"dchat/internal/db"
	"dchat/internal/middleware"
	"dchat/internal/observ"
	"dchat/internal/realtime"
	"dchat/internal/repository/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup has no request deadline; take as long as the database needs.
	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	rdb := db.NewRedisClient(cfg.RedisURL, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	pool := database.Pool()
	userRepo := postgres.NewUserStore(pool)
	chatRepo := postgres.NewChatStore(pool)
	messageRepo := postgres.NewMessageStore(pool)
	activityRepo := postgres.NewActivityStore(pool)

	// The registry is constructed once here and torn down at server stop;
	// every handler that needs fan-out gets this instance.
	registry := realtime.NewRegistry(logger)
	defer registry.Shutdown()

	authHandler := api.NewAuthHandler(userRepo, activityRepo, cfg.JWTSecret, cfg.TokenTTL, logger)
	chatHandler := api.NewChatHandler(chatRepo, userRepo, logger)
	activityHandler := api.NewActivityHandler(activityRepo, logger)
	socketHandler := api.NewSocketHandler(registry, userRepo, chatRepo, messageRepo, activityRepo, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Health stays public so load balancers can probe it.
	router.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/v1/auth")
	authGroup.Use(middleware.RateLimit(rdb, cfg.AuthRateLimit, cfg.AuthRateWindow, logger))
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret, userRepo))
	v1.GET("/chats", chatHandler.List)
	v1.POST("/chats", chatHandler.Start)
	v1.DELETE("/chats/:id", chatHandler.Delete)
	v1.GET("/ws", socketHandler.Handle)
	v1.GET("/activity", middleware.RequireAdmin(), activityHandler.List)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting dchat",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	// Close live sessions first so their receive loops unwind, then drain
	// in-flight HTTP requests.
	registry.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
