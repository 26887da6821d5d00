package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/schoolhealth-notify/internal/config"
	"github.com/yourorg/schoolhealth-notify/internal/handler"
	"github.com/yourorg/schoolhealth-notify/internal/kafka"
	"github.com/yourorg/schoolhealth-notify/internal/middleware"
	"github.com/yourorg/schoolhealth-notify/internal/repository"
	"github.com/yourorg/schoolhealth-notify/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Open the store
	db, err := repository.OpenStore(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Kafka producer (if enabled)
	var producer *kafka.Producer
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info("Initialized Kafka producer",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	// Create repositories
	userRepo := repository.NewUserRepository(db, logger)
	notificationRepo := repository.NewNotificationRepository(db, logger)

	// Create services
	authService := service.NewAuthService(userRepo, cfg, logger)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, producer, logger)

	// Seed default accounts so the watcher can log in out of the box
	if err := seedUsers(userRepo, logger); err != nil {
		logger.Fatal("Failed to seed users", zap.Error(err))
	}

	router := setupRouter(authService, notificationService, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if producer != nil {
		producer.Close()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func seedUsers(userRepo *repository.UserRepository, logger *zap.Logger) error {
	ctx := context.Background()

	seeds := []struct {
		email, name, role, password string
	}{
		{"admin@school.local", "Quản trị viên", "admin", "admin123"},
		{"nurse@school.local", "Y tá trường", "nurse", "nurse123"},
		{"guardian@school.local", "Phụ huynh", "guardian", "guardian123"},
	}

	for _, s := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		id, err := userRepo.Create(ctx, s.email, s.name, s.role, string(hash))
		if err != nil {
			return err
		}
		logger.Debug("seeded user", zap.String("email", s.email), zap.Int("id", id))
	}

	return nil
}

func setupRouter(
	authService *service.AuthService,
	notificationService *service.NotificationService,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	authHandler := handler.NewAuthHandler(authService, logger)
	notifHandler := handler.NewNotificationHandler(notificationService, logger)

	auth := router.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	notify := router.Group("/notify")
	{
		notify.Use(middleware.AuthMiddleware(authService, logger))

		notify.GET("/user/:userId", notifHandler.GetUserNotifications)
		notify.PUT("/mark-read", notifHandler.MarkRead)

		// Ingestion point for domain events (admin only)
		notify.POST("", middleware.RequireRole("admin"), notifHandler.CreateNotification)
	}

	return router
}
