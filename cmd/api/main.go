package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/eneza-api/internal/config"
	"github.com/yourusername/eneza-api/internal/domain/repository"
	"github.com/yourusername/eneza-api/internal/handler"
	"github.com/yourusername/eneza-api/internal/middleware"
	"github.com/yourusername/eneza-api/internal/repository/memory"
	pgRepo "github.com/yourusername/eneza-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/eneza-api/internal/repository/redis"
	"github.com/yourusername/eneza-api/internal/service"
	"github.com/yourusername/eneza-api/pkg/auth"
	"github.com/yourusername/eneza-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Хранилище
	var store repository.Store
	var db *gorm.DB
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Println("Используется хранилище в памяти (данные не сохраняются между запусками)")
		store = memory.NewStore()
	default:
		logLevel := logger.Warn
		if gin.Mode() != gin.ReleaseMode {
			logLevel = logger.Info
		}
		db, err = database.NewPostgresDB(cfg.Database.PostgresConnectionString(), database.DefaultPoolConfig(), logLevel)
		if err != nil {
			log.Printf("Failed to connect to database: %v", err)
			os.Exit(1)
		}
		if err := database.MigrateDB(db); err != nil {
			log.Printf("Failed to migrate database: %v", err)
			os.Exit(1)
		}
		store = pgRepo.NewStore(db)
	}

	// Кеш: Redis, если настроен, иначе в памяти процесса
	var cacheRepo repository.CacheRepository
	var pingCache func(context.Context) error
	if cfg.Redis.IsConfigured() {
		redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		log.Println("Successfully connected to Redis")

		redisCache, err := redisRepo.NewCacheRepo(redisClient)
		if err != nil {
			log.Printf("Failed to initialize CacheRepo: %v", err)
			os.Exit(1)
		}
		cacheRepo = redisCache
		pingCache = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		log.Println("Redis не настроен, используется кеш в памяти")
		cacheRepo = memory.NewCache()
	}

	// Почта
	emailService, err := newEmailService(cfg.Mail)
	if err != nil {
		log.Printf("Failed to initialize email service: %v", err)
		os.Exit(1)
	}

	// Сервисы
	questionService := service.NewQuestionService(store, cacheRepo, cfg.Quiz.QuestionCacheTTL)
	notificationService := service.NewNotificationService(store, questionService, emailService, cacheRepo,
		cfg.Notification.LockTTL, service.NotificationRetryPolicy{
			MaxFailures: cfg.Notification.MaxFailures,
			Backoff:     cfg.Notification.RetryBackoff,
			MaxBackoff:  cfg.Notification.RetryMaxBackoff,
		})
	attemptService := service.NewAttemptService(store, questionService, notificationService,
		cfg.Notification.SendTimeout, cfg.Quiz.MaxAnswersPerBatch)
	quizService := service.NewQuizService(store)
	videoService := service.NewVideoTutorialService(store, cfg.YouTube.OEmbedURL, cfg.YouTube.Timeout)

	sweeper := service.NewNotificationSweeper(notificationService, cfg.Notification.SweepCron,
		cfg.Notification.SweepBatch, cfg.Notification.SendTimeout)
	if err := sweeper.Start(); err != nil {
		log.Printf("Failed to start notification sweeper: %v", err)
		os.Exit(1)
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	router := handler.NewRouter(handler.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Auth:           middleware.NewAuthMiddleware(jwtService),
		RateLimiter:    middleware.NewRateLimiter(cacheRepo),
		SubmitLimit:    middleware.SubmitRateLimitConfig(cfg.Quiz.SubmitRateLimit, cfg.Quiz.SubmitRateWindow),
		Quizzes:        handler.NewQuizHandler(quizService, attemptService),
		Questions:      handler.NewQuestionHandler(questionService, attemptService),
		Videos:         handler.NewVideoTutorialHandler(videoService),
		Health:         healthHandler(db, pingCache),
	})

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	trusted := []string{"127.0.0.1", "::1"}
	if gin.Mode() == gin.ReleaseMode {
		trusted = nil
	}
	if err := router.SetTrustedProxies(trusted); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	// HTTP сервер с тайм-аутами
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	sweeper.Stop()

	log.Println("Server exited properly")
}

func newEmailService(cfg config.MailConfig) (service.EmailService, error) {
	switch cfg.Provider {
	case config.MailProviderResend:
		resendService, err := service.NewResendEmailService(cfg.ResendAPIKey, cfg.FromEmail)
		if err != nil {
			return nil, err
		}
		return resendService, nil
	case config.MailProviderSendGrid:
		sendGridService, err := service.NewSendGridEmailService(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
		if err != nil {
			return nil, err
		}
		return sendGridService, nil
	default:
		log.Println("Отправка писем отключена (mail.provider=noop)")
		return &service.NoopEmailService{}, nil
	}
}

// healthHandler проверяет доступность БД и Redis, если они используются
func healthHandler(db *gorm.DB, pingCache func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "memory", "cache": "memory"}
		code := http.StatusOK
		if db != nil {
			status["database"] = "ok"
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				status["database"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		if pingCache != nil {
			status["cache"] = "ok"
			if err := pingCache(ctx); err != nil {
				status["cache"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		if code != http.StatusOK {
			status["status"] = "degraded"
		}
		c.JSON(code, status)
	}
}
