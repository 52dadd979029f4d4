package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/eneza-api/internal/middleware"
)

// RouterConfig содержит все, что нужно для сборки маршрутов
type RouterConfig struct {
	AllowedOrigins []string
	Auth           *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
	SubmitLimit    middleware.RateLimitConfig
	Quizzes        *QuizHandler
	Questions      *QuestionHandler
	Videos         *VideoTutorialHandler
	Health         gin.HandlerFunc
}

// NewRouter собирает gin.Engine со всеми маршрутами API
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	health := cfg.Health
	if health == nil {
		health = func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) }
	}
	router.GET("/health", health)

	api := router.Group("/api")
	api.Use(cfg.Auth.RequireAuth())
	{
		videos := api.Group("/videos")
		{
			videos.POST("", cfg.Videos.CreateVideoTutorial)
			videos.GET("/:id", middleware.ExtractUintParam("id", middleware.VideoIDKey), cfg.Videos.GetVideoTutorial)
		}

		quizzes := api.Group("/quizzes")
		{
			quizzes.POST("", cfg.Quizzes.CreateQuiz)
			quizzes.GET("", cfg.Quizzes.ListQuizzes)

			quizWithID := quizzes.Group("/:id")
			quizWithID.Use(middleware.ExtractUintParam("id", middleware.QuizIDKey))
			{
				quizWithID.GET("", cfg.Quizzes.GetQuiz)
				quizWithID.POST("/start", cfg.Quizzes.StartQuiz)
				submit := []gin.HandlerFunc{cfg.Quizzes.SubmitAnswers}
				if cfg.RateLimiter != nil {
					submit = append([]gin.HandlerFunc{cfg.RateLimiter.LimitByUser(cfg.SubmitLimit)}, submit...)
				}
				quizWithID.POST("/submit", submit...)
				quizWithID.POST("/end", cfg.Quizzes.EndQuiz)
				quizWithID.GET("/attempt", cfg.Quizzes.GetMyAttempt)
				quizWithID.GET("/attempts", cfg.Quizzes.ListAttempts)
				quizWithID.GET("/attempts/export", cfg.Quizzes.ExportAttempts)
				quizWithID.GET("/attempts/:user_id",
					middleware.ExtractUintParam("user_id", middleware.TargetUserKey),
					cfg.Quizzes.GetUserAttempt)
				quizWithID.GET("/questions", cfg.Questions.ListQuestions)
				quizWithID.POST("/questions", cfg.Questions.CreateQuestion)
			}
		}

		questions := api.Group("/questions/:id")
		questions.Use(middleware.ExtractUintParam("id", middleware.QuestionIDKey))
		{
			questions.GET("", cfg.Questions.GetQuestion)
			questions.PATCH("", cfg.Questions.UpdateQuestion)
			questions.DELETE("", cfg.Questions.DeleteQuestion)
			questions.POST("/choices", cfg.Questions.AddChoice)
		}

		choices := api.Group("/choices/:id")
		choices.Use(middleware.ExtractUintParam("id", middleware.ChoiceIDKey))
		{
			choices.PATCH("", cfg.Questions.UpdateChoice)
			choices.DELETE("", cfg.Questions.DeleteChoice)
		}
	}

	return router
}
