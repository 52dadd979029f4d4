package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/eneza-api/internal/handler/dto"
	"github.com/yourusername/eneza-api/internal/middleware"
	"github.com/yourusername/eneza-api/internal/service"
)

// VideoTutorialHandler обрабатывает запросы видеоуроков
type VideoTutorialHandler struct {
	videoService *service.VideoTutorialService
}

// NewVideoTutorialHandler создает новый обработчик видеоуроков
func NewVideoTutorialHandler(videoService *service.VideoTutorialService) *VideoTutorialHandler {
	return &VideoTutorialHandler{videoService: videoService}
}

// CreateVideoTutorialRequest представляет запрос на создание видеоурока
type CreateVideoTutorialRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"omitempty,max=5000"`
	VideoLink   string `json:"video_link" binding:"required"`
	EmbedType   string `json:"embed_type" binding:"required"`
}

// CreateVideoTutorial создает видеоурок
func (h *VideoTutorialHandler) CreateVideoTutorial(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateVideoTutorialRequest
	if !bindJSON(c, &req) {
		return
	}

	tutorial, err := h.videoService.CreateTutorial(c.Request.Context(), userID, service.VideoTutorialInput{
		Title:       req.Title,
		Description: req.Description,
		VideoLink:   req.VideoLink,
		EmbedType:   req.EmbedType,
	})
	if err != nil {
		handleServiceError(c, "VideoTutorialHandler", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewVideoTutorialResponse(tutorial))
}

// GetVideoTutorial возвращает видеоурок
func (h *VideoTutorialHandler) GetVideoTutorial(c *gin.Context) {
	videoID := c.MustGet(middleware.VideoIDKey).(uint)

	tutorial, err := h.videoService.GetTutorial(c.Request.Context(), videoID)
	if err != nil {
		handleServiceError(c, "VideoTutorialHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewVideoTutorialResponse(tutorial))
}
