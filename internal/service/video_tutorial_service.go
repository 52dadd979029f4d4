package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	"github.com/yourusername/eneza-api/internal/domain/repository"
	apperrors "github.com/yourusername/eneza-api/internal/pkg/errors"
)

var iframeSrcRe = regexp.MustCompile(`<iframe[^>]+src="([^"]*)"`)

// VideoTutorialInput - данные нового видеоурока
type VideoTutorialInput struct {
	Title       string
	Description string
	VideoLink   string
	EmbedType   string
}

// VideoTutorialService управляет видеоуроками
type VideoTutorialService struct {
	store     repository.Store
	client    *resty.Client
	oembedURL string
	now       func() time.Time
}

// NewVideoTutorialService создает сервис видеоуроков.
// oembedURL - endpoint YouTube oEmbed для ссылок, которые нельзя преобразовать локально.
func NewVideoTutorialService(store repository.Store, oembedURL string, timeout time.Duration) *VideoTutorialService {
	return &VideoTutorialService{
		store:     store,
		client:    resty.New().SetTimeout(timeout),
		oembedURL: oembedURL,
		now:       time.Now,
	}
}

// CreateTutorial проверяет ссылку и сохраняет видеоурок.
// Для YouTube ссылка приводится к виду для встраивания (/embed/...).
func (s *VideoTutorialService) CreateTutorial(ctx context.Context, userID uint, in VideoTutorialInput) (*entity.VideoTutorial, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if !entity.IsValidEmbedType(in.EmbedType) {
		return nil, fmt.Errorf("%w: invalid embed type %q", apperrors.ErrValidation, in.EmbedType)
	}
	parsed, err := url.ParseRequestURI(in.VideoLink)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid url", apperrors.ErrValidation)
	}

	link := in.VideoLink
	if in.EmbedType == entity.EmbedTypeYoutube {
		link, err = s.youtubeEmbedLink(ctx, parsed)
		if err != nil {
			return nil, err
		}
	}

	tutorial := &entity.VideoTutorial{
		Title:       in.Title,
		Description: in.Description,
		VideoLink:   link,
		EmbedType:   in.EmbedType,
	}
	entity.Stamp(tutorial, userID, s.now())
	if err := s.store.VideoTutorials().Create(ctx, tutorial); err != nil {
		return nil, fmt.Errorf("failed to create video tutorial: %w", err)
	}
	return tutorial, nil
}

// GetTutorial возвращает видеоурок по ID
func (s *VideoTutorialService) GetTutorial(ctx context.Context, id uint) (*entity.VideoTutorial, error) {
	tutorial, err := s.store.VideoTutorials().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("video tutorial #%d: %w", id, err)
	}
	return tutorial, nil
}

func isYoutubeHost(host string) bool {
	return strings.Contains(host, "youtube.com") || strings.Contains(host, "youtu.be")
}

// youtubeEmbedLink приводит ссылку YouTube к виду для встраивания
func (s *VideoTutorialService) youtubeEmbedLink(ctx context.Context, u *url.URL) (string, error) {
	if !isYoutubeHost(u.Host) {
		return "", ErrNotYoutubeLink
	}
	if strings.Contains(u.Path, "/embed") {
		return u.String(), nil
	}
	if u.Path == "/watch" {
		if id := u.Query().Get("v"); id != "" {
			return "https://youtube.com/embed/" + id, nil
		}
	}
	return s.resolveOEmbed(ctx, u.String())
}

type oembedResponse struct {
	HTML string `json:"html"`
}

// resolveOEmbed получает iframe через oEmbed и извлекает из него src
func (s *VideoTutorialService) resolveOEmbed(ctx context.Context, link string) (string, error) {
	var result oembedResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"url": link, "format": "json"}).
		SetResult(&result).
		Get(s.oembedURL)
	if err != nil {
		log.Printf("[VideoTutorialService] Ошибка запроса oEmbed для %s: %v", link, err)
		return "", ErrUnresolvableLink
	}
	if resp.StatusCode() != http.StatusOK {
		log.Printf("[VideoTutorialService] oEmbed вернул %d для %s", resp.StatusCode(), link)
		return "", ErrUnresolvableLink
	}

	m := iframeSrcRe.FindStringSubmatch(result.HTML)
	if m == nil {
		return "", ErrUnresolvableLink
	}
	return m[1], nil
}
