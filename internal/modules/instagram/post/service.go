package post

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/instagram"
	"github.com/mapa-cultural/core/internal/pkg/mail"
	"github.com/mapa-cultural/core/internal/pkg/metrics"
	"github.com/mapa-cultural/core/internal/pkg/pagination"
	"go.uber.org/zap"
)

var (
	ErrAlreadyPublished = errors.New("post já publicado")
	ErrInvalidPost      = errors.New("post inválido")
)

// Notifier announces a published post.
type Notifier interface {
	SendPostPublished(ctx context.Context, to []string, data mail.PostPublishedData) error
}

type CreatePostDTO struct {
	Template      models.PostTemplate `json:"template"          binding:"required,oneof=artist carousel announcement"`
	Slides        []models.Slide      `json:"slides"            binding:"omitempty,max=10,dive"`
	Title         string              `json:"title"             binding:"max=200"`
	Subtitle      string              `json:"subtitle"          binding:"max=200"`
	Description   string              `json:"description"`
	CTA           string              `json:"cta"               binding:"max=120"`
	Caption       string              `json:"caption"           binding:"max=2200"`
	Hashtags      []string            `json:"hashtags"          binding:"max=30"`
	ArtistName    string              `json:"artist_name"       binding:"max=200"`
	ArtistBio     string              `json:"artist_bio"`
	ArtisticLang  string              `json:"artistic_language" binding:"max=120"`
	PhotoURL      string              `json:"photo_url"         binding:"omitempty,url"`
	SocialHandles []string            `json:"social_handles"`
}

type UpdatePostDTO struct {
	Template      *models.PostTemplate `json:"template"          binding:"omitempty,oneof=artist carousel announcement"`
	Slides        *[]models.Slide      `json:"slides"            binding:"omitempty,max=10,dive"`
	Title         *string              `json:"title"             binding:"omitempty,max=200"`
	Subtitle      *string              `json:"subtitle"          binding:"omitempty,max=200"`
	Description   *string              `json:"description"`
	CTA           *string              `json:"cta"               binding:"omitempty,max=120"`
	Caption       *string              `json:"caption"           binding:"omitempty,max=2200"`
	Hashtags      *[]string            `json:"hashtags"          binding:"omitempty,max=30"`
	ArtistName    *string              `json:"artist_name"       binding:"omitempty,max=200"`
	ArtistBio     *string              `json:"artist_bio"`
	ArtisticLang  *string              `json:"artistic_language" binding:"omitempty,max=120"`
	PhotoURL      *string              `json:"photo_url"         binding:"omitempty,url"`
	SocialHandles *[]string            `json:"social_handles"`
}

type Service struct {
	store     Store
	publisher instagram.Publisher
	notifier  Notifier
	notifyTo  []string
	log       *zap.Logger
	now       func() time.Time
}

func NewService(store Store, publisher instagram.Publisher, notifier Notifier, notifyTo []string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		notifyTo:  notifyTo,
		log:       log,
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context, q pagination.Query, status string) ([]models.InstagramPostModel, int64, error) {
	return s.store.List(ctx, q, status)
}

func (s *Service) Get(ctx context.Context, id string) (*models.InstagramPostModel, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, dto *CreatePostDTO) (*models.InstagramPostModel, error) {
	p := &models.InstagramPostModel{
		Template:      dto.Template,
		Slides:        dto.Slides,
		Title:         strings.TrimSpace(dto.Title),
		Subtitle:      strings.TrimSpace(dto.Subtitle),
		Description:   dto.Description,
		CTA:           strings.TrimSpace(dto.CTA),
		Caption:       dto.Caption,
		Hashtags:      cleanList(dto.Hashtags),
		ArtistName:    strings.TrimSpace(dto.ArtistName),
		ArtistBio:     dto.ArtistBio,
		ArtisticLang:  strings.TrimSpace(dto.ArtisticLang),
		PhotoURL:      strings.TrimSpace(dto.PhotoURL),
		SocialHandles: cleanList(dto.SocialHandles),
		Status:        models.PostStatusDraft,
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies the non-nil fields. Changing the content of a generated post
// keeps its images until the next generate call.
func (s *Service) Update(ctx context.Context, id string, dto *UpdatePostDTO) (*models.InstagramPostModel, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	if dto.Template != nil {
		p.Template = *dto.Template
	}
	if dto.Slides != nil {
		p.Slides = *dto.Slides
	}
	setTrimmed(&p.Title, dto.Title)
	setTrimmed(&p.Subtitle, dto.Subtitle)
	if dto.Description != nil {
		p.Description = *dto.Description
	}
	setTrimmed(&p.CTA, dto.CTA)
	if dto.Caption != nil {
		p.Caption = *dto.Caption
	}
	if dto.Hashtags != nil {
		p.Hashtags = cleanList(*dto.Hashtags)
	}
	setTrimmed(&p.ArtistName, dto.ArtistName)
	if dto.ArtistBio != nil {
		p.ArtistBio = *dto.ArtistBio
	}
	setTrimmed(&p.ArtisticLang, dto.ArtisticLang)
	setTrimmed(&p.PhotoURL, dto.PhotoURL)
	if dto.SocialHandles != nil {
		p.SocialHandles = cleanList(*dto.SocialHandles)
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.store.Delete(ctx, id)
}

// Publish sends the generated images to Instagram and records the result.
// Returns nil, nil when the post does not exist.
func (s *Service) Publish(ctx context.Context, id string) (_ *models.InstagramPostModel, err error) {
	defer func() {
		metrics.Publishes.WithLabelValues(metrics.Outcome(err)).Inc()
	}()

	p, err := s.store.Get(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	if p.Status == models.PostStatusPublished {
		return nil, ErrAlreadyPublished
	}
	if len(p.ImageURLs) == 0 {
		return nil, instagram.ErrNoImages
	}
	if s.publisher == nil {
		return nil, instagram.ErrNotConfigured
	}

	res, err := s.publisher.Publish(ctx, p.ImageURLs, p.FullCaption())
	if err != nil {
		return nil, err
	}

	publishedAt := s.now()
	p.Status = models.PostStatusPublished
	p.ExternalPostID = &res.MediaID
	if res.Permalink != "" {
		permalink := res.Permalink
		p.Permalink = &permalink
	}
	p.PublishedAt = &publishedAt
	if err := s.store.Save(ctx, p); err != nil {
		s.log.Error("post published but not recorded",
			zap.String("post_id", p.ID),
			zap.String("media_id", res.MediaID),
			zap.Error(err),
		)
		return nil, err
	}

	s.notify(ctx, p)
	return p, nil
}

func (s *Service) notify(ctx context.Context, p *models.InstagramPostModel) {
	if s.notifier == nil || len(s.notifyTo) == 0 {
		return
	}
	data := mail.PostPublishedData{
		Title:       p.Title,
		Caption:     p.FullCaption(),
		PublishedAt: p.PublishedAt.Format("02/01/2006 15:04"),
	}
	if data.Title == "" {
		data.Title = p.ArtistName
	}
	if len(p.ImageURLs) > 0 {
		data.ImageURL = p.ImageURLs[0]
	}
	if p.Permalink != nil {
		data.Permalink = *p.Permalink
	}
	if err := s.notifier.SendPostPublished(ctx, s.notifyTo, data); err != nil {
		s.log.Warn("post published notification failed", zap.String("post_id", p.ID), zap.Error(err))
	}
}

func validate(p *models.InstagramPostModel) error {
	switch p.Template {
	case models.TemplateArtist:
		if p.ArtistName == "" {
			return fmt.Errorf("%w: artist_name é obrigatório", ErrInvalidPost)
		}
	case models.TemplateCarousel:
		if len(p.Slides) == 0 {
			return fmt.Errorf("%w: carrossel precisa de ao menos um slide", ErrInvalidPost)
		}
		if len(p.Slides) > instagram.MaxCarouselItems {
			return fmt.Errorf("%w: %w", ErrInvalidPost, instagram.ErrTooManyImages)
		}
	case models.TemplateAnnouncement:
		if p.Title == "" {
			return fmt.Errorf("%w: title é obrigatório", ErrInvalidPost)
		}
	default:
		return fmt.Errorf("%w: template desconhecido", ErrInvalidPost)
	}
	return nil
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func cleanList(items []string) models.StringArray {
	out := make(models.StringArray, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
