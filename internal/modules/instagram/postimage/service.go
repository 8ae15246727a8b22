package postimage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/metrics"
	"github.com/mapa-cultural/core/internal/pkg/renderer"
	"github.com/mapa-cultural/core/internal/pkg/storage"
	"go.uber.org/zap"
)

var (
	ErrPublished    = errors.New("post já publicado não pode ser regerado")
	ErrSlideOutside = errors.New("slide fora do intervalo")
)

const folder = "posts"

// PostStore is the slice of post persistence generation needs.
type PostStore interface {
	Get(ctx context.Context, id string) (*models.InstagramPostModel, error)
	Save(ctx context.Context, p *models.InstagramPostModel) error
}

type Service struct {
	posts   PostStore
	raster  renderer.Rasterizer
	uploads storage.Storage
	width   int
	height  int
	log     *zap.Logger
	now     func() time.Time
}

func NewService(posts PostStore, raster renderer.Rasterizer, uploads storage.Storage, width, height int, log *zap.Logger) *Service {
	if width <= 0 {
		width = renderer.DefaultWidth
	}
	if height <= 0 {
		height = renderer.DefaultHeight
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		posts:   posts,
		raster:  raster,
		uploads: uploads,
		width:   width,
		height:  height,
		log:     log,
		now:     time.Now,
	}
}

// Render rasterizes one document and records the render metrics.
func (s *Service) Render(ctx context.Context, doc string) (png []byte, err error) {
	start := time.Now()
	defer func() {
		metrics.PostRenders.WithLabelValues(metrics.Outcome(err)).Inc()
		metrics.RenderDuration.Observe(time.Since(start).Seconds())
	}()
	return s.raster.Render(ctx, doc)
}

// Preview renders a single image of an unsaved post. slide is 0-based and only
// meaningful for carousels.
func (s *Service) Preview(ctx context.Context, p *models.InstagramPostModel, slide int) ([]byte, error) {
	docs, err := BuildDocuments(p, s.width, s.height)
	if err != nil {
		return nil, err
	}
	if slide < 0 || slide >= len(docs) {
		return nil, ErrSlideOutside
	}
	return s.Render(ctx, docs[slide])
}

// Generate renders every image of the post, uploads them and stores the URLs.
// Nothing is written to the post unless every image rendered and uploaded.
// Returns nil, nil when the post does not exist.
func (s *Service) Generate(ctx context.Context, id string) (*models.InstagramPostModel, error) {
	p, err := s.posts.Get(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	if p.Status == models.PostStatusPublished {
		return nil, ErrPublished
	}

	docs, err := BuildDocuments(p, s.width, s.height)
	if err != nil {
		return nil, err
	}

	now := s.now()
	urls := make(models.StringArray, 0, len(docs))
	for i, doc := range docs {
		png, err := s.Render(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("render image %d/%d: %w", i+1, len(docs), err)
		}
		key := storage.ObjectKey(folder, fmt.Sprintf("%s-%d.png", p.ID, i+1), now)
		url, err := s.uploads.Put(ctx, key, png, "image/png")
		if err != nil {
			return nil, fmt.Errorf("upload image %d/%d: %w", i+1, len(docs), err)
		}
		urls = append(urls, url)
	}

	p.ImageURLs = urls
	if err := s.posts.Save(ctx, p); err != nil {
		s.log.Error("post images uploaded but not recorded", zap.String("post_id", p.ID), zap.Strings("urls", urls), zap.Error(err))
		return nil, err
	}
	s.log.Info("post images generated", zap.String("post_id", p.ID), zap.Int("images", len(urls)))
	return p, nil
}
