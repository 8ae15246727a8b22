package post

import (
	"context"
	"errors"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/pagination"
	"gorm.io/gorm"
)

// Store is the persistence the post module needs.
type Store interface {
	List(ctx context.Context, q pagination.Query, status string) ([]models.InstagramPostModel, int64, error)
	Get(ctx context.Context, id string) (*models.InstagramPostModel, error)
	Create(ctx context.Context, p *models.InstagramPostModel) error
	Save(ctx context.Context, p *models.InstagramPostModel) error
	Delete(ctx context.Context, id string) (bool, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) List(ctx context.Context, q pagination.Query, status string) ([]models.InstagramPostModel, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.InstagramPostModel{})
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []models.InstagramPostModel
	err := tx.Order("created_at DESC").
		Offset(q.Offset()).
		Limit(q.Size).
		Find(&posts).Error
	return posts, total, err
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.InstagramPostModel, error) {
	var p models.InstagramPostModel
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) Create(ctx context.Context, p *models.InstagramPostModel) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) Save(ctx context.Context, p *models.InstagramPostModel) error {
	return s.db.WithContext(ctx).Save(p).Error
}

func (s *GormStore) Delete(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&models.InstagramPostModel{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}
