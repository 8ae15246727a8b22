package question

import (
	"context"
	"errors"

	"github.com/mapa-cultural/core/internal/models"
	"gorm.io/gorm"
)

// Store is the persistence the question module needs.
type Store interface {
	ListActive(ctx context.Context) ([]models.QuestionModel, error)
	ListAll(ctx context.Context) ([]models.QuestionModel, error)
	SectionOrders(ctx context.Context) ([]models.SectionOrderModel, error)
	Get(ctx context.Context, id string) (*models.QuestionModel, error)
	Create(ctx context.Context, q *models.QuestionModel) error
	Update(ctx context.Context, id string, updates map[string]interface{}) error
}

// GormStore implements Store on a relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListActive(ctx context.Context) ([]models.QuestionModel, error) {
	var qs []models.QuestionModel
	return qs, s.db.WithContext(ctx).Where("is_active = ?", true).Order("display_order ASC").Find(&qs).Error
}

func (s *GormStore) ListAll(ctx context.Context) ([]models.QuestionModel, error) {
	var qs []models.QuestionModel
	return qs, s.db.WithContext(ctx).Order("display_order ASC").Find(&qs).Error
}

func (s *GormStore) SectionOrders(ctx context.Context) ([]models.SectionOrderModel, error) {
	var rows []models.SectionOrderModel
	return rows, s.db.WithContext(ctx).Order("display_order ASC").Find(&rows).Error
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.QuestionModel, error) {
	var q models.QuestionModel
	if err := s.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (s *GormStore) Create(ctx context.Context, q *models.QuestionModel) error {
	return s.db.WithContext(ctx).Create(q).Error
}

func (s *GormStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&models.QuestionModel{}).Where("id = ?", id).Updates(updates).Error
}
