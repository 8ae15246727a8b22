package submission

import (
	"context"
	"errors"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/pagination"
	"gorm.io/gorm"
)

// Store persists submissions and their answers.
type Store interface {
	CreateSubmission(ctx context.Context, sub *models.SubmissionModel) error
	CreateAnswers(ctx context.Context, answers []models.AnswerModel) error
	List(ctx context.Context, q pagination.Query) ([]models.SubmissionModel, int64, error)
	Get(ctx context.Context, id string) (*models.SubmissionModel, error)
	Count(ctx context.Context) (int64, error)
	Answers(ctx context.Context) ([]models.AnswerModel, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

const answerBatchSize = 200

func (s *GormStore) CreateSubmission(ctx context.Context, sub *models.SubmissionModel) error {
	return s.db.WithContext(ctx).Omit("Answers").Create(sub).Error
}

func (s *GormStore) CreateAnswers(ctx context.Context, answers []models.AnswerModel) error {
	if len(answers) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Omit("Question").CreateInBatches(answers, answerBatchSize).Error
}

func (s *GormStore) withAnswers(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Answers", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		Preload("Answers.Question")
}

func (s *GormStore) List(ctx context.Context, q pagination.Query) ([]models.SubmissionModel, int64, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	var items []models.SubmissionModel
	err = s.withAnswers(ctx).
		Order("created_at DESC").
		Offset(q.Offset()).
		Limit(q.Size).
		Find(&items).Error
	return items, total, err
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.SubmissionModel, error) {
	var sub models.SubmissionModel
	if err := s.withAnswers(ctx).First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.SubmissionModel{}).Count(&total).Error
	return total, err
}

func (s *GormStore) Answers(ctx context.Context) ([]models.AnswerModel, error) {
	var answers []models.AnswerModel
	err := s.db.WithContext(ctx).Order("submission_id ASC, created_at ASC").Find(&answers).Error
	return answers, err
}
