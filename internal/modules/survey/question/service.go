package question

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mapa-cultural/core/internal/models"
	"go.uber.org/zap"
)

var ErrInvalidQuestion = errors.New("invalid question")

type Service struct {
	store    Store
	cache    *Cache
	log      *zap.Logger
	onChange []func(context.Context)
}

func NewService(store Store, cache *Cache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, cache: cache, log: log}
}

// OnChange registers a hook run after every admin write, after the cache is invalidated.
func (s *Service) OnChange(fn func(context.Context)) {
	s.onChange = append(s.onChange, fn)
}

// Active returns the public schema.
func (s *Service) Active(ctx context.Context) ([]models.QuestionModel, error) {
	return s.cache.Get(ctx)
}

// ListAll returns every question, inactive included, in display order.
func (s *Service) ListAll(ctx context.Context) ([]models.QuestionModel, error) {
	questions, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.store.SectionOrders(ctx)
	if err != nil {
		return nil, err
	}
	return SortQuestions(questions, orders, s.cache.CatchAll()), nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.QuestionModel, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, dto *CreateQuestionDTO) (*models.QuestionModel, error) {
	q := models.QuestionModel{
		Label:       strings.TrimSpace(dto.Label),
		FieldType:   models.FieldType(strings.TrimSpace(string(dto.FieldType))),
		Required:    dto.Required,
		Order:       dto.Order,
		Section:     normalizeSection(dto.Section),
		Options:     cleanOptions(dto.Options),
		MinValue:    dto.MinValue,
		MaxValue:    dto.MaxValue,
		Placeholder: dto.Placeholder,
		HasOther:    dto.HasOther,
		OtherLabel:  dto.OtherLabel,
		MaxLength:   dto.MaxLength,
		IsActive:    true,
	}
	if dto.IsActive != nil {
		q.IsActive = *dto.IsActive
	}
	if err := validateQuestion(&q); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, &q); err != nil {
		return nil, err
	}
	s.changed(ctx)
	return &q, nil
}

func (s *Service) Update(ctx context.Context, id string, dto *UpdateQuestionDTO) (*models.QuestionModel, error) {
	q, err := s.store.Get(ctx, id)
	if err != nil || q == nil {
		return q, err
	}

	updates := map[string]interface{}{}
	if dto.Label != nil {
		q.Label = strings.TrimSpace(*dto.Label)
		updates["label"] = q.Label
	}
	if dto.FieldType != nil {
		q.FieldType = models.FieldType(strings.TrimSpace(string(*dto.FieldType)))
		updates["field_type"] = q.FieldType
	}
	if dto.Required != nil {
		q.Required = *dto.Required
		updates["required"] = q.Required
	}
	if dto.Order != nil {
		q.Order = *dto.Order
		updates["display_order"] = q.Order
	}
	if dto.Section != nil {
		q.Section = normalizeSection(dto.Section)
		updates["section"] = q.Section
	}
	if dto.Options != nil {
		q.Options = cleanOptions(*dto.Options)
		updates["options"] = q.Options
	}
	if dto.MinValue != nil {
		q.MinValue = dto.MinValue
		updates["min_value"] = *dto.MinValue
	}
	if dto.MaxValue != nil {
		q.MaxValue = dto.MaxValue
		updates["max_value"] = *dto.MaxValue
	}
	if dto.Placeholder != nil {
		q.Placeholder = dto.Placeholder
		updates["placeholder"] = *dto.Placeholder
	}
	if dto.HasOther != nil {
		q.HasOther = *dto.HasOther
		updates["has_other"] = q.HasOther
	}
	if dto.OtherLabel != nil {
		q.OtherLabel = dto.OtherLabel
		updates["other_label"] = *dto.OtherLabel
	}
	if dto.MaxLength != nil {
		q.MaxLength = dto.MaxLength
		updates["max_length"] = *dto.MaxLength
	}
	if dto.IsActive != nil {
		q.IsActive = *dto.IsActive
		updates["is_active"] = q.IsActive
	}
	if len(updates) == 0 {
		return q, nil
	}
	if err := validateQuestion(q); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	s.changed(ctx)
	return q, nil
}

// Deactivate hides a question from the form. Answered questions are never deleted.
func (s *Service) Deactivate(ctx context.Context, id string) (bool, error) {
	q, err := s.store.Get(ctx, id)
	if err != nil || q == nil {
		return false, err
	}
	if err := s.store.Update(ctx, id, map[string]interface{}{"is_active": false}); err != nil {
		return false, err
	}
	s.changed(ctx)
	return true, nil
}

func (s *Service) changed(ctx context.Context) {
	s.cache.Invalidate()
	for _, fn := range s.onChange {
		fn(ctx)
	}
}

func validateQuestion(q *models.QuestionModel) error {
	if q.Label == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidQuestion)
	}
	if !q.FieldType.Known() {
		return fmt.Errorf("%w: unknown field type %q", ErrInvalidQuestion, q.FieldType)
	}
	switch q.FieldType {
	case models.FieldSelect, models.FieldRadio:
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: %s requires at least one option", ErrInvalidQuestion, q.FieldType)
		}
	case models.FieldScale:
		lo, hi := 1, 5
		if q.MinValue != nil {
			lo = *q.MinValue
		}
		if q.MaxValue != nil {
			hi = *q.MaxValue
		}
		if lo >= hi {
			return fmt.Errorf("%w: scale min must be lower than max", ErrInvalidQuestion)
		}
	}
	return nil
}

func normalizeSection(section *string) *string {
	if section == nil {
		return nil
	}
	s := strings.TrimSpace(*section)
	if s == "" {
		return nil
	}
	return &s
}

func cleanOptions(options []string) models.StringArray {
	out := make(models.StringArray, 0, len(options))
	seen := map[string]bool{}
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}
