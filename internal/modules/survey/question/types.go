package question

import "github.com/mapa-cultural/core/internal/models"

type CreateQuestionDTO struct {
	Label       string           `json:"label"       binding:"required"`
	FieldType   models.FieldType `json:"field_type"  binding:"required"`
	Required    bool             `json:"required"`
	Order       int              `json:"order"`
	Section     *string          `json:"section"`
	Options     []string         `json:"options"`
	MinValue    *int             `json:"min_value"`
	MaxValue    *int             `json:"max_value"`
	Placeholder *string          `json:"placeholder"`
	HasOther    bool             `json:"has_other"`
	OtherLabel  *string          `json:"other_label"`
	MaxLength   *int             `json:"max_length"  binding:"omitempty,min=1"`
	IsActive    *bool            `json:"is_active"`
}

type UpdateQuestionDTO struct {
	Label       *string           `json:"label"`
	FieldType   *models.FieldType `json:"field_type"`
	Required    *bool             `json:"required"`
	Order       *int              `json:"order"`
	Section     *string           `json:"section"`
	Options     *[]string         `json:"options"`
	MinValue    *int              `json:"min_value"`
	MaxValue    *int              `json:"max_value"`
	Placeholder *string           `json:"placeholder"`
	HasOther    *bool             `json:"has_other"`
	OtherLabel  *string           `json:"other_label"`
	MaxLength   *int              `json:"max_length"  binding:"omitempty,min=1"`
	IsActive    *bool             `json:"is_active"`
}

// Section is a named group of questions in display order.
type Section struct {
	Name      string                 `json:"name"`
	Questions []models.QuestionModel `json:"questions"`
}
