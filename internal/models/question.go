package models

// FieldType tags how a question is rendered and validated.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldYesNo    FieldType = "yes_no"
	FieldScale    FieldType = "scale"
	FieldImage    FieldType = "image"
	FieldCEP      FieldType = "cep"
	FieldSocial   FieldType = "social"
)

// FieldTypes lists every tag the form knows how to render.
var FieldTypes = []FieldType{
	FieldText, FieldTextarea, FieldNumber, FieldSelect, FieldRadio, FieldCheckbox,
	FieldYesNo, FieldScale, FieldImage, FieldCEP, FieldSocial,
}

// Known reports whether t is one of FieldTypes.
func (t FieldType) Known() bool {
	for _, k := range FieldTypes {
		if k == t {
			return true
		}
	}
	return false
}

// IsFreeText reports whether answers of this type are typed by hand (and may be autofilled).
func (t FieldType) IsFreeText() bool {
	return t == FieldText || t == FieldTextarea || t == FieldNumber
}

// QuestionModel is a survey question defined by an administrator.
type QuestionModel struct {
	Base
	Label       string      `json:"label"        gorm:"type:text;not null"`
	FieldType   FieldType   `json:"field_type"   gorm:"type:varchar(32);not null"`
	Required    bool        `json:"required"     gorm:"default:false"`
	Order       int         `json:"order"        gorm:"column:display_order;default:0"`
	Section     *string     `json:"section"      gorm:"type:varchar(191);index"`
	Options     StringArray `json:"options"      gorm:"type:text"`
	MinValue    *int        `json:"min_value"`
	MaxValue    *int        `json:"max_value"`
	Placeholder *string     `json:"placeholder"`
	HasOther    bool        `json:"has_other"    gorm:"default:false"`
	OtherLabel  *string     `json:"other_label"`
	MaxLength   *int        `json:"max_length"`
	IsActive    bool        `json:"is_active"    gorm:"not null;index"`
}

func (QuestionModel) TableName() string { return "questions" }

// SectionName returns the question's section, or fallback when none is set.
func (q QuestionModel) SectionName(fallback string) string {
	if q.Section == nil || *q.Section == "" {
		return fallback
	}
	return *q.Section
}

// SectionOrderModel pins a section to a position in the form.
type SectionOrderModel struct {
	ID      uint   `json:"-"       gorm:"primaryKey;autoIncrement"`
	Section string `json:"section" gorm:"type:varchar(191);uniqueIndex;not null"`
	Order   int    `json:"order"   gorm:"column:display_order;not null"`
}

func (SectionOrderModel) TableName() string { return "section_orders" }
