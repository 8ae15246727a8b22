package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mapa-cultural/core/internal/models"
)

// ConsentField is the fixed form key that must be true for any submission.
const ConsentField = "consent"

// Yes/no/undisclosed tokens.
const (
	YesToken          = "sim"
	NoToken           = "nao"
	UndisclosedToken  = "prefiro_nao_dizer"
	defaultScaleMin   = 1
	defaultScaleMax   = 5
	cepMinLen         = 8
	cepMaxLen         = 9
	yesNoOneOfTag     = "oneof=" + YesToken + " " + NoToken + " " + UndisclosedToken
	errValueTypeTag   = "type"
	errConsentMissing = "consent"
)

// YesNoTokens lists the accepted yes/no answers in display order.
var YesNoTokens = []string{YesToken, NoToken, UndisclosedToken}

// Kind is the validation family a field type compiles to.
type Kind string

const (
	KindText     Kind = "text"
	KindNumber   Kind = "number"
	KindYesNo    Kind = "yes_no"
	KindCheckbox Kind = "checkbox"
	KindScale    Kind = "scale"
	KindImage    Kind = "image"
	KindCEP      Kind = "cep"
)

// Rule is the compiled validation of one question.
type Rule struct {
	Field    string           `json:"field"`
	Label    string           `json:"label"`
	Declared models.FieldType `json:"declared"`
	Kind     Kind             `json:"kind"`
	Required bool             `json:"required"`
	Min      int              `json:"min,omitempty"`
	Max      int              `json:"max,omitempty"`
	Tag      string           `json:"tag"`
	// Unknown marks a field type the builder does not recognize; it is validated as text.
	Unknown bool `json:"unknown,omitempty"`
}

// Schema validates a flat map of form values keyed by question id.
type Schema struct {
	Rules []Rule
}

// FieldErrors maps a field key to a user-facing message.
type FieldErrors map[string]string

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Build compiles questions into a Schema.
func Build(questions []models.QuestionModel) *Schema {
	rules := make([]Rule, 0, len(questions))
	for _, q := range questions {
		rules = append(rules, compile(q))
	}
	return &Schema{Rules: rules}
}

func compile(q models.QuestionModel) Rule {
	r := Rule{Field: q.ID, Label: q.Label, Declared: q.FieldType, Required: q.Required}
	switch q.FieldType {
	case models.FieldText, models.FieldTextarea:
		r.Kind, r.Tag = KindText, textTag(q.Required)
	case models.FieldNumber:
		r.Kind = KindNumber
		if q.Required {
			r.Tag = "required,numeric"
		} else {
			r.Tag = "omitempty,numeric"
		}
	case models.FieldYesNo:
		r.Kind, r.Tag = KindYesNo, yesNoOneOfTag
	case models.FieldCheckbox:
		r.Kind, r.Tag = KindCheckbox, "boolean"
	case models.FieldScale:
		r.Kind = KindScale
		r.Min, r.Max = defaultScaleMin, defaultScaleMax
		if q.MinValue != nil {
			r.Min = *q.MinValue
		}
		if q.MaxValue != nil {
			r.Max = *q.MaxValue
		}
		r.Tag = fmt.Sprintf("gte=%d,lte=%d", r.Min, r.Max)
	case models.FieldImage:
		r.Kind = KindImage
		if q.Required {
			r.Tag = "required,url"
		} else {
			r.Tag = "omitempty"
		}
	case models.FieldCEP:
		r.Kind = KindCEP
		if q.Required {
			r.Tag = fmt.Sprintf("required,min=%d,max=%d", cepMinLen, cepMaxLen)
		} else {
			r.Tag = "omitempty"
		}
	case models.FieldSelect, models.FieldRadio, models.FieldSocial:
		r.Kind, r.Tag = KindText, textTag(q.Required)
	default:
		r.Kind, r.Tag, r.Unknown = KindText, textTag(q.Required), true
	}
	return r
}

func textTag(required bool) string {
	if required {
		return "required"
	}
	return "omitempty"
}

// Unknown returns the rules whose declared field type was not recognized.
func (s *Schema) Unknown() []Rule {
	var out []Rule
	for _, r := range s.Rules {
		if r.Unknown {
			out = append(out, r)
		}
	}
	return out
}

// Rule returns the rule for a field key.
func (s *Schema) Rule(field string) (Rule, bool) {
	for _, r := range s.Rules {
		if r.Field == field {
			return r, true
		}
	}
	return Rule{}, false
}

// Validate checks every rule and the consent flag. An empty result means the values are valid.
func (s *Schema) Validate(values map[string]interface{}) FieldErrors {
	errs := FieldErrors{}
	for _, r := range s.Rules {
		if msg := r.Check(values[r.Field]); msg != "" {
			errs[r.Field] = msg
		}
	}
	if !consentGiven(values[ConsentField]) {
		errs[ConsentField] = messageFor(errConsentMissing, Rule{})
	}
	return errs
}

// Check validates a single value and returns a message, or "" when it passes.
func (r Rule) Check(value interface{}) string {
	switch r.Kind {
	case KindCheckbox:
		switch v := value.(type) {
		case bool:
			return ""
		case string:
			return r.run(v)
		default:
			return messageFor(errValueTypeTag, r)
		}
	case KindScale:
		n, ok := toFloat(value)
		if !ok {
			if value == nil || value == "" {
				return messageFor("required", r)
			}
			return messageFor("numeric", r)
		}
		return r.run(n)
	case KindNumber:
		s, ok := numberString(value)
		if !ok {
			return messageFor("numeric", r)
		}
		return r.run(s)
	default:
		if value == nil {
			return r.run("")
		}
		s, ok := value.(string)
		if !ok {
			return messageFor(errValueTypeTag, r)
		}
		return r.run(s)
	}
}

func (r Rule) run(value interface{}) string {
	err := engine().Var(value, r.Tag)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return messageFor(verrs[0].Tag(), r)
	}
	return messageFor(errValueTypeTag, r)
}

func messageFor(tag string, r Rule) string {
	switch tag {
	case "required":
		return "Campo obrigatório"
	case "numeric":
		return "Informe um número"
	case "oneof":
		return "Selecione uma das opções"
	case "boolean":
		return "Valor inválido"
	case "gte", "lte":
		return fmt.Sprintf("Escolha um valor entre %d e %d", r.Min, r.Max)
	case "url":
		return "Envie uma imagem válida"
	case "min", "max":
		if r.Kind == KindCEP {
			return "CEP inválido"
		}
		return "Tamanho inválido"
	case errConsentMissing:
		return "É necessário aceitar o termo de consentimento"
	default:
		return "Valor inválido"
	}
}

func consentGiven(v interface{}) bool {
	switch c := v.(type) {
	case bool:
		return c
	case string:
		b, err := strconv.ParseBool(c)
		return err == nil && b
	default:
		return false
	}
}

// numberString turns a JSON number or string into the string form checked by the numeric tag.
// Absent values become "" and are caught by the required tag when needed.
func numberString(v interface{}) (string, bool) {
	switch n := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(n), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	case int:
		return strconv.Itoa(n), true
	case int64:
		return strconv.FormatInt(n, 10), true
	default:
		return "", false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
