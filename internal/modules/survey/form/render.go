package form

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/modules/survey/question"
	"github.com/mapa-cultural/core/internal/modules/survey/schema"
	"github.com/microcosm-cc/bluemonday"
)

var labelPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "strong", "em", "br", "u")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}()

// SafeLabel keeps the inline markup allowed in question labels.
func SafeLabel(label string) template.HTML {
	return template.HTML(labelPolicy.Sanitize(label))
}

// Field is a question prepared for the template.
type Field struct {
	ID          string
	Type        string
	Label       template.HTML
	Required    bool
	Placeholder string
	Options     []string
	Scale       []int
	HasOther    bool
	OtherLabel  string
	MaxLength   int
	Value       string
	Checked     bool
	Error       string
	Autofill    Concept
	Choices     []Choice
}

// SectionView is a titled group of fields.
type SectionView struct {
	Name   string
	Fields []Field
}

// Page is the landing page model.
type Page struct {
	Title        string
	Home         template.HTML
	AllowedCity  string
	State        State
	Message      string
	CEP          *Field
	Sections     []SectionView
	ConsentField string
	Consent      bool
	CanSubmit    bool
}

// Choice is a value/label pair.
type Choice struct {
	Value string
	Label string
}

var yesNoChoices = []Choice{
	{Value: schema.YesToken, Label: "Sim"},
	{Value: schema.NoToken, Label: "Não"},
	{Value: schema.UndisclosedToken, Label: "Prefiro não dizer"},
}

// BuildPage lays out sections for rendering: the postal code field is pulled out and shown first,
// every other field keeps its section and order.
func BuildPage(sections []question.Section, view View, targets map[Concept]string, allowedCity string) Page {
	conceptOf := map[string]Concept{}
	for c, f := range targets {
		conceptOf[f] = c
	}

	page := Page{
		Title:        "Mapeamento Cultural",
		AllowedCity:  allowedCity,
		State:        view.State,
		Message:      view.Message,
		ConsentField: schema.ConsentField,
		CanSubmit:    view.CanSubmit,
	}
	page.Consent, _ = view.Values[schema.ConsentField].(bool)

	for _, s := range sections {
		sv := SectionView{Name: s.Name}
		for _, q := range s.Questions {
			f := buildField(q, view)
			f.Autofill = conceptOf[q.ID]
			if q.FieldType == models.FieldCEP && page.CEP == nil {
				page.CEP = &f
				continue
			}
			sv.Fields = append(sv.Fields, f)
		}
		if len(sv.Fields) > 0 {
			page.Sections = append(page.Sections, sv)
		}
	}
	return page
}

func buildField(q models.QuestionModel, view View) Field {
	f := Field{
		ID:       q.ID,
		Type:     string(q.FieldType),
		Label:    SafeLabel(q.Label),
		Required: q.Required,
		Options:  []string(q.Options),
		HasOther: q.HasOther,
		Error:    view.Errors[q.ID],
	}
	if !q.FieldType.Known() {
		f.Type = string(models.FieldText)
	}
	if q.Placeholder != nil {
		f.Placeholder = *q.Placeholder
	}
	if q.OtherLabel != nil {
		f.OtherLabel = *q.OtherLabel
	} else if q.HasOther {
		f.OtherLabel = "Outro"
	}
	if q.MaxLength != nil {
		f.MaxLength = *q.MaxLength
	}
	if q.FieldType == models.FieldYesNo {
		f.Choices = yesNoChoices
	}
	if q.FieldType == models.FieldScale {
		lo, hi := 1, 5
		if q.MinValue != nil {
			lo = *q.MinValue
		}
		if q.MaxValue != nil {
			hi = *q.MaxValue
		}
		for i := lo; i <= hi; i++ {
			f.Scale = append(f.Scale, i)
		}
	}
	switch v := view.Values[q.ID].(type) {
	case string:
		f.Value = v
	case bool:
		f.Checked = v
	case float64:
		f.Value = fmt.Sprintf("%g", v)
	}
	return f
}

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

// Render writes the landing page.
func Render(page Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
