package form

import (
	"html"
	"strings"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/cep"
	"github.com/microcosm-cc/bluemonday"
)

// Concept is an address part the lookup service returns.
type Concept string

const (
	ConceptStreet       Concept = "street"
	ConceptNeighborhood Concept = "neighborhood"
	ConceptCity         Concept = "city"
	ConceptState        Concept = "state"
)

// Concepts in matching priority order.
var Concepts = []Concept{ConceptStreet, ConceptNeighborhood, ConceptCity, ConceptState}

// Keywords is the default label dictionary, lowercase.
var Keywords = map[Concept][]string{
	ConceptStreet:       {"rua", "endereço", "endereco", "logradouro"},
	ConceptNeighborhood: {"bairro"},
	ConceptCity:         {"cidade", "município", "municipio"},
	ConceptState:        {"estado", "uf"},
}

// AutofillStrategy decides which questions receive looked-up address parts.
type AutofillStrategy interface {
	// Targets maps each concept to the question id it fills. Questions listed in skip are ignored.
	Targets(questions []models.QuestionModel, skip string) map[Concept]string
}

// KeywordAutofill matches plain-text labels against a keyword dictionary.
type KeywordAutofill struct {
	Keywords map[Concept][]string
}

// DefaultAutofill uses Keywords.
func DefaultAutofill() KeywordAutofill {
	return KeywordAutofill{Keywords: Keywords}
}

var plainText = bluemonday.StrictPolicy()

// TextLabel strips inline markup and entities from a label.
func TextLabel(label string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(label)))
}

// PlainLabel is TextLabel lowercased, used for keyword matching.
func PlainLabel(label string) string {
	return strings.ToLower(TextLabel(label))
}

// Targets assigns the first free-text question whose label matches each concept.
// A question fills at most one concept.
func (k KeywordAutofill) Targets(questions []models.QuestionModel, skip string) map[Concept]string {
	targets := map[Concept]string{}
	used := map[string]bool{}
	for _, concept := range Concepts {
		words := k.Keywords[concept]
		for _, q := range questions {
			if q.ID == skip || used[q.ID] || !q.FieldType.IsFreeText() {
				continue
			}
			if containsAny(PlainLabel(q.Label), words) {
				targets[concept] = q.ID
				used[q.ID] = true
				break
			}
		}
	}
	return targets
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Fill resolves target fields to the looked-up values. Empty address parts are skipped.
func Fill(targets map[Concept]string, addr *cep.Address) map[string]string {
	out := map[string]string{}
	if addr == nil {
		return out
	}
	parts := map[Concept]string{
		ConceptStreet:       addr.Street,
		ConceptNeighborhood: addr.Neighborhood,
		ConceptCity:         addr.City,
		ConceptState:        addr.State,
	}
	for concept, field := range targets {
		if v := strings.TrimSpace(parts[concept]); v != "" {
			out[field] = v
		}
	}
	return out
}

// TargetFields lists the field ids in targets in concept order.
func TargetFields(targets map[Concept]string) []string {
	out := make([]string, 0, len(targets))
	for _, c := range Concepts {
		if f, ok := targets[c]; ok {
			out = append(out, f)
		}
	}
	return out
}
