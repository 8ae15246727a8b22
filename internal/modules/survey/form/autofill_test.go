package form

import (
	"testing"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/cep"
	"github.com/stretchr/testify/assert"
)

func TestKeywordAutofillTargets(t *testing.T) {
	targets := DefaultAutofill().Targets(fixture(), "cep")

	assert.Equal(t, map[Concept]string{
		ConceptStreet:       "rua",
		ConceptNeighborhood: "bairro",
		ConceptCity:         "cidade",
		ConceptState:        "uf",
	}, targets)
}

func TestKeywordAutofillSkipsChoiceFieldsAndGate(t *testing.T) {
	qs := []models.QuestionModel{
		{Base: models.Base{ID: "cep"}, Label: "CEP da rua", FieldType: models.FieldCEP},
		{Base: models.Base{ID: "estado"}, Label: "Estado", FieldType: models.FieldRadio},
		{Base: models.Base{ID: "obs"}, Label: "Observações", FieldType: models.FieldTextarea},
	}
	targets := DefaultAutofill().Targets(qs, "cep")
	assert.Empty(t, targets)
}

func TestKeywordAutofillOneConceptPerQuestion(t *testing.T) {
	qs := []models.QuestionModel{
		{Base: models.Base{ID: "a"}, Label: "Cidade e estado", FieldType: models.FieldText},
		{Base: models.Base{ID: "b"}, Label: "Estado (UF)", FieldType: models.FieldText},
		{Base: models.Base{ID: "c"}, Label: "Outra cidade", FieldType: models.FieldText},
	}
	targets := DefaultAutofill().Targets(qs, "")
	assert.Equal(t, "a", targets[ConceptCity])
	assert.Equal(t, "b", targets[ConceptState])
	assert.Len(t, targets, 2)
}

func TestPlainLabel(t *testing.T) {
	assert.Equal(t, "bairro onde mora", PlainLabel("<b>Bairro</b> onde <i>mora</i>"))
	assert.Equal(t, "endereço & número", PlainLabel("Endereço &amp; Número"))
}

func TestFillSkipsEmptyParts(t *testing.T) {
	targets := map[Concept]string{ConceptStreet: "rua", ConceptCity: "cidade"}
	out := Fill(targets, &cep.Address{City: "São Roque"})
	assert.Equal(t, map[string]string{"cidade": "São Roque"}, out)
	assert.Empty(t, Fill(targets, nil))
}
