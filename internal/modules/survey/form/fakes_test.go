package form

import (
	"context"
	"errors"
	"sync"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/modules/survey/question"
	"github.com/mapa-cultural/core/internal/pkg/cep"
)

const (
	cepSaoRoque = "18130000"
	cepSorocaba = "18035000"
	cepBroken   = "99999999"
)

var errUpstream = errors.New("upstream down")

type fakeLookup struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeLookup) Lookup(_ context.Context, digits string) (*cep.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, digits)
	switch digits {
	case cepSaoRoque:
		return &cep.Address{CEP: "18130-000", Street: "Rua Rui Barbosa", Neighborhood: "Centro", City: "são roque", State: "SP"}, nil
	case cepSorocaba:
		return &cep.Address{CEP: "18035-000", Street: "Avenida São Paulo", Neighborhood: "Além Ponte", City: "Sorocaba", State: "SP"}, nil
	case cepBroken:
		return nil, errUpstream
	default:
		return nil, cep.ErrNotFound
	}
}

func (f *fakeLookup) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSource struct {
	questions []models.QuestionModel
	err       error
}

func (f *fakeSource) Get(context.Context) ([]models.QuestionModel, error) {
	return f.questions, f.err
}

func (f *fakeSource) Sections(context.Context) ([]question.Section, error) {
	if f.err != nil {
		return nil, f.err
	}
	return question.GroupBySection(f.questions, nil, "Outros"), nil
}

func strPtr(s string) *string { return &s }

func fixture() []models.QuestionModel {
	sobre, endereco := strPtr("Sobre você"), strPtr("Endereço")
	mk := func(id, label string, t models.FieldType, required bool, order int, section *string) models.QuestionModel {
		return models.QuestionModel{
			Base:      models.Base{ID: id},
			Label:     label,
			FieldType: t,
			Required:  required,
			Order:     order,
			Section:   section,
			IsActive:  true,
		}
	}
	estado := mk("estado_sel", "Estado", models.FieldSelect, false, 5, endereco)
	estado.Options = models.StringArray{"SP", "RJ"}
	return []models.QuestionModel{
		mk("nome", "Nome artístico", models.FieldText, true, 1, sobre),
		mk("rua", "Rua / logradouro", models.FieldText, false, 2, endereco),
		mk("bairro", "<b>Bairro</b>", models.FieldText, false, 3, endereco),
		mk("cidade", "Cidade", models.FieldText, false, 4, endereco),
		estado,
		mk("uf", "UF", models.FieldText, false, 6, endereco),
		mk("cep", "CEP da sua rua", models.FieldCEP, true, 9, endereco),
	}
}

func newTestGate(lookup cep.Lookuper) *Gate {
	return NewGate(lookup, "São Roque", nil, nil)
}
