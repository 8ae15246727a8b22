package form

import (
	"context"
	"errors"
	"testing"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/cep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine() (*Machine, *fakeLookup) {
	lookup := &fakeLookup{}
	return NewMachine(newTestGate(lookup), fixture()), lookup
}

func TestMachineStartsAwaitingWithOnlyGateVisible(t *testing.T) {
	m, _ := newTestMachine()
	v := m.Snapshot()

	assert.Equal(t, StateAwaitingGate, v.State)
	assert.Equal(t, []string{"cep"}, v.Visible)
	assert.False(t, v.CanSubmit)
	assert.Equal(t, false, v.Values["consent"])
}

func TestMachineLooksUpOncePerValue(t *testing.T) {
	m, lookup := newTestMachine()
	ctx := context.Background()

	assert.Equal(t, StateGatePassed, m.ChangeCEP(ctx, "18130-000"))
	m.ChangeCEP(ctx, "18130000")
	m.ChangeCEP(ctx, " 18130-000 ")
	assert.Equal(t, 1, lookup.count())

	m.ChangeCEP(ctx, cepSorocaba)
	m.ChangeCEP(ctx, cepSaoRoque)
	assert.Equal(t, 3, lookup.count())
}

func TestMachinePassAutofillsThenFailClears(t *testing.T) {
	m, _ := newTestMachine()
	ctx := context.Background()

	m.ChangeCEP(ctx, cepSaoRoque)
	v := m.Snapshot()
	require.Equal(t, StateGatePassed, v.State)
	assert.Equal(t, "Centro", v.Values["bairro"])
	assert.Contains(t, v.Visible, "nome")

	m.ChangeCEP(ctx, cepSorocaba)
	v = m.Snapshot()
	assert.Equal(t, StateGateFailed, v.State)
	assert.Contains(t, v.Message, "São Roque")
	for _, f := range []string{"rua", "bairro", "cidade", "uf"} {
		assert.NotContains(t, v.Values, f)
	}
	assert.Equal(t, []string{"cep"}, v.Visible)
}

func TestMachineIncompleteAfterPassResets(t *testing.T) {
	m, lookup := newTestMachine()
	ctx := context.Background()

	m.ChangeCEP(ctx, cepSaoRoque)
	assert.Equal(t, StateAwaitingGate, m.ChangeCEP(ctx, "1813000"))
	assert.NotContains(t, m.Snapshot().Values, "rua")
	assert.Equal(t, 1, lookup.count())
}

func TestMachineNotFoundResets(t *testing.T) {
	m, _ := newTestMachine()
	ctx := context.Background()

	m.ChangeCEP(ctx, cepSaoRoque)
	assert.Equal(t, StateAwaitingGate, m.ChangeCEP(ctx, "01001-999"))
	v := m.Snapshot()
	assert.Equal(t, MsgCEPNotFound, v.Message)
	assert.NotContains(t, v.Values, "cidade")
}

func TestMachineDiscardsStaleLookup(t *testing.T) {
	m, _ := newTestMachine()

	first, ok := m.BeginCEP(cepSorocaba)
	require.True(t, ok)
	second, ok := m.BeginCEP(cepSaoRoque)
	require.True(t, ok)

	passed := &cep.Address{Street: "Rua Rui Barbosa", City: "São Roque"}
	assert.True(t, m.ApplyLookup(second, passed, nil))

	failed := &cep.Address{City: "Sorocaba"}
	assert.False(t, m.ApplyLookup(first, failed, nil))
	assert.Equal(t, StateGatePassed, m.State())
	assert.Equal(t, "Rua Rui Barbosa", m.Snapshot().Values["rua"])
}

func TestMachineReformattingKeepsInFlightTicket(t *testing.T) {
	m, _ := newTestMachine()

	ticket, ok := m.BeginCEP("18130000")
	require.True(t, ok)
	_, again := m.BeginCEP("18130-000")
	assert.False(t, again)

	assert.True(t, m.ApplyLookup(ticket, &cep.Address{City: "SÃO ROQUE"}, nil))
	assert.Equal(t, StateGatePassed, m.State())
}

func TestMachineSubmitRules(t *testing.T) {
	m, _ := newTestMachine()
	ctx := context.Background()

	m.SetConsent(true)
	assert.False(t, m.CanSubmit(), "consent alone is not enough")
	_, _, err := m.BeginSubmit()
	assert.ErrorIs(t, err, ErrSubmitNotAllowed)

	m.ChangeCEP(ctx, "18130-000")
	m.SetConsent(false)
	assert.False(t, m.CanSubmit())
	m.SetConsent(true)
	require.True(t, m.CanSubmit())

	values, fieldErrs, err := m.BeginSubmit()
	require.NoError(t, err)
	assert.Nil(t, values)
	assert.Equal(t, "Campo obrigatório", fieldErrs["nome"])
	assert.Equal(t, StateGatePassed, m.State())
	assert.True(t, m.CanSubmit())

	m.SetValue("nome", "Coletivo Vila")
	assert.NotContains(t, m.Snapshot().Errors, "nome")

	values, fieldErrs, err = m.BeginSubmit()
	require.NoError(t, err)
	assert.Empty(t, fieldErrs)
	assert.Equal(t, "Coletivo Vila", values["nome"])
	assert.Equal(t, "Rua Rui Barbosa", values["rua"])
	assert.False(t, m.CanSubmit(), "disabled while submitting")

	m.FinishSubmit(errors.New("insert failed"))
	assert.Equal(t, StateGatePassed, m.State())
	assert.True(t, m.CanSubmit())

	_, _, err = m.BeginSubmit()
	require.NoError(t, err)
	m.FinishSubmit(nil)
	assert.Equal(t, StateSubmitted, m.State())

	_, _, err = m.BeginSubmit()
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	ticket, ok := m.BeginCEP(cepSorocaba)
	require.True(t, ok)
	assert.False(t, m.ApplyLookup(ticket, &cep.Address{City: "Sorocaba"}, nil))
	assert.Equal(t, StateSubmitted, m.State())
}

func TestMachineAddressFields(t *testing.T) {
	m, _ := newTestMachine()
	assert.Equal(t, "cep", m.CEPField())
	assert.Equal(t, []string{"bairro", "cidade", "rua", "uf"}, m.AddressFields())
}

func TestMachineWithoutPostalCodeStartsPassed(t *testing.T) {
	qs := []models.QuestionModel{{Base: models.Base{ID: "nome"}, Label: "Nome", FieldType: models.FieldText}}
	lookup := &fakeLookup{}
	m := NewMachine(newTestGate(lookup), qs)

	_, ok := m.BeginCEP("18130-000")
	assert.False(t, ok)
	m.SetConsent(true)

	v := m.Snapshot()
	assert.Equal(t, StateGatePassed, v.State)
	assert.Equal(t, []string{"nome"}, v.Visible)
	assert.True(t, v.CanSubmit)
	assert.Zero(t, lookup.count())
}
