package form

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatePassesAllowedCityIgnoringCase(t *testing.T) {
	lookup := &fakeLookup{}
	res := newTestGate(lookup).Evaluate(context.Background(), fixture(), "18130-000")

	assert.Equal(t, StateGatePassed, res.State)
	assert.True(t, res.Looked)
	require.NotNil(t, res.Address)
	assert.Equal(t, map[string]string{
		"rua":    "Rua Rui Barbosa",
		"bairro": "Centro",
		"cidade": "são roque",
		"uf":     "SP",
	}, res.Autofill)
	assert.Empty(t, res.Cleared)
	assert.Equal(t, []string{cepSaoRoque}, lookup.calls)
}

func TestGateFailsOtherCityAndClearsAddress(t *testing.T) {
	res := newTestGate(&fakeLookup{}).Evaluate(context.Background(), fixture(), cepSorocaba)

	assert.Equal(t, StateGateFailed, res.State)
	assert.Contains(t, res.Message, "São Roque")
	assert.Empty(t, res.Autofill)
	assert.ElementsMatch(t, []string{"rua", "bairro", "cidade", "uf"}, res.Cleared)
}

func TestGateIncompleteDoesNotLookUp(t *testing.T) {
	lookup := &fakeLookup{}
	res := newTestGate(lookup).Evaluate(context.Background(), fixture(), "1813")

	assert.Equal(t, StateAwaitingGate, res.State)
	assert.False(t, res.Looked)
	assert.Zero(t, lookup.count())
	assert.Len(t, res.Cleared, 4)
}

func TestGateNotFoundAndErrorsResetToAwaiting(t *testing.T) {
	g := newTestGate(&fakeLookup{})

	res := g.Evaluate(context.Background(), fixture(), "00000-000")
	assert.Equal(t, StateAwaitingGate, res.State)
	assert.Equal(t, MsgCEPNotFound, res.Message)

	res = g.Evaluate(context.Background(), fixture(), cepBroken)
	assert.Equal(t, StateAwaitingGate, res.State)
	assert.Equal(t, MsgLookupFailed, res.Message)
	assert.Len(t, res.Cleared, 4)
}

func TestCityMatches(t *testing.T) {
	g := newTestGate(&fakeLookup{})
	assert.True(t, g.CityMatches(" SÃO ROQUE "))
	assert.False(t, g.CityMatches("Sao Roque"))
}
