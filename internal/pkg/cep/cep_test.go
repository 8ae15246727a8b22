package cep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViaCEP(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/18130000/json/":
			_, _ = w.Write([]byte(`{"cep":"18130-000","logradouro":"Rua Rui Barbosa","bairro":"Centro","localidade":"São Roque","uf":"SP"}`))
		case "/01001000/json/":
			_, _ = w.Write([]byte(`{"cep":"01001-000","logradouro":"Praça da Sé","bairro":"Sé","localidade":"São Paulo","uf":"SP"}`))
		case "/99999999/json/":
			_, _ = w.Write([]byte(`{"erro": "true"}`))
		case "/00000000/json/":
			_, _ = w.Write([]byte(`{"erro": true}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookup(t *testing.T) {
	srv := newViaCEP(t, nil)
	c := NewClient(srv.URL, nil, 0)

	addr, err := c.Lookup(context.Background(), "18130-000")
	require.NoError(t, err)
	assert.Equal(t, &Address{
		CEP:          "18130000",
		Street:       "Rua Rui Barbosa",
		Neighborhood: "Centro",
		City:         "São Roque",
		State:        "SP",
	}, addr)
}

func TestLookupNotFound(t *testing.T) {
	srv := newViaCEP(t, nil)
	c := NewClient(srv.URL, nil, 0)

	for _, digits := range []string{"99999999", "00000000", "12345678"} {
		_, err := c.Lookup(context.Background(), digits)
		assert.ErrorIs(t, err, ErrNotFound, digits)
	}
}

func TestLookupRejectsIncomplete(t *testing.T) {
	var hits int32
	srv := newViaCEP(t, &hits)
	c := NewClient(srv.URL, nil, 0)

	_, err := c.Lookup(context.Background(), "1813")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestLookupUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil, 0).Lookup(context.Background(), "18130000")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNormalizeAndFormat(t *testing.T) {
	assert.Equal(t, "18130000", Normalize(" 18.130-000 "))
	assert.True(t, Complete("18130000"))
	assert.False(t, Complete("1813000"))
	assert.Equal(t, "18130-000", Format("18130000"))
	assert.Equal(t, "123", Format("123"))
}
