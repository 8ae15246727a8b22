package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendDisabledIsNoop(t *testing.T) {
	s := New(Config{Enable: false, ResendKey: "k", Endpoint: "http://127.0.0.1:1"})
	require.NoError(t, s.Send(context.Background(), Message{To: []string{"a@example.org"}}))
}

func TestSendPostPublished(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(Config{Enable: true, From: "bot@example.org", ResendKey: "re_key", Endpoint: srv.URL})
	err := s.SendPostPublished(context.Background(), []string{"team@example.org"}, PostPublishedData{
		Title:     "Artista do mês",
		Permalink: "https://instagram.com/p/abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "bot@example.org", got["from"])
	assert.Contains(t, got["subject"], "Artista do mês")
	assert.Contains(t, got["html"], "https://instagram.com/p/abc")
}

func TestSendSurfacesRelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	s := New(Config{Enable: true, ResendKey: "k", Endpoint: srv.URL})
	err := s.Send(context.Background(), Message{To: []string{"a@example.org"}, Subject: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from")
}
