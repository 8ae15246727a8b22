package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type graphCall struct {
	Method string
	Path   string
	Form   map[string]string
}

type fakeGraph struct {
	mu    sync.Mutex
	calls []graphCall
	next  int
	fail  string
}

func (f *fakeGraph) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form := map[string]string{}
		for k := range r.Form {
			form[k] = r.Form.Get(k)
		}
		f.mu.Lock()
		f.calls = append(f.calls, graphCall{Method: r.Method, Path: r.URL.Path, Form: form})
		f.next++
		id := f.next
		f.mu.Unlock()

		assert.Equal(t, "tok", form["access_token"])
		w.Header().Set("Content-Type", "application/json")
		if f.fail != "" && strings.HasSuffix(r.URL.Path, f.fail) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid image","type":"OAuthException","code":36003}}`))
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/media_publish"):
			_, _ = w.Write([]byte(`{"id":"media-1"}`))
		case strings.HasSuffix(r.URL.Path, "/media"):
			_, _ = w.Write([]byte(`{"id":"container-` + strconv.Itoa(id) + `"}`))
		case strings.HasSuffix(r.URL.Path, "/media-1"):
			_, _ = w.Write([]byte(`{"permalink":"https://www.instagram.com/p/abc/","id":"media-1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func (f *fakeGraph) byPath(suffix string) []graphCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []graphCall
	for _, c := range f.calls {
		if strings.HasSuffix(c.Path, suffix) {
			out = append(out, c)
		}
	}
	return out
}

func newTestClient(t *testing.T, f *fakeGraph) *Client {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(Config{UserID: "17841", AccessToken: "tok", GraphURL: srv.URL, Version: "v21.0"})
}

func TestPublishSingleImage(t *testing.T) {
	f := &fakeGraph{}
	c := newTestClient(t, f)

	res, err := c.Publish(context.Background(), []string{"https://cdn/x.png"}, "legenda")
	require.NoError(t, err)
	assert.Equal(t, "media-1", res.MediaID)
	assert.Equal(t, "https://www.instagram.com/p/abc/", res.Permalink)

	media := f.byPath("/v21.0/17841/media")
	require.Len(t, media, 1)
	assert.Equal(t, "https://cdn/x.png", media[0].Form["image_url"])
	assert.Equal(t, "legenda", media[0].Form["caption"])

	publish := f.byPath("/media_publish")
	require.Len(t, publish, 1)
	assert.NotEmpty(t, publish[0].Form["creation_id"])
}

func TestPublishCarousel(t *testing.T) {
	f := &fakeGraph{}
	c := newTestClient(t, f)

	_, err := c.Publish(context.Background(), []string{"https://cdn/1.png", "https://cdn/2.png", "https://cdn/3.png"}, "c")
	require.NoError(t, err)

	media := f.byPath("/17841/media")
	require.Len(t, media, 4)
	var children, carousels int
	for _, call := range media {
		if call.Form["is_carousel_item"] == "true" {
			children++
		}
		if call.Form["media_type"] == "CAROUSEL" {
			carousels++
			assert.Len(t, strings.Split(call.Form["children"], ","), 3)
			assert.Equal(t, "c", call.Form["caption"])
		}
	}
	assert.Equal(t, 3, children)
	assert.Equal(t, 1, carousels)
}

func TestPublishGraphError(t *testing.T) {
	f := &fakeGraph{fail: "/media"}
	c := newTestClient(t, f)

	_, err := c.Publish(context.Background(), []string{"https://cdn/x.png"}, "")
	var gerr *GraphError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, int64(36003), gerr.Code)
	assert.Equal(t, "Invalid image", gerr.Message)
	assert.Empty(t, f.byPath("/media_publish"))
}

func TestPublishGuards(t *testing.T) {
	_, err := NewClient(Config{}).Publish(context.Background(), []string{"x"}, "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	c := NewClient(Config{UserID: "1", AccessToken: "t"})
	_, err = c.Publish(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNoImages)

	_, err = c.Publish(context.Background(), make([]string, MaxCarouselItems+1), "")
	assert.ErrorIs(t, err, ErrTooManyImages)
}
