package postimage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakePNG = []byte("\x89PNG\r\n\x1a\nfake")

type fakeRasterizer struct {
	mu   sync.Mutex
	docs []string
	err  error
	// failAt makes the n-th render (1-based) fail.
	failAt int
}

func (f *fakeRasterizer) Render(_ context.Context, doc string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	if f.err != nil && (f.failAt == 0 || f.failAt == len(f.docs)) {
		return nil, f.err
	}
	return fakePNG, nil
}

type memStorage struct {
	keys []string
}

func (m *memStorage) Put(_ context.Context, key string, _ []byte, contentType string) (string, error) {
	if contentType != "image/png" {
		return "", errors.New("unexpected content type " + contentType)
	}
	m.keys = append(m.keys, key)
	return "https://cdn.example.org/" + key, nil
}

func (m *memStorage) Delete(context.Context, string) error { return nil }

type fakePosts struct {
	posts map[string]models.InstagramPostModel
	saves int
}

func (f *fakePosts) Get(_ context.Context, id string) (*models.InstagramPostModel, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakePosts) Save(_ context.Context, p *models.InstagramPostModel) error {
	f.saves++
	f.posts[p.ID] = *p
	return nil
}

func artistPost() models.InstagramPostModel {
	return models.InstagramPostModel{
		Base:          models.Base{ID: "post-1"},
		Template:      models.TemplateArtist,
		ArtistName:    `Zé <script>alert(1)</script>`,
		ArtisticLang:  "Xilogravura",
		ArtistBio:     "Artista de São Roque & região",
		PhotoURL:      "https://cdn.example.org/ze.jpg",
		SocialHandles: models.StringArray{"@ze.xilo"},
		Status:        models.PostStatusDraft,
	}
}

func carouselPost(n int) models.InstagramPostModel {
	p := models.InstagramPostModel{
		Base:     models.Base{ID: "post-c"},
		Template: models.TemplateCarousel,
		CTA:      "Responda o mapeamento",
		Status:   models.PostStatusDraft,
	}
	for i := 0; i < n; i++ {
		p.Slides = append(p.Slides, models.Slide{Title: "Slide"})
	}
	return p
}

func TestBuildDocumentsArtist(t *testing.T) {
	p := artistPost()
	docs, err := BuildDocuments(&p, 1080, 1350)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, "width:1080px")
	assert.Contains(t, doc, "height:1350px")
	assert.Contains(t, doc, "&lt;script&gt;")
	assert.NotContains(t, doc, "<script>")
	assert.Contains(t, doc, "São Roque &amp; região")
	assert.Contains(t, doc, `src="https://cdn.example.org/ze.jpg"`)
	assert.Contains(t, doc, "Xilogravura")
	assert.NotContains(t, doc, "<link")
}

func TestBuildDocumentsCarousel(t *testing.T) {
	p := carouselPost(3)
	docs, err := BuildDocuments(&p, 1080, 1350)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Contains(t, docs[0], "1/3")
	assert.NotContains(t, docs[0], "Responda o mapeamento")
	assert.Contains(t, docs[2], "3/3")
	assert.Contains(t, docs[2], "Responda o mapeamento")

	empty := carouselPost(0)
	_, err = BuildDocuments(&empty, 1080, 1350)
	assert.ErrorIs(t, err, ErrNoSlides)

	unknown := models.InstagramPostModel{Template: "story"}
	_, err = BuildDocuments(&unknown, 1080, 1350)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestGenerateUploadsEveryImage(t *testing.T) {
	posts := &fakePosts{posts: map[string]models.InstagramPostModel{"post-c": carouselPost(2)}}
	raster := &fakeRasterizer{}
	uploads := &memStorage{}
	svc := NewService(posts, raster, uploads, 0, 0, nil)

	p, err := svc.Generate(context.Background(), "post-c")
	require.NoError(t, err)
	require.Len(t, p.ImageURLs, 2)
	assert.Len(t, raster.docs, 2)
	require.Len(t, uploads.keys, 2)
	assert.True(t, strings.HasPrefix(uploads.keys[0], "posts/"))
	assert.True(t, strings.HasSuffix(uploads.keys[0], "post-c-1.png"))
	assert.True(t, strings.HasSuffix(uploads.keys[1], "post-c-2.png"))
	assert.Equal(t, models.StringArray(p.ImageURLs), posts.posts["post-c"].ImageURLs)
}

func TestGenerateFailureLeavesPostUntouched(t *testing.T) {
	original := carouselPost(3)
	original.ImageURLs = models.StringArray{"https://cdn.example.org/old.png"}
	posts := &fakePosts{posts: map[string]models.InstagramPostModel{"post-c": original}}
	raster := &fakeRasterizer{err: errors.New("page crashed"), failAt: 2}
	svc := NewService(posts, raster, &memStorage{}, 0, 0, nil)

	_, err := svc.Generate(context.Background(), "post-c")
	require.Error(t, err)
	assert.Zero(t, posts.saves)
	assert.Equal(t, models.StringArray{"https://cdn.example.org/old.png"}, posts.posts["post-c"].ImageURLs)
}

func TestGenerateRefusesPublished(t *testing.T) {
	p := artistPost()
	p.Status = models.PostStatusPublished
	svc := NewService(&fakePosts{posts: map[string]models.InstagramPostModel{"post-1": p}}, &fakeRasterizer{}, &memStorage{}, 0, 0, nil)

	_, err := svc.Generate(context.Background(), "post-1")
	assert.ErrorIs(t, err, ErrPublished)
}

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, nil).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func post(r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPreviewEndpoint(t *testing.T) {
	raster := &fakeRasterizer{}
	r := newTestRouter(NewService(&fakePosts{posts: map[string]models.InstagramPostModel{}}, raster, &memStorage{}, 0, 0, nil))

	w := post(r, "/api/v1/admin/instagram/preview?slide=1", carouselPost(2))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, fakePNG, w.Body.Bytes())
	require.Len(t, raster.docs, 1)
	assert.Contains(t, raster.docs[0], "2/2")

	w = post(r, "/api/v1/admin/instagram/preview?slide=5", carouselPost(2))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewWithoutBrowser(t *testing.T) {
	raster := &fakeRasterizer{err: renderer.ErrBrowserNotFound}
	r := newTestRouter(NewService(&fakePosts{posts: map[string]models.InstagramPostModel{}}, raster, &memStorage{}, 0, 0, nil))

	w := post(r, "/api/v1/admin/instagram/preview", artistPost())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "CHROME_PATH")
}

func TestGenerateEndpointNotFound(t *testing.T) {
	r := newTestRouter(NewService(&fakePosts{posts: map[string]models.InstagramPostModel{}}, &fakeRasterizer{}, &memStorage{}, 0, 0, nil))
	w := post(r, "/api/v1/admin/instagram/posts/nope/generate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCaptionPreview(t *testing.T) {
	r := newTestRouter(NewService(&fakePosts{posts: map[string]models.InstagramPostModel{}}, &fakeRasterizer{}, &memStorage{}, 0, 0, nil))

	w := post(r, "/api/v1/admin/instagram/caption-preview", map[string]interface{}{
		"caption":  "Conheça **o** mapa",
		"hashtags": []string{"arte"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var got captionPreview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Contains(t, got.Text, "Conheça o mapa")
	assert.Contains(t, got.Text, "#arte")
	assert.Contains(t, string(got.HTML), "<strong>o</strong>")
	assert.Equal(t, 25, got.Length)
	assert.False(t, got.OverLimit)
}
