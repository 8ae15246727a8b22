package post

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/instagram"
	"github.com/mapa-cultural/core/internal/pkg/mail"
	"github.com/mapa-cultural/core/internal/pkg/pagination"
)

type fakeStore struct {
	mu    sync.Mutex
	posts map[string]models.InstagramPostModel
	seq   int
}

func newFakeStore(posts ...models.InstagramPostModel) *fakeStore {
	f := &fakeStore{posts: map[string]models.InstagramPostModel{}}
	for _, p := range posts {
		f.posts[p.ID] = p
	}
	return f
}

func (f *fakeStore) List(_ context.Context, q pagination.Query, status string) ([]models.InstagramPostModel, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.InstagramPostModel, 0, len(f.posts))
	for _, p := range f.posts {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	start, end := q.Window(len(out))
	return out[start:end], total, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*models.InstagramPostModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeStore) Create(_ context.Context, p *models.InstagramPostModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p.ID = fmt.Sprintf("post-%d", f.seq)
	f.posts[p.ID] = *p
	return nil
}

func (f *fakeStore) Save(_ context.Context, p *models.InstagramPostModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[p.ID] = *p
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.posts[id]
	delete(f.posts, id)
	return ok, nil
}

type fakePublisher struct {
	calls   int
	urls    []string
	caption string
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, imageURLs []string, caption string) (*instagram.Result, error) {
	f.calls++
	f.urls = imageURLs
	f.caption = caption
	if f.err != nil {
		return nil, f.err
	}
	return &instagram.Result{MediaID: "17900000001", Permalink: "https://www.instagram.com/p/abc/"}, nil
}

type fakeNotifier struct {
	to   []string
	sent []mail.PostPublishedData
	err  error
}

func (f *fakeNotifier) SendPostPublished(_ context.Context, to []string, data mail.PostPublishedData) error {
	f.to = to
	f.sent = append(f.sent, data)
	return f.err
}

var errSMTP = errors.New("relay down")

func generatedPost() models.InstagramPostModel {
	return models.InstagramPostModel{
		Base:       models.Base{ID: "post-ready", CreatedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)},
		Template:   models.TemplateArtist,
		ArtistName: "Dona Zica",
		Caption:    "Conheça a Dona Zica",
		Hashtags:   models.StringArray{"mapacultural", "#saoroque"},
		ImageURLs:  models.StringArray{"https://cdn.example.org/posts/a.png"},
		Status:     models.PostStatusDraft,
	}
}
