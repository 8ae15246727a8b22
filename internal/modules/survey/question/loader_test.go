package question

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderLoadActiveSkipsInactive(t *testing.T) {
	inactive := q("hidden", "", 0)
	inactive.IsActive = false
	store := &fakeStore{questions: []models.QuestionModel{q("a", "", 1), inactive, q("b", "", 0)}}

	got, err := NewLoader(store, "Outros").LoadActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(got))
}

func TestLoaderPropagatesStoreError(t *testing.T) {
	store := &fakeStore{failList: errors.New("down")}
	_, err := NewLoader(store, "Outros").LoadActive(context.Background())
	assert.Error(t, err)
}

func TestCacheTTLAndInvalidate(t *testing.T) {
	store := &fakeStore{questions: []models.QuestionModel{q("a", "", 0)}}
	cache := NewCache(NewLoader(store, "Outros"), time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := cache.Get(ctx)
	require.NoError(t, err)
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls)

	now = now.Add(2 * time.Minute)
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)

	cache.Invalidate()
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, store.listCalls)
}

func TestCacheZeroTTLAlwaysReloads(t *testing.T) {
	store := &fakeStore{}
	cache := NewCache(NewLoader(store, "Outros"), 0)
	for i := 0; i < 3; i++ {
		_, err := cache.Get(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.listCalls)
}

// gatedStore holds the first ListActive call until release is closed.
type gatedStore struct {
	*fakeStore
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStore) ListActive(ctx context.Context) ([]models.QuestionModel, error) {
	out, err := g.fakeStore.ListActive(ctx)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.started)
		<-g.release
	}
	return out, err
}

func TestCacheDropsLoadOverlappingInvalidate(t *testing.T) {
	store := &gatedStore{
		fakeStore: &fakeStore{questions: []models.QuestionModel{q("old", "", 0)}},
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	cache := NewCache(NewLoader(store, "Outros"), time.Minute)
	ctx := context.Background()

	done := make(chan []models.QuestionModel)
	go func() {
		got, err := cache.Get(ctx)
		assert.NoError(t, err)
		done <- got
	}()

	<-store.started
	store.mu.Lock()
	store.questions = []models.QuestionModel{q("new", "", 0)}
	store.mu.Unlock()
	cache.Invalidate()
	close(store.release)
	assert.Equal(t, []string{"old"}, ids(<-done))

	got, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids(got))
}

func TestCacheSectionsReusesOrders(t *testing.T) {
	store := &fakeStore{
		questions: []models.QuestionModel{q("a", "Endereço", 0), q("b", "Perfil", 0)},
		orders:    []models.SectionOrderModel{{Section: "Perfil", Order: 0}, {Section: "Endereço", Order: 1}},
	}
	cache := NewCache(NewLoader(store, "Outros"), time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sections, err := cache.Sections(ctx)
		require.NoError(t, err)
		require.Len(t, sections, 2)
		assert.Equal(t, "Perfil", sections[0].Name)
	}
	assert.Equal(t, 1, store.orderCalls)
	assert.Equal(t, 1, store.listCalls)

	cache.Invalidate()
	_, err := cache.Sections(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.orderCalls)
}
