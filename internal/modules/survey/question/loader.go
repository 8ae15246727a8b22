package question

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mapa-cultural/core/internal/models"
)

// Loader reads the active question schema in display order.
type Loader struct {
	store    Store
	catchAll string
}

func NewLoader(store Store, catchAll string) *Loader {
	return &Loader{store: store, catchAll: catchAll}
}

// CatchAll is the section that holds questions without one.
func (l *Loader) CatchAll() string { return l.catchAll }

// LoadActive fetches active questions and section ordering and merges them into one sorted list.
func (l *Loader) LoadActive(ctx context.Context) ([]models.QuestionModel, error) {
	questions, _, err := l.load(ctx)
	return questions, err
}

func (l *Loader) load(ctx context.Context) ([]models.QuestionModel, []models.SectionOrderModel, error) {
	questions, err := l.store.ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load questions: %w", err)
	}
	orders, err := l.store.SectionOrders(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load section order: %w", err)
	}
	return SortQuestions(questions, orders, l.catchAll), orders, nil
}

// Cache memoizes LoadActive for a TTL. Admin writes call Invalidate.
// A load that started before an Invalidate is returned to its caller but never stored.
type Cache struct {
	loader *Loader
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	items    []models.QuestionModel
	orders   []models.SectionOrderModel
	loadedAt time.Time
	valid    bool
	gen      uint64
}

func NewCache(loader *Loader, ttl time.Duration) *Cache {
	return &Cache{loader: loader, ttl: ttl, now: time.Now}
}

// Get returns the cached schema, reloading it once stale. A zero TTL disables caching.
func (c *Cache) Get(ctx context.Context) ([]models.QuestionModel, error) {
	items, _, err := c.snapshot(ctx)
	return items, err
}

func (c *Cache) snapshot(ctx context.Context) ([]models.QuestionModel, []models.SectionOrderModel, error) {
	c.mu.RLock()
	if c.valid && c.ttl > 0 && c.now().Sub(c.loadedAt) < c.ttl {
		defer c.mu.RUnlock()
		return c.items, c.orders, nil
	}
	gen := c.gen
	c.mu.RUnlock()

	items, orders, err := c.loader.load(ctx)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.items = items
		c.orders = orders
		c.loadedAt = c.now()
		c.valid = true
	}
	c.mu.Unlock()
	return items, orders, nil
}

// Sections returns the cached schema grouped by section.
func (c *Cache) Sections(ctx context.Context) ([]Section, error) {
	items, orders, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return GroupBySection(items, orders, c.loader.catchAll), nil
}

// CatchAll is the section that holds questions without one.
func (c *Cache) CatchAll() string { return c.loader.catchAll }

// Invalidate forces the next Get to reload.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.valid = false
	c.items = nil
	c.orders = nil
	c.mu.Unlock()
}
