package question

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mapa-cultural/core/internal/models"
)

type fakeStore struct {
	mu         sync.Mutex
	questions  []models.QuestionModel
	orders     []models.SectionOrderModel
	listCalls  int
	orderCalls int
	failList   error
	lastUpdate map[string]interface{}
	seq        int
}

func (f *fakeStore) ListActive(context.Context) ([]models.QuestionModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.failList != nil {
		return nil, f.failList
	}
	out := []models.QuestionModel{}
	for _, q := range f.questions {
		if q.IsActive {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAll(context.Context) ([]models.QuestionModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.QuestionModel(nil), f.questions...), nil
}

func (f *fakeStore) SectionOrders(context.Context) ([]models.SectionOrderModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderCalls++
	return append([]models.SectionOrderModel(nil), f.orders...), nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*models.QuestionModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions {
		if q.ID == id {
			cp := q
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Create(_ context.Context, q *models.QuestionModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	q.ID = fmt.Sprintf("q-%d", f.seq)
	q.CreatedAt = time.Now()
	f.questions = append(f.questions, *q)
	return nil
}

func (f *fakeStore) Update(_ context.Context, id string, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUpdate = updates
	for i := range f.questions {
		if f.questions[i].ID != id {
			continue
		}
		if v, ok := updates["is_active"].(bool); ok {
			f.questions[i].IsActive = v
		}
		if v, ok := updates["label"].(string); ok {
			f.questions[i].Label = v
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }

func q(id, section string, order int) models.QuestionModel {
	m := models.QuestionModel{Label: id, FieldType: models.FieldText, Order: order, IsActive: true}
	m.ID = id
	if section != "" {
		m.Section = strPtr(section)
	}
	return m
}

func ids(qs []models.QuestionModel) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}
