package submission

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/pagination"
)

type fakeStore struct {
	mu         sync.Mutex
	subs       []models.SubmissionModel
	answers    []models.AnswerModel
	anchorErr  error
	answersErr error
	seq        int
}

func (f *fakeStore) CreateSubmission(_ context.Context, sub *models.SubmissionModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.anchorErr != nil {
		return f.anchorErr
	}
	f.seq++
	sub.ID = fmt.Sprintf("sub-%d", f.seq)
	sub.CreatedAt = time.Date(2026, 3, 1, 12, f.seq, 0, 0, time.UTC)
	f.subs = append(f.subs, *sub)
	return nil
}

func (f *fakeStore) CreateAnswers(_ context.Context, answers []models.AnswerModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.answersErr != nil {
		return f.answersErr
	}
	f.answers = append(f.answers, answers...)
	return nil
}

func (f *fakeStore) withAnswers(sub models.SubmissionModel) models.SubmissionModel {
	for _, a := range f.answers {
		if a.SubmissionID == sub.ID {
			sub.Answers = append(sub.Answers, a)
		}
	}
	return sub
}

func (f *fakeStore) List(_ context.Context, q pagination.Query) ([]models.SubmissionModel, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]models.SubmissionModel, 0, len(f.subs))
	for _, s := range f.subs {
		all = append(all, f.withAnswers(s))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start, end := q.Window(len(all))
	return all[start:end], int64(len(all)), nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*models.SubmissionModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.ID == id {
			out := f.withAnswers(s)
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.subs)), nil
}

func (f *fakeStore) Answers(context.Context) ([]models.AnswerModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AnswerModel(nil), f.answers...), nil
}

type fakeQuestions struct {
	questions []models.QuestionModel
	err       error
}

func (f *fakeQuestions) Get(context.Context) ([]models.QuestionModel, error) {
	var active []models.QuestionModel
	for _, q := range f.questions {
		if q.IsActive {
			active = append(active, q)
		}
	}
	return active, f.err
}

func (f *fakeQuestions) ListAll(context.Context) ([]models.QuestionModel, error) {
	return f.questions, f.err
}

var errDB = errors.New("db unavailable")

func strPtr(s string) *string { return &s }

func question(id, label string, t models.FieldType, required bool) models.QuestionModel {
	return models.QuestionModel{Base: models.Base{ID: id}, Label: label, FieldType: t, Required: required, IsActive: true}
}

func surveyQuestions() []models.QuestionModel {
	return []models.QuestionModel{
		question("nome", "Nome", models.FieldText, true),
		question("cep", "CEP", models.FieldCEP, true),
		question("bairro", "<b>Bairro</b>", models.FieldText, false),
		question("lingua", "Linguagem artística", models.FieldSelect, false),
		question("foto", "Foto", models.FieldImage, false),
	}
}

func newTestService(store *fakeStore) *Service {
	qs := &fakeQuestions{questions: surveyQuestions()}
	return NewService(store, qs, qs, nil)
}
