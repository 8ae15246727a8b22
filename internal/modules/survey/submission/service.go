package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/modules/survey/schema"
	"github.com/mapa-cultural/core/internal/pkg/metrics"
	"github.com/mapa-cultural/core/internal/pkg/pagination"
	"go.uber.org/zap"
)

// ErrNoAnswers is returned when a payload has no entry with a question id.
var ErrNoAnswers = errors.New("nenhuma resposta válida foi enviada")

// ErrUnknownQuestion is returned when an entry names a question that does not exist.
var ErrUnknownQuestion = errors.New("pergunta desconhecida")

// ValidationError carries per-field messages from the dynamic schema.
type ValidationError struct {
	Fields schema.FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: %d field(s)", len(e.Fields))
}

// QuestionSource returns the active questions in display order.
type QuestionSource interface {
	Get(ctx context.Context) ([]models.QuestionModel, error)
}

// QuestionLister returns every question, active or not.
type QuestionLister interface {
	ListAll(ctx context.Context) ([]models.QuestionModel, error)
}

type Service struct {
	store     Store
	active    QuestionSource
	questions QuestionLister
	log       *zap.Logger
}

func NewService(store Store, active QuestionSource, questions QuestionLister, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, active: active, questions: questions, log: log}
}

// Submit persists entries as one submission. Entries without a question id are dropped; a repeated
// question id keeps its last value. Every question id must exist before anything is written.
// The anchor row is written first, then the answers in one batch; a failed answer insert leaves
// the anchor behind.
func (s *Service) Submit(ctx context.Context, entries []Entry) (*models.SubmissionModel, error) {
	kept := compact(entries)
	if len(kept) == 0 {
		metrics.SubmissionFailures.WithLabelValues("empty").Inc()
		return nil, ErrNoAnswers
	}
	if err := s.checkQuestions(ctx, kept); err != nil {
		return nil, err
	}

	sub := &models.SubmissionModel{}
	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		metrics.SubmissionFailures.WithLabelValues("anchor").Inc()
		s.log.Error("create submission", zap.Error(err))
		return nil, fmt.Errorf("create submission: %w", err)
	}

	answers := make([]models.AnswerModel, 0, len(kept))
	for _, e := range kept {
		answers = append(answers, models.AnswerModel{
			QuestionID:   e.QuestionID,
			SubmissionID: sub.ID,
			Value:        e.Value,
			FileURL:      e.FileURL,
		})
	}
	if err := s.store.CreateAnswers(ctx, answers); err != nil {
		metrics.SubmissionFailures.WithLabelValues("answers").Inc()
		s.log.Error("insert answers, submission left without answers",
			zap.String("submission_id", sub.ID), zap.Int("answers", len(answers)), zap.Error(err))
		return nil, fmt.Errorf("create answers: %w", err)
	}

	metrics.SubmissionsCreated.Inc()
	sub.Answers = answers
	return sub, nil
}

// SubmitValues validates a flat value map against the active schema and submits it.
func (s *Service) SubmitValues(ctx context.Context, values map[string]interface{}) (*models.SubmissionModel, error) {
	questions, err := s.active.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if values == nil {
		values = map[string]interface{}{}
	}
	if errs := schema.Build(questions).Validate(values); len(errs) > 0 {
		metrics.SubmissionFailures.WithLabelValues("validation").Inc()
		return nil, &ValidationError{Fields: errs}
	}
	return s.Submit(ctx, BuildEntries(questions, values))
}

func (s *Service) checkQuestions(ctx context.Context, entries []Entry) error {
	questions, err := s.questions.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	var unknown []string
	for _, e := range entries {
		if _, ok := known[e.QuestionID]; !ok {
			unknown = append(unknown, e.QuestionID)
		}
	}
	if len(unknown) > 0 {
		metrics.SubmissionFailures.WithLabelValues("unknown_question").Inc()
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, strings.Join(unknown, ", "))
	}
	return nil
}

func compact(entries []Entry) []Entry {
	kept := make([]Entry, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		e.QuestionID = strings.TrimSpace(e.QuestionID)
		if e.QuestionID == "" {
			continue
		}
		if i, ok := index[e.QuestionID]; ok {
			kept[i] = e
			continue
		}
		index[e.QuestionID] = len(kept)
		kept = append(kept, e)
	}
	return kept
}

// List returns a page of submissions with their answers and question metadata.
func (s *Service) List(ctx context.Context, q pagination.Query) ([]models.SubmissionModel, int64, error) {
	items, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	if items == nil {
		items = []models.SubmissionModel{}
	}
	return items, total, nil
}

// Get returns one submission, or nil when it does not exist.
func (s *Service) Get(ctx context.Context, id string) (*models.SubmissionModel, error) {
	return s.store.Get(ctx, id)
}
