package submission

import (
	"context"
	"fmt"
	"sort"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/modules/survey/form"
	"github.com/mapa-cultural/core/internal/pkg/cep"
)

// ValueCount is one bar of a histogram.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// QuestionStats summarizes the answers of one question.
type QuestionStats struct {
	QuestionID string           `json:"question_id"`
	Label      string           `json:"label"`
	FieldType  models.FieldType `json:"field_type"`
	Section    string           `json:"section,omitempty"`
	IsActive   bool             `json:"is_active"`
	Answered   int              `json:"answered"`
	Values     []ValueCount     `json:"values"`
}

// LocationCount counts submissions per postal code and neighborhood pair.
type LocationCount struct {
	CEP          string `json:"cep"`
	Neighborhood string `json:"neighborhood"`
	Count        int    `json:"count"`
}

type Stats struct {
	Total     int64           `json:"total"`
	Questions []QuestionStats `json:"questions"`
	Locations []LocationCount `json:"locations"`
}

// Stats aggregates every stored answer.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	questions, err := s.questions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}
	answers, err := s.store.Answers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	out := Aggregate(questions, answers)
	out.Total = total
	return out, nil
}

// Aggregate builds unique-value histograms per question and the postal code / neighborhood
// co-aggregation. Image answers are counted but not bucketed.
func Aggregate(questions []models.QuestionModel, answers []models.AnswerModel) *Stats {
	hist := make(map[string]map[string]int, len(questions))
	answered := make(map[string]int, len(questions))
	bySubmission := map[string]map[string]string{}

	for _, a := range answers {
		if a.Value == nil {
			continue
		}
		answered[a.QuestionID]++
		if hist[a.QuestionID] == nil {
			hist[a.QuestionID] = map[string]int{}
		}
		hist[a.QuestionID][*a.Value]++
		if bySubmission[a.SubmissionID] == nil {
			bySubmission[a.SubmissionID] = map[string]string{}
		}
		bySubmission[a.SubmissionID][a.QuestionID] = *a.Value
	}

	out := &Stats{Questions: make([]QuestionStats, 0, len(questions)), Locations: []LocationCount{}}
	for _, q := range questions {
		qs := QuestionStats{
			QuestionID: q.ID,
			Label:      form.TextLabel(q.Label),
			FieldType:  q.FieldType,
			IsActive:   q.IsActive,
			Answered:   answered[q.ID],
			Values:     []ValueCount{},
		}
		if q.Section != nil {
			qs.Section = *q.Section
		}
		if q.FieldType != models.FieldImage {
			qs.Values = sortedCounts(hist[q.ID])
		}
		out.Questions = append(out.Questions, qs)
	}

	cepID := ""
	for _, q := range questions {
		if q.FieldType == models.FieldCEP {
			cepID = q.ID
			break
		}
	}
	if cepID == "" {
		return out
	}
	neighborhoodID := form.DefaultAutofill().Targets(questions, cepID)[form.ConceptNeighborhood]

	type key struct{ cep, neighborhood string }
	locations := map[key]int{}
	for _, values := range bySubmission {
		raw, ok := values[cepID]
		if !ok {
			continue
		}
		k := key{cep: cep.Format(cep.Normalize(raw))}
		if neighborhoodID != "" {
			k.neighborhood = values[neighborhoodID]
		}
		locations[k]++
	}
	for k, n := range locations {
		out.Locations = append(out.Locations, LocationCount{CEP: k.cep, Neighborhood: k.neighborhood, Count: n})
	}
	sort.Slice(out.Locations, func(i, j int) bool {
		a, b := out.Locations[i], out.Locations[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.CEP != b.CEP {
			return a.CEP < b.CEP
		}
		return a.Neighborhood < b.Neighborhood
	})
	return out
}

func sortedCounts(counts map[string]int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
