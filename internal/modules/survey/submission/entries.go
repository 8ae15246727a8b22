package submission

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mapa-cultural/core/internal/models"
)

// Entry is one (question, value, file) tuple of a submission.
type Entry struct {
	QuestionID string  `json:"question_id"`
	Value      *string `json:"value"`
	FileURL    *string `json:"file_url"`
}

// AnswerInput is an answer as posted by the public form.
type AnswerInput struct {
	QuestionID string      `json:"question_id"`
	Value      interface{} `json:"value"`
	FileURL    *string     `json:"file_url"`
}

// BuildEntries produces one entry per question, answered or not.
// Missing and empty values become nil; file URLs are kept for image questions only.
func BuildEntries(questions []models.QuestionModel, values map[string]interface{}) []Entry {
	entries := make([]Entry, 0, len(questions))
	for _, q := range questions {
		e := Entry{QuestionID: q.ID, Value: NormalizeValue(values[q.ID])}
		if q.FieldType == models.FieldImage {
			e.FileURL = e.Value
		}
		entries = append(entries, e)
	}
	return entries
}

// FromAnswers converts posted answers into entries.
func FromAnswers(inputs []AnswerInput) []Entry {
	entries := make([]Entry, 0, len(inputs))
	for _, in := range inputs {
		e := Entry{QuestionID: strings.TrimSpace(in.QuestionID), Value: NormalizeValue(in.Value)}
		if in.FileURL != nil {
			e.FileURL = NormalizeValue(*in.FileURL)
		}
		entries = append(entries, e)
	}
	return entries
}

// NormalizeValue turns a posted value into its stored text form; nil and blank strings become nil.
func NormalizeValue(v interface{}) *string {
	var s string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s = x
	case *string:
		if x == nil {
			return nil
		}
		s = *x
	case bool:
		s = strconv.FormatBool(x)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		s = strconv.Itoa(x)
	case []interface{}:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if p := NormalizeValue(item); p != nil {
				parts = append(parts, *p)
			}
		}
		s = strings.Join(parts, ", ")
	default:
		s = fmt.Sprint(x)
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
