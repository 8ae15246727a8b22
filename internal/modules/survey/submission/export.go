package submission

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/mapa-cultural/core/internal/modules/survey/form"
	"github.com/mapa-cultural/core/internal/pkg/pagination"
)

// utf8BOM lets spreadsheet apps detect the encoding of accented labels.
const utf8BOM = "\ufeff"

// Export writes every submission as one CSV row, one column per question.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	questions, err := s.questions.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"submission_id", "created_at"}
	for _, q := range questions {
		header = append(header, form.TextLabel(q.Label))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	q := pagination.Query{Page: 1, Size: pagination.MaxSize}
	for {
		items, total, err := s.store.List(ctx, q)
		if err != nil {
			return fmt.Errorf("list submissions: %w", err)
		}
		for _, sub := range items {
			values := make(map[string]string, len(sub.Answers))
			for _, a := range sub.Answers {
				switch {
				case a.FileURL != nil:
					values[a.QuestionID] = *a.FileURL
				case a.Value != nil:
					values[a.QuestionID] = *a.Value
				}
			}
			row := []string{sub.ID, sub.CreatedAt.UTC().Format(time.RFC3339)}
			for _, question := range questions {
				row = append(row, values[question.ID])
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		if len(items) == 0 || int64(q.Page*q.Size) >= total {
			break
		}
		q.Page++
	}
	cw.Flush()
	return cw.Error()
}
