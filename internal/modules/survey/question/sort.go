package question

import (
	"sort"
	"strings"

	"github.com/mapa-cultural/core/internal/models"
)

// SortQuestions orders questions section by section.
// Sections with an explicit order come first (ascending, name breaks ties), then
// unordered sections alphabetically, and the catch-all section always last.
// Questions without a section belong to the catch-all section.
func SortQuestions(questions []models.QuestionModel, orders []models.SectionOrderModel, catchAll string) []models.QuestionModel {
	sections := GroupBySection(questions, orders, catchAll)
	out := make([]models.QuestionModel, 0, len(questions))
	for _, s := range sections {
		out = append(out, s.Questions...)
	}
	return out
}

// GroupBySection buckets questions into sorted sections, each sorted by question order.
func GroupBySection(questions []models.QuestionModel, orders []models.SectionOrderModel, catchAll string) []Section {
	byName := map[string][]models.QuestionModel{}
	names := make([]string, 0)
	for _, q := range questions {
		name := q.SectionName(catchAll)
		if _, ok := byName[name]; !ok {
			names = append(names, name)
		}
		byName[name] = append(byName[name], q)
	}

	SortSectionNames(names, orders, catchAll)

	sections := make([]Section, 0, len(names))
	for _, name := range names {
		qs := byName[name]
		sort.SliceStable(qs, func(i, j int) bool {
			if qs[i].Order != qs[j].Order {
				return qs[i].Order < qs[j].Order
			}
			return qs[i].CreatedAt.Before(qs[j].CreatedAt)
		})
		sections = append(sections, Section{Name: name, Questions: qs})
	}
	return sections
}

// SortSectionNames sorts names in place using the section ordering rules.
func SortSectionNames(names []string, orders []models.SectionOrderModel, catchAll string) {
	rank := make(map[string]int, len(orders))
	for _, o := range orders {
		rank[o.Section] = o.Order
	}
	sort.SliceStable(names, func(i, j int) bool {
		a, b := names[i], names[j]
		if a == catchAll || b == catchAll {
			return b == catchAll && a != catchAll
		}
		ra, aok := rank[a]
		rb, bok := rank[b]
		switch {
		case aok && bok:
			if ra != rb {
				return ra < rb
			}
			return strings.ToLower(a) < strings.ToLower(b)
		case aok:
			return true
		case bok:
			return false
		default:
			return strings.ToLower(a) < strings.ToLower(b)
		}
	})
}
