package section

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/modules/survey/question"
	"github.com/mapa-cultural/core/internal/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidOrder = errors.New("invalid section order")

// Entry is a section known to the form and its explicit order, if any.
type Entry struct {
	Section   string `json:"section"`
	Order     *int   `json:"order"`
	Questions int    `json:"questions"`
}

type OrderDTO struct {
	Section string `json:"section" binding:"required"`
	Order   int    `json:"order"`
}

// Store persists section ordering.
type Store interface {
	Orders(ctx context.Context) ([]models.SectionOrderModel, error)
	QuestionSections(ctx context.Context) (map[string]int, error)
	ReplaceOrders(ctx context.Context, rows []models.SectionOrderModel) error
	DeleteOrder(ctx context.Context, section string) (bool, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Orders(ctx context.Context) ([]models.SectionOrderModel, error) {
	var rows []models.SectionOrderModel
	return rows, s.db.WithContext(ctx).Order("display_order ASC").Find(&rows).Error
}

// QuestionSections counts questions per section; questions without one are counted under "".
func (s *GormStore) QuestionSections(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Section *string
		Total   int
	}
	err := s.db.WithContext(ctx).Model(&models.QuestionModel{}).
		Select("section, COUNT(*) AS total").
		Group("section").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		name := ""
		if r.Section != nil {
			name = strings.TrimSpace(*r.Section)
		}
		out[name] += r.Total
	}
	return out, nil
}

func (s *GormStore) ReplaceOrders(ctx context.Context, rows []models.SectionOrderModel) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.SectionOrderModel{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "section"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_order"}),
		}).Create(&rows).Error
	})
}

func (s *GormStore) DeleteOrder(ctx context.Context, section string) (bool, error) {
	res := s.db.WithContext(ctx).Where("section = ?", section).Delete(&models.SectionOrderModel{})
	return res.RowsAffected > 0, res.Error
}

type Service struct {
	store    Store
	catchAll string
	cache    *question.Cache
}

func NewService(store Store, catchAll string, cache *question.Cache) *Service {
	return &Service{store: store, catchAll: catchAll, cache: cache}
}

// List returns every section referenced by an order row or a question, in form order.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	orders, err := s.store.Orders(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.QuestionSections(ctx)
	if err != nil {
		return nil, err
	}

	byName := map[string]*Entry{}
	names := []string{}
	add := func(name string) *Entry {
		if e, ok := byName[name]; ok {
			return e
		}
		e := &Entry{Section: name}
		byName[name] = e
		names = append(names, name)
		return e
	}
	for _, o := range orders {
		order := o.Order
		add(o.Section).Order = &order
	}
	for name, n := range counts {
		if name == "" {
			name = s.catchAll
		}
		add(name).Questions += n
	}

	question.SortSectionNames(names, orders, s.catchAll)
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		out = append(out, *byName[name])
	}
	return out, nil
}

// Replace swaps the whole ordering table for the given rows.
func (s *Service) Replace(ctx context.Context, dtos []OrderDTO) ([]Entry, error) {
	rows := make([]models.SectionOrderModel, 0, len(dtos))
	seen := map[string]bool{}
	for _, d := range dtos {
		name := strings.TrimSpace(d.Section)
		if name == "" {
			return nil, fmt.Errorf("%w: section name is required", ErrInvalidOrder)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: section %q listed twice", ErrInvalidOrder, name)
		}
		seen[name] = true
		rows = append(rows, models.SectionOrderModel{Section: name, Order: d.Order})
	}
	if err := s.store.ReplaceOrders(ctx, rows); err != nil {
		return nil, err
	}
	s.invalidate()
	return s.List(ctx)
}

func (s *Service) Delete(ctx context.Context, name string) (bool, error) {
	ok, err := s.store.DeleteOrder(ctx, strings.TrimSpace(name))
	if err == nil && ok {
		s.invalidate()
	}
	return ok, err
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminMW ...gin.HandlerFunc) {
	g := rg.Group("/admin/sections", adminMW...)
	g.GET("", h.list)
	g.PUT("", h.replace)
	g.DELETE("/:name", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	entries, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, entries)
}

func (h *Handler) replace(c *gin.Context) {
	var dtos []OrderDTO
	if err := c.ShouldBindJSON(&dtos); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	entries, err := h.svc.Replace(c.Request.Context(), dtos)
	if err != nil {
		if errors.Is(err, ErrInvalidOrder) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, entries)
}

func (h *Handler) delete(c *gin.Context) {
	ok, err := h.svc.Delete(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !ok {
		response.NotFound(c)
		return
	}
	response.NoContent(c)
}
