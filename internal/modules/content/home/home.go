package home

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/markdown"
	"github.com/mapa-cultural/core/internal/pkg/response"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheControl is sent with the public document.
const CacheControl = "public, max-age=60, stale-while-revalidate=300"

const maxDocumentBytes = 1 << 20

// ErrInvalidDocument is returned for payloads that are not a JSON object or array.
var ErrInvalidDocument = errors.New("o conteúdo deve ser um objeto ou uma lista JSON")

const emptyDocument = `{}`

// Store reads and writes the singleton row.
type Store interface {
	Get(ctx context.Context) (*models.HomeContentModel, error)
	Save(ctx context.Context, doc *models.HomeContentModel) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) Get(ctx context.Context) (*models.HomeContentModel, error) {
	var doc models.HomeContentModel
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", models.HomeContentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (s *GormStore) Save(ctx context.Context, doc *models.HomeContentModel) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(doc).Error
}

type Service struct {
	store    Store
	log      *zap.Logger
	mu       sync.Mutex
	onChange []func(context.Context)
}

func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

// OnChange registers a hook run after every successful write.
func (s *Service) OnChange(fn func(context.Context)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Document returns the stored JSON document, or an empty object when none was saved.
func (s *Service) Document(ctx context.Context) (string, error) {
	doc, err := s.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("load home content: %w", err)
	}
	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		return emptyDocument, nil
	}
	return doc.Content, nil
}

// Save replaces the document. Only JSON objects and arrays are accepted.
func (s *Service) Save(ctx context.Context, raw []byte) error {
	trimmed := strings.TrimSpace(string(raw))
	if !gjson.Valid(trimmed) {
		return ErrInvalidDocument
	}
	if r := gjson.Parse(trimmed); !r.IsObject() && !r.IsArray() {
		return ErrInvalidDocument
	}
	if err := s.store.Save(ctx, &models.HomeContentModel{ID: models.HomeContentID, Content: trimmed}); err != nil {
		return fmt.Errorf("save home content: %w", err)
	}

	s.mu.Lock()
	hooks := append([]func(context.Context){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx)
	}
	return nil
}

// RenderHTML renders the block document for the landing page.
func (s *Service) RenderHTML(ctx context.Context) (template.HTML, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return "", err
	}
	return RenderBlocks(doc), nil
}

// RenderBlocks renders either a bare block array or an object carrying "blocks".
// Unknown block types are skipped.
func RenderBlocks(doc string) template.HTML {
	root := gjson.Parse(doc)
	blocks := root
	if root.IsObject() {
		blocks = root.Get("blocks")
	}
	if !blocks.IsArray() {
		return ""
	}

	var b strings.Builder
	blocks.ForEach(func(_, block gjson.Result) bool {
		b.WriteString(renderBlock(block))
		return true
	})
	return template.HTML(b.String())
}

func renderBlock(block gjson.Result) string {
	esc := template.HTMLEscapeString
	text := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(block.Get(k).String()); v != "" {
				return v
			}
		}
		return ""
	}

	switch strings.ToLower(block.Get("type").String()) {
	case "heading", "title":
		level := block.Get("level").Int()
		if level < 1 || level > 3 {
			level = 1
		}
		return fmt.Sprintf("<h%d>%s</h%d>", level, esc(text("text", "content")), level)
	case "text", "paragraph", "markdown":
		return `<div class="block-text">` + string(markdown.Render(text("text", "content", "markdown"))) + `</div>`
	case "image":
		src := text("url", "src")
		if !isHTTPURL(src) {
			return ""
		}
		return fmt.Sprintf(`<figure><img src="%s" alt="%s" loading="lazy"></figure>`, esc(src), esc(text("alt", "caption")))
	case "button", "cta", "link":
		href := text("href", "url")
		if !isHTTPURL(href) && !strings.HasPrefix(href, "#") {
			return ""
		}
		return fmt.Sprintf(`<p><a class="cta" href="%s">%s</a></p>`, esc(href), esc(text("label", "text")))
	default:
		return ""
	}
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "/")
}

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts GET /home behind publicMW and PUT /admin/home behind adminMW.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, publicMW []gin.HandlerFunc, adminMW ...gin.HandlerFunc) {
	get := append(append([]gin.HandlerFunc{}, publicMW...), h.get)
	rg.GET("/home", get...)
	rg.Group("/admin/home", adminMW...).PUT("", h.put)
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.svc.Document(c.Request.Context())
	if err != nil {
		h.log.Error("load home content", zap.Error(err))
		response.Failure(c, "Não foi possível carregar o conteúdo")
		return
	}
	c.Header("Cache-Control", CacheControl)
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}

func (h *Handler) put(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentBytes+1))
	if err != nil {
		response.BadRequest(c, "Corpo da requisição inválido")
		return
	}
	if len(raw) > maxDocumentBytes {
		response.PayloadTooLarge(c, "Conteúdo muito grande")
		return
	}
	if err := h.svc.Save(c.Request.Context(), raw); err != nil {
		if errors.Is(err, ErrInvalidDocument) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(strings.TrimSpace(string(raw))))
}
