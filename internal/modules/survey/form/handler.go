package form

import (
	"context"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/modules/survey/question"
	"github.com/mapa-cultural/core/internal/modules/survey/schema"
	"github.com/mapa-cultural/core/internal/pkg/response"
	"go.uber.org/zap"
)

// QuestionSource provides the active schema in display order.
type QuestionSource interface {
	Get(ctx context.Context) ([]models.QuestionModel, error)
	Sections(ctx context.Context) ([]question.Section, error)
}

// HomeRenderer renders the landing page content above the form.
type HomeRenderer interface {
	RenderHTML(ctx context.Context) (template.HTML, error)
}

type Handler struct {
	questions QuestionSource
	gate      *Gate
	home      HomeRenderer
	log       *zap.Logger
}

func NewHandler(questions QuestionSource, gate *Gate, home HomeRenderer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{questions: questions, gate: gate, home: home, log: log}
}

type gateRequest struct {
	CEP string `json:"cep"`
	Seq uint64 `json:"seq"`
}

type gateResponse struct {
	GateResult
	Seq uint64 `json:"seq"`
}

type validateRequest struct {
	Values map[string]interface{} `json:"values"`
}

type validateResponse struct {
	Valid  bool               `json:"valid"`
	Errors schema.FieldErrors `json:"errors"`
}

// RegisterPage mounts the landing page on the engine root.
func (h *Handler) RegisterPage(r gin.IRoutes) {
	r.GET("/", h.page)
}

// RegisterRoutes mounts the form API under rg. gateMW guards the lookup endpoint.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, gateMW ...gin.HandlerFunc) {
	g := rg.Group("/form")
	handlers := append(append([]gin.HandlerFunc{}, gateMW...), h.evaluateGate)
	g.POST("/gate", handlers...)
	g.POST("/validate", h.validate)
}

func (h *Handler) page(c *gin.Context) {
	ctx := c.Request.Context()
	sections, err := h.questions.Sections(ctx)
	if err != nil {
		h.log.Error("load form sections", zap.Error(err))
		c.String(http.StatusInternalServerError, "Não foi possível carregar o formulário")
		return
	}
	questions, err := h.questions.Get(ctx)
	if err != nil {
		h.log.Error("load form questions", zap.Error(err))
		c.String(http.StatusInternalServerError, "Não foi possível carregar o formulário")
		return
	}
	h.warnUnknown(schema.Build(questions))

	m := NewMachine(h.gate, questions)
	page := BuildPage(sections, m.Snapshot(), h.gate.Strategy().Targets(questions, m.CEPField()), h.gate.AllowedCity())
	if h.home != nil {
		home, err := h.home.RenderHTML(ctx)
		if err != nil {
			h.log.Warn("render home content", zap.Error(err))
		} else {
			page.Home = home
		}
	}

	body, err := Render(page)
	if err != nil {
		h.log.Error("render landing page", zap.Error(err))
		c.String(http.StatusInternalServerError, "Não foi possível carregar o formulário")
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

func (h *Handler) evaluateGate(c *gin.Context) {
	var req gateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Informe o CEP")
		return
	}
	questions, err := h.questions.Get(c.Request.Context())
	if err != nil {
		h.log.Error("load form questions", zap.Error(err))
		response.Failure(c, "Não foi possível carregar o formulário")
		return
	}
	res := h.gate.Evaluate(c.Request.Context(), questions, req.CEP)
	response.OK(c, gateResponse{GateResult: res, Seq: req.Seq})
}

func (h *Handler) validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	questions, err := h.questions.Get(c.Request.Context())
	if err != nil {
		h.log.Error("load form questions", zap.Error(err))
		response.Failure(c, "Não foi possível carregar o formulário")
		return
	}
	s := schema.Build(questions)
	h.warnUnknown(s)
	if req.Values == nil {
		req.Values = map[string]interface{}{}
	}
	errs := s.Validate(req.Values)
	response.OK(c, validateResponse{Valid: len(errs) == 0, Errors: errs})
}

func (h *Handler) warnUnknown(s *schema.Schema) {
	for _, r := range s.Unknown() {
		h.log.Warn("unknown question field type, validating as text",
			zap.String("question_id", r.Field), zap.String("field_type", string(r.Declared)))
	}
}
