package postimage

import (
	"errors"
	"html"
	"html/template"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/instagram"
	"github.com/mapa-cultural/core/internal/pkg/markdown"
	"github.com/mapa-cultural/core/internal/pkg/renderer"
	"github.com/mapa-cultural/core/internal/pkg/response"
	"go.uber.org/zap"
)

// CaptionLimit is the longest caption Instagram accepts.
const CaptionLimit = 2200

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminMW ...gin.HandlerFunc) {
	g := rg.Group("/admin/instagram", adminMW...)
	g.POST("/posts/:id/generate", h.generate)
	g.POST("/preview", h.preview)
	g.POST("/caption-preview", h.captionPreview)
}

func (h *Handler) generate(c *gin.Context) {
	id := c.Param("id")
	p, err := h.svc.Generate(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err, zap.String("post_id", id))
		return
	}
	if p == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, p)
}

// preview renders the posted (unsaved) post and streams the PNG back.
// ?slide=N picks a carousel slide, 0-based.
func (h *Handler) preview(c *gin.Context) {
	var p models.InstagramPostModel
	if err := c.ShouldBindJSON(&p); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	slide, err := strconv.Atoi(c.DefaultQuery("slide", "0"))
	if err != nil {
		response.BadRequest(c, "slide inválido")
		return
	}

	png, err := h.svc.Preview(c.Request.Context(), &p, slide)
	if err != nil {
		h.renderError(c, err, zap.String("template", string(p.Template)))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

type captionPreviewDTO struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

type captionPreview struct {
	HTML      template.HTML `json:"html"`
	Text      string        `json:"text"`
	Length    int           `json:"length"`
	Limit     int           `json:"limit"`
	OverLimit bool          `json:"over_limit"`
}

func (h *Handler) captionPreview(c *gin.Context) {
	var dto captionPreviewDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	full := models.InstagramPostModel{Caption: dto.Caption, Hashtags: dto.Hashtags}.FullCaption()
	text := html.UnescapeString(markdown.Plain(full))
	n := utf8.RuneCountInString(full)
	response.OK(c, captionPreview{
		HTML:      markdown.Render(full),
		Text:      text,
		Length:    n,
		Limit:     CaptionLimit,
		OverLimit: n > CaptionLimit,
	})
}

func (h *Handler) renderError(c *gin.Context, err error, fields ...zap.Field) {
	switch {
	case errors.Is(err, renderer.ErrBrowserNotFound):
		h.log.Error("post render", append(fields, zap.Error(err))...)
		response.Failure(c, "Navegador headless não encontrado; configure CHROME_PATH")
	case errors.Is(err, ErrPublished):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrNoSlides),
		errors.Is(err, ErrUnknownTemplate),
		errors.Is(err, ErrSlideOutside),
		errors.Is(err, instagram.ErrTooManyImages):
		response.BadRequest(c, err.Error())
	default:
		h.log.Error("post render", append(fields, zap.Error(err))...)
		response.InternalError(c, err)
	}
}
