package submission

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/imageproc"
	"github.com/mapa-cultural/core/internal/pkg/pagination"
	"github.com/mapa-cultural/core/internal/pkg/response"
	"github.com/mapa-cultural/core/internal/pkg/storage"
	"go.uber.org/zap"
)

const answerUploadFolder = "answers"

type Handler struct {
	svc       *Service
	uploads   storage.Storage
	maxUpload int64
	log       *zap.Logger
}

func NewHandler(svc *Service, uploads storage.Storage, maxUploadBytes int64, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, uploads: uploads, maxUpload: maxUploadBytes, log: log}
}

type submitRequest struct {
	Answers []AnswerInput          `json:"answers"`
	Values  map[string]interface{} `json:"values"`
}

// RegisterRoutes mounts the public write endpoints behind publicMW and the admin reads behind adminMW.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, publicMW []gin.HandlerFunc, adminMW ...gin.HandlerFunc) {
	public := rg.Group("", publicMW...)
	public.POST("/submissions", h.submit)
	public.POST("/uploads", h.upload)

	admin := rg.Group("/admin/submissions", adminMW...)
	admin.GET("", h.list)
	admin.GET("/stats", h.stats)
	admin.GET("/export", h.export)
	admin.GET("/:id", h.get)
}

func (h *Handler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Corpo da requisição inválido")
		return
	}

	ctx := c.Request.Context()
	var (
		sub *models.SubmissionModel
		err error
	)
	if req.Values != nil {
		sub, err = h.svc.SubmitValues(ctx, req.Values)
	} else {
		sub, err = h.svc.Submit(ctx, FromAnswers(req.Answers))
	}
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.Is(err, ErrNoAnswers), errors.Is(err, ErrUnknownQuestion):
			response.BadRequest(c, err.Error())
		case errors.As(err, &verr):
			response.ValidationFailed(c, "Confira os campos destacados", verr.Fields)
		default:
			h.log.Error("submit form", zap.Error(err))
			response.Failure(c, "Não foi possível enviar suas respostas. Tente novamente.")
		}
		return
	}
	response.Created(c, gin.H{"id": sub.ID})
}

func (h *Handler) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Envie um arquivo no campo file")
		return
	}
	data, err := storage.ReadUpload(fh, h.maxUpload)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			response.PayloadTooLarge(c, fmt.Sprintf("A imagem deve ter no máximo %d MB", h.maxUpload>>20))
			return
		}
		response.BadRequest(c, "Não foi possível ler o arquivo")
		return
	}
	ct, ok := imageproc.DetectContentType(data)
	if !ok {
		response.BadRequest(c, "Formato de imagem não suportado")
		return
	}

	key := storage.ObjectKey(answerUploadFolder, fh.Filename, time.Now())
	url, err := h.uploads.Put(c.Request.Context(), key, data, ct)
	if err != nil {
		h.log.Error("store answer upload", zap.String("key", key), zap.Error(err))
		response.Failure(c, "Falha no envio da imagem")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url, "key": key})
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, pagination.Meta(q, total))
}

func (h *Handler) get(c *gin.Context) {
	sub, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if sub == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, sub)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, stats)
}

func (h *Handler) export(c *gin.Context) {
	name := fmt.Sprintf("respostas-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Status(http.StatusOK)
	if err := h.svc.Export(c.Request.Context(), c.Writer); err != nil {
		h.log.Error("export submissions", zap.Error(err))
	}
}
