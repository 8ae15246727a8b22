package question

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/pkg/response"
	"go.uber.org/zap"
)

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

// RegisterRoutes mounts GET /questions publicly and the CRUD under /admin/questions behind adminMW.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, public gin.HandlerFunc, adminMW ...gin.HandlerFunc) {
	if public != nil {
		rg.GET("/questions", public, h.listActive)
	} else {
		rg.GET("/questions", h.listActive)
	}

	admin := rg.Group("/admin/questions", adminMW...)
	admin.GET("", h.listAll)
	admin.GET("/:id", h.get)
	admin.POST("", h.create)
	admin.PUT("/:id", h.update)
	admin.PATCH("/:id", h.update)
	admin.DELETE("/:id", h.deactivate)
}

func (h *Handler) listActive(c *gin.Context) {
	qs, err := h.svc.Active(c.Request.Context())
	if err != nil {
		h.log.Error("load questions", zap.Error(err))
		response.Failure(c, "Não foi possível carregar o formulário")
		return
	}
	response.OK(c, qs)
}

func (h *Handler) listAll(c *gin.Context) {
	qs, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, qs)
}

func (h *Handler) get(c *gin.Context) {
	q, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if q == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, q)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateQuestionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	q, err := h.svc.Create(c.Request.Context(), &dto)
	if err != nil {
		if errors.Is(err, ErrInvalidQuestion) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, q)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateQuestionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	q, err := h.svc.Update(c.Request.Context(), c.Param("id"), &dto)
	if err != nil {
		if errors.Is(err, ErrInvalidQuestion) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if q == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, q)
}

func (h *Handler) deactivate(c *gin.Context) {
	found, err := h.svc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !found {
		response.NotFound(c)
		return
	}
	response.NoContent(c)
}
