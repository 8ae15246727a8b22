package post

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/instagram"
	"github.com/mapa-cultural/core/internal/pkg/pagination"
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

// RegisterRoutes mounts the post CRUD under /admin/instagram/posts.
// publishMW runs only in front of the publish trigger.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, publishMW []gin.HandlerFunc, adminMW ...gin.HandlerFunc) {
	g := rg.Group("/admin/instagram/posts", adminMW...)
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/publish", append(append([]gin.HandlerFunc{}, publishMW...), h.publish)...)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	status := c.Query("status")
	if status != "" && status != models.PostStatusDraft && status != models.PostStatusPublished {
		response.BadRequest(c, "status inválido")
		return
	}
	posts, total, err := h.svc.List(c.Request.Context(), q, status)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, posts, pagination.Meta(q, total))
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if p == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, p)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.Create(c.Request.Context(), &dto)
	if err != nil {
		if errors.Is(err, ErrInvalidPost) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, p)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), &dto)
	if err != nil {
		if errors.Is(err, ErrInvalidPost) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if p == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, p)
}

func (h *Handler) delete(c *gin.Context) {
	found, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
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

func (h *Handler) publish(c *gin.Context) {
	id := c.Param("id")
	p, err := h.svc.Publish(c.Request.Context(), id)
	var graphErr *instagram.GraphError
	switch {
	case err == nil && p == nil:
		response.NotFound(c)
	case err == nil:
		response.OK(c, p)
	case errors.Is(err, ErrAlreadyPublished):
		response.Conflict(c, err.Error())
	case errors.Is(err, instagram.ErrNoImages), errors.Is(err, instagram.ErrTooManyImages):
		response.BadRequest(c, err.Error())
	case errors.Is(err, instagram.ErrNotConfigured):
		response.Failure(c, "Publicação no Instagram não configurada")
	case errors.As(err, &graphErr):
		h.log.Warn("instagram publish rejected", zap.String("post_id", id), zap.Error(err))
		response.BadGateway(c, graphErr.Message)
	default:
		h.log.Error("instagram publish", zap.String("post_id", id), zap.Error(err))
		response.InternalError(c, err)
	}
}
