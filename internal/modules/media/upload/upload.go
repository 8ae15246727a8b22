package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/pkg/imageproc"
	"github.com/mapa-cultural/core/internal/pkg/response"
	"github.com/mapa-cultural/core/internal/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultFolder   = "uploads"
	heroFolder      = "hero"
	squareFolder    = "square"
	maxBatchImages  = 10
	batchConcurrent = 4
)

var (
	errNotImage      = errors.New("formato de imagem não suportado")
	errInvalidBase64 = errors.New("base64 inválido")
)

// Result describes a stored object.
type Result struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int    `json:"size"`
	ContentType string `json:"content_type"`
}

type Service struct {
	store    storage.Storage
	maxBytes int64
	now      func() time.Time
}

func NewService(store storage.Storage, maxBytes int64) *Service {
	return &Service{store: store, maxBytes: maxBytes, now: time.Now}
}

// Put stores data under a randomized key inside folder.
func (s *Service) Put(ctx context.Context, folder, name string, data []byte, contentType string) (*Result, error) {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	key := storage.ObjectKey(folder, name, s.now())
	url, err := s.store.Put(ctx, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", key, err)
	}
	return &Result{Name: name, Key: key, URL: url, Size: len(data), ContentType: contentType}, nil
}

// Hero re-encodes an image as WebP and stores it in the hero folder.
func (s *Service) Hero(ctx context.Context, name string, data []byte) (*Result, error) {
	out, err := imageproc.HeroWebP(data)
	if err != nil {
		return nil, err
	}
	return s.Put(ctx, heroFolder, replaceExt(name, imageproc.WebP.Ext()), out, imageproc.WebP.ContentType())
}

// Base64Image is one entry of a batch upload. Data may be a bare base64 string or a data URL.
type Base64Image struct {
	Name string `json:"name"`
	Data string `json:"data" binding:"required"`
}

// PutBase64 decodes and stores images concurrently. Results keep the input order.
func (s *Service) PutBase64(ctx context.Context, folder string, images []Base64Image) ([]Result, error) {
	decoded := make([][]byte, len(images))
	for i, img := range images {
		data, err := decodeBase64(img.Data)
		if err != nil {
			return nil, fmt.Errorf("imagem %d: %w", i+1, errInvalidBase64)
		}
		if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
			return nil, fmt.Errorf("imagem %d: %w", i+1, storage.ErrTooLarge)
		}
		if _, ok := imageproc.DetectContentType(data); !ok {
			return nil, fmt.Errorf("imagem %d: %w", i+1, errNotImage)
		}
		decoded[i] = data
	}

	results := make([]Result, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrent)
	for i := range images {
		g.Go(func() error {
			ct, _ := imageproc.DetectContentType(decoded[i])
			name := images[i].Name
			if strings.TrimSpace(name) == "" {
				name = "imagem-" + strconv.Itoa(i+1) + extFor(ct)
			}
			res, err := s.Put(gctx, folder, name, decoded[i], ct)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func decodeBase64(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "data:") {
		if i := strings.Index(data, ","); i >= 0 {
			data = data[i+1:]
		}
	}
	out, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		out, err = base64.RawStdEncoding.DecodeString(data)
	}
	return out, err
}

func replaceExt(name, ext string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.TrimSpace(base) == "" {
		base = "hero"
	}
	return base + ext
}

func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
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

// RegisterRoutes mounts the admin media endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminMW ...gin.HandlerFunc) {
	admin := rg.Group("/admin", adminMW...)
	admin.POST("/upload", h.upload)
	admin.POST("/upload/hero", h.hero)
	admin.POST("/upload/base64", h.base64)
	admin.POST("/images/crop-square", h.cropSquare)
}

func (h *Handler) readFile(c *gin.Context) (string, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Envie um arquivo no campo file")
		return "", nil, false
	}
	data, err := storage.ReadUpload(fh, h.svc.maxBytes)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			response.PayloadTooLarge(c, fmt.Sprintf("O arquivo deve ter no máximo %d MB", h.svc.maxBytes>>20))
			return "", nil, false
		}
		response.BadRequest(c, "Não foi possível ler o arquivo")
		return "", nil, false
	}
	return fh.Filename, data, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, imageproc.ErrUnsupportedFormat), errors.Is(err, errNotImage):
		response.BadRequest(c, errNotImage.Error())
	case errors.Is(err, storage.ErrTooLarge):
		response.PayloadTooLarge(c, err.Error())
	default:
		h.log.Error("media upload", zap.Error(err))
		response.Failure(c, "Falha no envio do arquivo")
	}
}

func (h *Handler) upload(c *gin.Context) {
	name, data, ok := h.readFile(c)
	if !ok {
		return
	}
	folder := storage.SanitizeFolder(c.DefaultPostForm("folder", defaultFolder))
	res, err := h.svc.Put(c.Request.Context(), folder, name, data, "")
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, res)
}

func (h *Handler) hero(c *gin.Context) {
	name, data, ok := h.readFile(c)
	if !ok {
		return
	}
	res, err := h.svc.Hero(c.Request.Context(), name, data)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, res)
}

func (h *Handler) cropSquare(c *gin.Context) {
	name, data, ok := h.readFile(c)
	if !ok {
		return
	}
	size, _ := strconv.Atoi(c.DefaultPostForm("size", c.DefaultQuery("size", "")))
	format := imageproc.ParseFormat(c.DefaultPostForm("format", c.DefaultQuery("format", "png")))
	if format == imageproc.WebP {
		format = imageproc.PNG
	}

	out, err := imageproc.CropSquare(data, size, format)
	if err != nil {
		h.fail(c, err)
		return
	}
	if c.DefaultPostForm("upload", c.Query("upload")) != "true" {
		c.Data(http.StatusOK, format.ContentType(), out)
		return
	}
	res, err := h.svc.Put(c.Request.Context(), squareFolder, replaceExt(name, format.Ext()), out, format.ContentType())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, res)
}

type base64Request struct {
	Folder string        `json:"folder"`
	Images []Base64Image `json:"images" binding:"required,min=1,dive"`
}

func (h *Handler) base64(c *gin.Context) {
	var req base64Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Envie ao menos uma imagem")
		return
	}
	if len(req.Images) > maxBatchImages {
		response.BadRequest(c, fmt.Sprintf("Envie no máximo %d imagens por vez", maxBatchImages))
		return
	}
	folder := storage.SanitizeFolder(req.Folder)
	if folder == "" {
		folder = defaultFolder
	}
	results, err := h.svc.PutBase64(c.Request.Context(), folder, req.Images)
	if err != nil {
		if errors.Is(err, errNotImage) || errors.Is(err, storage.ErrTooLarge) || errors.Is(err, errInvalidBase64) {
			response.BadRequest(c, err.Error())
			return
		}
		h.fail(c, err)
		return
	}
	response.OK(c, results)
}
