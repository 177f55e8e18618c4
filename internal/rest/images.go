package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/gogallery/api"
	"github.com/dfryer1193/gogallery/gallery/domain"
	"github.com/dfryer1193/gogallery/internal/metrics"
)

// ImageService is what the handlers need from the application layer.
type ImageService interface {
	ListImages(ctx context.Context, cursor string) (domain.Page, error)
	CreateImage(ctx context.Context, img domain.NewImage) (*domain.ImageRecord, error)
	GetImage(ctx context.Context, id string) (*domain.ImageRecord, error)
}

type ImagesHandler struct {
	service ImageService
	metrics *metrics.Metrics
}

func NewImagesHandler(service ImageService, m *metrics.Metrics) *ImagesHandler {
	return &ImagesHandler{service: service, metrics: m}
}

// ListImages serves GET /api/images?after=<cursor>.
func (h *ImagesHandler) ListImages(c *gin.Context) {
	start := time.Now()

	page, err := h.service.ListImages(c.Request.Context(), c.Query("after"))
	if err != nil {
		h.fail(c, "list_images", err)
		return
	}

	h.metrics.ObserveListImages(start)
	c.JSON(http.StatusOK, api.FromPage(page))
}

// CreateImage serves POST /api/images and answers 201 with the new record.
func (h *ImagesHandler) CreateImage(c *gin.Context) {
	var body api.NewImageData
	if err := c.ShouldBindJSON(&body); err != nil {
		h.metrics.IncrementRequestError("create_image", strconv.Itoa(http.StatusBadRequest))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.CreateImage(c.Request.Context(), body.ToDomain())
	if err != nil {
		h.fail(c, "create_image", err)
		return
	}

	h.metrics.IncrementImagesCreated()
	c.JSON(http.StatusCreated, api.FromRecord(*record))
}

// GetImage serves GET /api/images/:id.
func (h *ImagesHandler) GetImage(c *gin.Context) {
	record, err := h.service.GetImage(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get_image", err)
		return
	}

	c.JSON(http.StatusOK, api.FromRecord(*record))
}

func (h *ImagesHandler) fail(c *gin.Context, operation string, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrInvalidCursor):
		status, message = http.StatusBadRequest, "invalid cursor"
	case errors.Is(err, domain.ErrInvalidImage):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrImageNotFound):
		status, message = http.StatusNotFound, "image not found"
	default:
		log.Error().Err(err).Str("operation", operation).Msg("Request failed")
	}

	_ = c.Error(err)
	h.metrics.IncrementRequestError(operation, strconv.Itoa(status))
	c.JSON(status, gin.H{"error": message})
}
