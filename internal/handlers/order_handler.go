package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/geotax/api/internal/errors"
	"github.com/geotax/api/internal/importer"
	"github.com/geotax/api/internal/middleware"
	"github.com/geotax/api/internal/queue"
	"github.com/geotax/api/internal/repository"
	"github.com/geotax/api/internal/services"
)

// MaxImportSize bounds uploaded CSV payloads to 20 MiB.
const MaxImportSize = 20 << 20

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service services.TaxService
	jobs    repository.ImportJobRepository
	queue   queue.Queue
}

// NewOrderHandler creates a new OrderHandler instance.
func NewOrderHandler(service services.TaxService, jobs repository.ImportJobRepository, q queue.Queue) *OrderHandler {
	return &OrderHandler{
		service: service,
		jobs:    jobs,
		queue:   q,
	}
}

// CreateOrderRequest represents the body of the create-order endpoint.
// Subtotal is a string on purpose: money never rides in a JSON float.
type CreateOrderRequest struct {
	Lat       *float64   `json:"lat" binding:"required"`
	Lon       *float64   `json:"lon" binding:"required"`
	Subtotal  string     `json:"subtotal" binding:"required"`
	Timestamp *time.Time `json:"timestamp"`
}

// Create handles POST /api/v1/orders.
// It processes and persists a single order, returning the full record.
func (h *OrderHandler) Create(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	if log != nil {
		log.Info("Processing order", map[string]interface{}{
			"lat": *req.Lat,
			"lon": *req.Lon,
		})
	}

	order, err := h.service.ProcessOrder(c.Request.Context(), services.ProcessOrderInput{
		Lat:       *req.Lat,
		Lon:       *req.Lon,
		Subtotal:  req.Subtotal,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidCoordinates) || errors.Is(err, services.ErrInvalidSubtotal) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		if errors.Is(err, services.ErrResolverFailure) {
			apierrors.ResolverError(c, "Geocode provider is unavailable", err)
			return
		}
		apierrors.InternalServerError(c, "Failed to process order", err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// List handles GET /api/v1/orders.
// Supports ?ordering=(-)id|(-)created_at and ?page=N; pages are 50 orders.
func (h *OrderHandler) List(c *gin.Context) {
	ordering := c.DefaultQuery("ordering", "-created_at")

	page := 1
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			apierrors.BadRequest(c, "page must be a positive integer", nil)
			return
		}
		page = parsed
	}

	result, err := h.service.ListOrders(c.Request.Context(), ordering, page)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidOrdering) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to list orders", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Clear handles POST /api/v1/orders/clear.
// Removes every persisted order.
func (h *OrderHandler) Clear(c *gin.Context) {
	if err := h.service.ClearOrders(c.Request.Context()); err != nil {
		apierrors.InternalServerError(c, "Failed to clear orders", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportCSV handles POST /api/v1/orders/import_csv.
// Accepts a multipart upload under "file", registers a PENDING job, enqueues
// it for the workers and returns the job record with 202.
func (h *OrderHandler) ImportCSV(c *gin.Context) {
	log := middleware.GetLogger(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "Multipart field \"file\" is required", nil)
		return
	}
	if fileHeader.Size > MaxImportSize {
		apierrors.BadRequest(c, "Import file exceeds the 20 MiB limit", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apierrors.InternalServerError(c, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, MaxImportSize))
	if err != nil {
		apierrors.InternalServerError(c, "Failed to read uploaded file", err)
		return
	}

	text, err := importer.Decode(payload)
	if err != nil {
		apierrors.BadRequest(c, "File could not be decoded as text", nil)
		return
	}

	job, err := h.jobs.Create(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to create import job", err)
		return
	}

	if err := h.queue.Enqueue(c.Request.Context(), queue.ImportTask{JobID: job.ID, Content: text}); err != nil {
		// The job row stays PENDING; an operator can re-enqueue it later.
		apierrors.InternalServerError(c, "Failed to enqueue import job", err)
		return
	}

	if log != nil {
		log.Info("Import job enqueued", map[string]interface{}{
			"job_id":   job.ID,
			"filename": fileHeader.Filename,
			"bytes":    fileHeader.Size,
		})
	}

	c.JSON(http.StatusAccepted, job)
}
