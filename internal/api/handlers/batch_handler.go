package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/metrics"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/models"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/services"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/tracing"
)

// BatchHandler handles material queue and batch order HTTP requests
type BatchHandler struct {
	batchService *services.BatchService
	metrics      *metrics.Metrics
	tracer       tracing.Tracer
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(batchService *services.BatchService, m *metrics.Metrics, tracer tracing.Tracer) *BatchHandler {
	return &BatchHandler{
		batchService: batchService,
		metrics:      m,
		tracer:       tracer,
	}
}

// EnqueueItemRequest represents an incoming material queue item
type EnqueueItemRequest struct {
	JobID               uuid.UUID       `json:"job_id" binding:"required"`
	ClientID            *uuid.UUID      `json:"client_id"`
	MaterialName        string          `json:"material_name" binding:"required"`
	MaterialType        string          `json:"material_type" binding:"required"`
	Quantity            decimal.Decimal `json:"quantity" binding:"required"`
	Unit                string          `json:"unit"`
	UnitCost            decimal.Decimal `json:"unit_cost"`
	PreferredSupplierID *uuid.UUID      `json:"preferred_supplier_id"`
}

// CreateBatchRequest represents an incoming batch creation request
type CreateBatchRequest struct {
	SupplierID   uuid.UUID   `json:"supplier_id" binding:"required"`
	QueueItemIDs []uuid.UUID `json:"queue_item_ids"`
	ScheduleDate *time.Time  `json:"schedule_date"`
	Notes        *string     `json:"notes"`
}

// SendBatchRequest carries optional dispatch details
type SendBatchRequest struct {
	TrackingNumber *string `json:"tracking_number"`
	Notes          *string `json:"notes"`
}

// TransitRequest carries optional transit details
type TransitRequest struct {
	Location *string `json:"location"`
}

// ReceiveDeliveryRequest represents a goods receipt against a batch
type ReceiveDeliveryRequest struct {
	Items map[uuid.UUID]decimal.Decimal `json:"items" binding:"required"`
	Notes *string                       `json:"notes"`
}

// HandleEnqueueItem adds a material requirement to the procurement queue
func (h *BatchHandler) HandleEnqueueItem(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-enqueue-material")
	defer h.tracer.EndTransaction(txn)

	var req EnqueueItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	item := &models.MaterialQueueItem{
		JobID:               req.JobID,
		ClientID:            req.ClientID,
		MaterialName:        req.MaterialName,
		MaterialType:        req.MaterialType,
		Quantity:            req.Quantity,
		Unit:                req.Unit,
		UnitCost:            req.UnitCost,
		PreferredSupplierID: req.PreferredSupplierID,
	}

	if err := h.batchService.EnqueueItem(c, item); err != nil {
		h.respondError(c, txn, err)
		return
	}

	h.metrics.IncrementCounter("queue_items_enqueued")
	c.JSON(http.StatusCreated, item)
}

// HandleListQueue lists pending material queue items
func (h *BatchHandler) HandleListQueue(c *gin.Context) {
	var filter services.QueueFilter
	if jobID, ok := parseUUIDQuery(c, "job_id"); ok {
		filter.JobID = jobID
	}
	if supplierID, ok := parseUUIDQuery(c, "supplier_id"); ok {
		filter.SupplierID = supplierID
	}
	if materialType := c.Query("material_type"); materialType != "" {
		filter.MaterialType = &materialType
	}

	items, err := h.batchService.ListPendingQueue(c, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, items)
}

// HandleCreateBatch groups queue items into a new draft batch
func (h *BatchHandler) HandleCreateBatch(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-batch")
	defer h.tracer.EndTransaction(txn)

	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	h.tracer.AddAttribute(txn, "supplier_id", req.SupplierID.String())
	h.tracer.AddAttribute(txn, "item_count", len(req.QueueItemIDs))

	batch, err := h.batchService.CreateBatch(c, &services.CreateBatchRequest{
		SupplierID:   req.SupplierID,
		QueueItemIDs: req.QueueItemIDs,
		ScheduleDate: req.ScheduleDate,
		Notes:        req.Notes,
	})
	if err != nil {
		h.respondError(c, txn, err)
		return
	}

	h.metrics.IncrementCounter("batches_created")
	c.JSON(http.StatusCreated, batch)
}

// HandleListBatches lists batch orders
func (h *BatchHandler) HandleListBatches(c *gin.Context) {
	var filter services.BatchFilter
	if supplierID, ok := parseUUIDQuery(c, "supplier_id"); ok {
		filter.SupplierID = supplierID
	}
	if statusParam := c.Query("status"); statusParam != "" {
		status := models.BatchStatus(statusParam)
		filter.Status = &status
	}

	batches, err := h.batchService.ListBatches(c, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, batches)
}

// HandleGetBatch returns a single batch order with its items
func (h *BatchHandler) HandleGetBatch(c *gin.Context) {
	batchID, ok := h.parseBatchID(c)
	if !ok {
		return
	}

	batch, err := h.batchService.GetBatch(c, batchID)
	if err != nil {
		h.respondError(c, nil, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

// HandleMarkReady promotes a draft batch to ready
func (h *BatchHandler) HandleMarkReady(c *gin.Context) {
	h.transition(c, "api-mark-ready", func(batchID uuid.UUID) (*models.BatchOrder, error) {
		return h.batchService.MarkReady(c, batchID)
	})
}

// HandleSendBatch sends a batch to its supplier
func (h *BatchHandler) HandleSendBatch(c *gin.Context) {
	// Body is optional for dispatch
	var req SendBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = SendBatchRequest{}
	}

	h.transition(c, "api-send-batch", func(batchID uuid.UUID) (*models.BatchOrder, error) {
		return h.batchService.SendBatch(c, batchID, req.TrackingNumber, req.Notes)
	})
}

// HandleAcknowledgeBatch records the supplier's order confirmation
func (h *BatchHandler) HandleAcknowledgeBatch(c *gin.Context) {
	h.transition(c, "api-acknowledge-batch", func(batchID uuid.UUID) (*models.BatchOrder, error) {
		return h.batchService.AcknowledgeBatch(c, batchID)
	})
}

// HandleMarkInTransit records that the shipment is underway
func (h *BatchHandler) HandleMarkInTransit(c *gin.Context) {
	var req TransitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = TransitRequest{}
	}

	h.transition(c, "api-mark-in-transit", func(batchID uuid.UUID) (*models.BatchOrder, error) {
		return h.batchService.MarkInTransit(c, batchID, req.Location)
	})
}

// HandleReceiveDelivery reconciles a goods receipt against a batch
func (h *BatchHandler) HandleReceiveDelivery(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-receive-delivery")
	defer h.tracer.EndTransaction(txn)

	batchID, ok := h.parseBatchID(c)
	if !ok {
		return
	}

	var req ReceiveDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	h.tracer.AddAttribute(txn, "batch_id", batchID.String())

	result, err := h.batchService.ReceiveDelivery(c, batchID, req.Items, req.Notes)
	if err != nil {
		h.metrics.RecordError("receive_delivery")
		h.respondError(c, txn, err)
		return
	}

	h.metrics.RecordSuccess("receive_delivery")
	if result.IsPartial {
		h.metrics.IncrementCounter("deliveries_partial")
	} else {
		h.metrics.IncrementCounter("deliveries_full")
	}

	c.JSON(http.StatusOK, result)
}

// HandleCompleteBatch closes a delivered batch and records lead-time samples
func (h *BatchHandler) HandleCompleteBatch(c *gin.Context) {
	h.transition(c, "api-complete-batch", func(batchID uuid.UUID) (*models.BatchOrder, error) {
		return h.batchService.CompleteBatch(c, batchID)
	})
}

// HandleCancelBatch cancels a draft batch and releases its queue items
func (h *BatchHandler) HandleCancelBatch(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-cancel-batch")
	defer h.tracer.EndTransaction(txn)

	batchID, ok := h.parseBatchID(c)
	if !ok {
		return
	}

	if err := h.batchService.CancelDraft(c, batchID); err != nil {
		h.respondError(c, txn, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// HandleDeleteBatch deletes a draft batch entirely
func (h *BatchHandler) HandleDeleteBatch(c *gin.Context) {
	batchID, ok := h.parseBatchID(c)
	if !ok {
		return
	}

	if err := h.batchService.DeleteDraft(c, batchID); err != nil {
		h.respondError(c, nil, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleTrackingHistory returns the batch's lifecycle event log
func (h *BatchHandler) HandleTrackingHistory(c *gin.Context) {
	batchID, ok := h.parseBatchID(c)
	if !ok {
		return
	}

	events, err := h.batchService.ListTrackingHistory(c, batchID)
	if err != nil {
		h.respondError(c, nil, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *BatchHandler) transition(c *gin.Context, txnName string, fn func(uuid.UUID) (*models.BatchOrder, error)) {
	txn := h.tracer.StartTransaction(txnName)
	defer h.tracer.EndTransaction(txn)

	batchID, ok := h.parseBatchID(c)
	if !ok {
		return
	}
	h.tracer.AddAttribute(txn, "batch_id", batchID.String())

	batch, err := fn(batchID)
	if err != nil {
		h.respondError(c, txn, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

func (h *BatchHandler) parseBatchID(c *gin.Context) (uuid.UUID, bool) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch id"})
		return uuid.Nil, false
	}
	return batchID, true
}

// respondError maps service errors to HTTP status codes
func (h *BatchHandler) respondError(c *gin.Context, txn *newrelic.Transaction, err error) {
	h.tracer.RecordError(txn, err)

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "batch order not found"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSupplierRequired),
		errors.Is(err, services.ErrItemAlreadyBatched),
		errors.Is(err, services.ErrOverReceipt),
		errors.Is(err, services.ErrEmptyReceipt):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// RegisterRoutes registers the handler's routes
func (h *BatchHandler) RegisterRoutes(router *gin.Engine) {
	queue := router.Group("/api/queue")
	{
		queue.POST("", h.HandleEnqueueItem)
		queue.GET("", h.HandleListQueue)
	}

	batches := router.Group("/api/batches")
	{
		batches.POST("", h.HandleCreateBatch)
		batches.GET("", h.HandleListBatches)
		batches.GET("/:id", h.HandleGetBatch)
		batches.POST("/:id/ready", h.HandleMarkReady)
		batches.POST("/:id/send", h.HandleSendBatch)
		batches.POST("/:id/acknowledge", h.HandleAcknowledgeBatch)
		batches.POST("/:id/transit", h.HandleMarkInTransit)
		batches.POST("/:id/receive", h.HandleReceiveDelivery)
		batches.POST("/:id/complete", h.HandleCompleteBatch)
		batches.POST("/:id/cancel", h.HandleCancelBatch)
		batches.DELETE("/:id", h.HandleDeleteBatch)
		batches.GET("/:id/tracking", h.HandleTrackingHistory)
	}
}
