package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/services"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/tracing"
)

// AnalyticsHandler handles lead-time analytics HTTP requests
type AnalyticsHandler struct {
	leadTimeService *services.LeadTimeService
	tracer          tracing.Tracer
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(leadTimeService *services.LeadTimeService, tracer tracing.Tracer) *AnalyticsHandler {
	return &AnalyticsHandler{
		leadTimeService: leadTimeService,
		tracer:          tracer,
	}
}

// HandlePredictLeadTime predicts delivery lead time for a supplier and material type
func (h *AnalyticsHandler) HandlePredictLeadTime(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-predict-lead-time")
	defer h.tracer.EndTransaction(txn)

	supplierID, err := uuid.Parse(c.Param("supplier_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier id"})
		return
	}

	materialType := c.Query("material_type")
	if materialType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "material_type is required"})
		return
	}

	h.tracer.AddAttribute(txn, "supplier_id", supplierID.String())
	h.tracer.AddAttribute(txn, "material_type", materialType)

	prediction, err := h.leadTimeService.PredictLeadTime(c, supplierID, materialType)
	if err != nil {
		log.Error().Err(err).Msg("Failed to predict lead time")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	if prediction == nil {
		c.JSON(http.StatusOK, gin.H{
			"prediction": nil,
			"message":    "no delivery history for this supplier",
		})
		return
	}

	c.JSON(http.StatusOK, prediction)
}

// HandleSupplierPerformance summarizes a supplier's delivery performance
func (h *AnalyticsHandler) HandleSupplierPerformance(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-supplier-performance")
	defer h.tracer.EndTransaction(txn)

	supplierID, err := uuid.Parse(c.Param("supplier_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier id"})
		return
	}

	performance, err := h.leadTimeService.GetSupplierPerformance(c, supplierID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute supplier performance")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	if performance == nil {
		c.JSON(http.StatusOK, gin.H{
			"performance": nil,
			"message":     "no delivery history for this supplier",
		})
		return
	}

	c.JSON(http.StatusOK, performance)
}

// RegisterRoutes registers the handler's routes
func (h *AnalyticsHandler) RegisterRoutes(router *gin.Engine) {
	analytics := router.Group("/api/analytics")
	{
		analytics.GET("/suppliers/:supplier_id/lead-time", h.HandlePredictLeadTime)
		analytics.GET("/suppliers/:supplier_id/performance", h.HandleSupplierPerformance)
	}
}
