package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/models"
)

// QueueFilter narrows pending material queue item lookups
type QueueFilter struct {
	JobID        *uuid.UUID
	SupplierID   *uuid.UUID
	MaterialType *string
	Limit        int
}

// BatchFilter narrows batch order listings
type BatchFilter struct {
	SupplierID *uuid.UUID
	Status     *models.BatchStatus
	Limit      int
	Offset     int
}

// MaterialQueueRepository provides access to material queue items
type MaterialQueueRepository interface {
	Create(ctx context.Context, item *models.MaterialQueueItem) error
	ListPending(ctx context.Context, filter QueueFilter) ([]models.MaterialQueueItem, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MaterialQueueItem, error)
	MarkOrdered(ctx context.Context, ids []uuid.UUID) error
	MarkReceived(ctx context.Context, id uuid.UUID) error
}

// BatchOrderRepository provides access to batch orders and their line items.
// Every mutation is atomic: the batch, its items, the tracking event, any
// lead-time samples and any queue-item status changes commit together or not
// at all, so a sample never becomes visible before its transition and a
// cancellation can never strand claimed queue items.
type BatchOrderRepository interface {
	// CreateWithItems claims the source queue items as part of the same
	// transaction; it fails with ErrItemAlreadyBatched when another batch
	// claimed any of them first.
	CreateWithItems(ctx context.Context, batch *models.BatchOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BatchOrder, error)
	List(ctx context.Context, filter BatchFilter) ([]models.BatchOrder, error)
	SaveTransition(ctx context.Context, batch *models.BatchOrder, event *models.TrackingEvent, samples []models.SupplierLeadTimeSample) error
	// SaveCancellation persists the cancelled batch and releases its queue
	// items back to pending in one transaction.
	SaveCancellation(ctx context.Context, batch *models.BatchOrder, event *models.TrackingEvent, queueIDs []uuid.UUID) error
	// DeleteDraft removes the draft and releases its queue items back to
	// pending in one transaction.
	DeleteDraft(ctx context.Context, id uuid.UUID, queueIDs []uuid.UUID) error
}

// TrackingEventRepository provides read access to the append-only tracking log
type TrackingEventRepository interface {
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]models.TrackingEvent, error)
}

// LeadTimeSampleRepository provides read access to historical lead-time samples
type LeadTimeSampleRepository interface {
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierLeadTimeSample, error)
	ListBySupplierAndMaterialType(ctx context.Context, supplierID uuid.UUID, materialType string) ([]models.SupplierLeadTimeSample, error)
}

// SupplierInfo is the registry's view of a supplier
type SupplierInfo struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Active bool      `json:"active"`
}

// SupplierRegistry resolves supplier references. The registry itself is owned
// by the wider platform; the procurement service only reads from it.
type SupplierRegistry interface {
	Get(ctx context.Context, id uuid.UUID) (*SupplierInfo, error)
}

// InventoryAdjustmentHook is invoked once per line with the delivered delta
// after a receipt has committed. Best-effort: failures are logged and
// surfaced as warnings, never propagated as call failures.
type InventoryAdjustmentHook interface {
	ApplyDelta(ctx context.Context, materialName string, delta decimal.Decimal) error
}

// ScheduleSettings are the procurement defaults consumed at batch creation
type ScheduleSettings struct {
	LeadTimeDaysDefault int
	AutoAssignSuppliers bool
	BatchNumberPrefix   string
}

// ScheduleSettingsProvider supplies schedule defaults to the batch service
// and the auto-create policy.
type ScheduleSettingsProvider interface {
	Settings() ScheduleSettings
}

// BatchIndexer projects batch orders into the search index on every
// transition. Best-effort, like all projections.
type BatchIndexer interface {
	IndexBatch(ctx context.Context, batch *models.BatchOrder) error
}
