package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/models"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/services"
)

// MaterialQueueRepository provides access to material queue items
type MaterialQueueRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewMaterialQueueRepository creates a new material queue repository
func NewMaterialQueueRepository(db *gorm.DB, readOnlyDB *gorm.DB) *MaterialQueueRepository {
	return &MaterialQueueRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create creates a new material queue item
func (r *MaterialQueueRepository) Create(ctx context.Context, item *models.MaterialQueueItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// ListPending lists pending queue items matching the filter
func (r *MaterialQueueRepository) ListPending(ctx context.Context, filter services.QueueFilter) ([]models.MaterialQueueItem, error) {
	query := r.readOnlyDB.WithContext(ctx).
		Where("status = ?", models.QueueItemStatusPending)

	if filter.JobID != nil {
		query = query.Where("job_id = ?", *filter.JobID)
	}
	if filter.SupplierID != nil {
		query = query.Where("preferred_supplier_id = ?", *filter.SupplierID)
	}
	if filter.MaterialType != nil {
		query = query.Where("material_type = ?", *filter.MaterialType)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var items []models.MaterialQueueItem
	if err := query.Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list pending queue items")
	}
	return items, nil
}

// GetByIDs fetches queue items by their ids
func (r *MaterialQueueRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MaterialQueueItem, error) {
	var items []models.MaterialQueueItem
	err := r.readOnlyDB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get queue items by ids")
	}
	return items, nil
}

// MarkOrdered marks queue items as ordered
func (r *MaterialQueueRepository) MarkOrdered(ctx context.Context, ids []uuid.UUID) error {
	return r.updateStatus(ctx, ids, models.QueueItemStatusOrdered)
}

// MarkReceived marks a single queue item as fully received
func (r *MaterialQueueRepository) MarkReceived(ctx context.Context, id uuid.UUID) error {
	return r.updateStatus(ctx, []uuid.UUID{id}, models.QueueItemStatusReceived)
}

func (r *MaterialQueueRepository) updateStatus(ctx context.Context, ids []uuid.UUID, status models.QueueItemStatus) error {
	if len(ids) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.MaterialQueueItem{}).
		Where("id IN ?", ids).
		Update("status", status)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to mark queue items %s", status)
	}
	return nil
}

// BatchOrderRepository provides access to batch orders and their line items
type BatchOrderRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewBatchOrderRepository creates a new batch order repository
func NewBatchOrderRepository(db *gorm.DB, readOnlyDB *gorm.DB) *BatchOrderRepository {
	return &BatchOrderRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// CreateWithItems creates a batch with its line items and claims the source
// queue items in a single transaction. The status guard on the claim is the
// authority for the one-active-batch-per-item rule: a concurrent batch that
// already claimed any of these items makes the row count fall short, and the
// whole transaction rolls back.
func (r *BatchOrderRepository) CreateWithItems(ctx context.Context, batch *models.BatchOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return errors.Wrap(err, "failed to create batch order")
		}

		queueIDs := make([]uuid.UUID, 0, len(batch.Items))
		for i := range batch.Items {
			queueIDs = append(queueIDs, batch.Items[i].QueueItemID)
		}
		if len(queueIDs) == 0 {
			return nil
		}

		result := tx.Model(&models.MaterialQueueItem{}).
			Where("id IN ? AND status = ?", queueIDs, models.QueueItemStatusPending).
			Update("status", models.QueueItemStatusInBatch)
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to claim queue items for batch")
		}
		if result.RowsAffected != int64(len(queueIDs)) {
			return errors.Wrapf(services.ErrItemAlreadyBatched,
				"claimed %d of %d queue items", result.RowsAffected, len(queueIDs))
		}
		return nil
	})
}

// GetByID gets a batch order with its line items
func (r *BatchOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BatchOrder, error) {
	var batch models.BatchOrder
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Items").
		First(&batch, "id = ?", id).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get batch order by id")
	}
	return &batch, nil
}

// List lists batch orders matching the filter
func (r *BatchOrderRepository) List(ctx context.Context, filter services.BatchFilter) ([]models.BatchOrder, error) {
	query := r.readOnlyDB.WithContext(ctx).Preload("Items")

	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var batches []models.BatchOrder
	if err := query.Order("created_at DESC").Find(&batches).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list batch orders")
	}
	return batches, nil
}

// SaveTransition persists a status transition: the batch, its line items, the
// tracking event and any lead-time samples commit in one transaction, so a
// sample is never visible to the analytics readers before the transition that
// produced it.
func (r *BatchOrderRepository) SaveTransition(ctx context.Context, batch *models.BatchOrder, event *models.TrackingEvent, samples []models.SupplierLeadTimeSample) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(batch).Error; err != nil {
			return errors.Wrap(err, "failed to save batch order")
		}
		for i := range batch.Items {
			if err := tx.Save(&batch.Items[i]).Error; err != nil {
				return errors.Wrap(err, "failed to save batch order item")
			}
		}

		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return errors.Wrap(err, "failed to append tracking event")
			}
		}

		for i := range samples {
			if err := tx.Create(&samples[i]).Error; err != nil {
				return errors.Wrap(err, "failed to record lead time sample")
			}
		}
		return nil
	})
}

// SaveCancellation persists a cancelled draft and releases its queue items in
// a single transaction, so a failed release rolls the cancellation back too.
func (r *BatchOrderRepository) SaveCancellation(ctx context.Context, batch *models.BatchOrder, event *models.TrackingEvent, queueIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(batch).Error; err != nil {
			return errors.Wrap(err, "failed to save cancelled batch order")
		}
		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return errors.Wrap(err, "failed to append tracking event")
			}
		}
		return releaseQueueItems(tx, queueIDs)
	})
}

// DeleteDraft removes a draft batch with its line items and releases its
// queue items, all in a single transaction.
func (r *BatchOrderRepository) DeleteDraft(ctx context.Context, id uuid.UUID, queueIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch_order_id = ?", id).Delete(&models.BatchOrderItem{}).Error; err != nil {
			return errors.Wrap(err, "failed to delete batch order items")
		}
		result := tx.Delete(&models.BatchOrder{}, "id = ?", id)
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to delete batch order")
		}
		if result.RowsAffected == 0 {
			return errors.New("no batch order deleted")
		}
		return releaseQueueItems(tx, queueIDs)
	})
}

func releaseQueueItems(tx *gorm.DB, queueIDs []uuid.UUID) error {
	if len(queueIDs) == 0 {
		return nil
	}
	err := tx.Model(&models.MaterialQueueItem{}).
		Where("id IN ?", queueIDs).
		Update("status", models.QueueItemStatusPending).Error
	return errors.Wrap(err, "failed to release queue items")
}

// TrackingEventRepository provides read access to the tracking log
type TrackingEventRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewTrackingEventRepository creates a new tracking event repository
func NewTrackingEventRepository(db *gorm.DB, readOnlyDB *gorm.DB) *TrackingEventRepository {
	return &TrackingEventRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// ListByBatch lists a batch's tracking events in timestamp order
func (r *TrackingEventRepository) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]models.TrackingEvent, error) {
	var events []models.TrackingEvent
	err := r.readOnlyDB.WithContext(ctx).
		Where("batch_order_id = ?", batchID).
		Order("timestamp ASC").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tracking events")
	}
	return events, nil
}

// LeadTimeSampleRepository provides read access to lead-time samples
type LeadTimeSampleRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewLeadTimeSampleRepository creates a new lead-time sample repository
func NewLeadTimeSampleRepository(db *gorm.DB, readOnlyDB *gorm.DB) *LeadTimeSampleRepository {
	return &LeadTimeSampleRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// ListBySupplier lists all samples for a supplier in recording order
func (r *LeadTimeSampleRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierLeadTimeSample, error) {
	var samples []models.SupplierLeadTimeSample
	err := r.readOnlyDB.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("recorded_at ASC").
		Find(&samples).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list lead time samples by supplier")
	}
	return samples, nil
}

// ListBySupplierAndMaterialType lists samples for a supplier/material-type pair
func (r *LeadTimeSampleRepository) ListBySupplierAndMaterialType(ctx context.Context, supplierID uuid.UUID, materialType string) ([]models.SupplierLeadTimeSample, error) {
	var samples []models.SupplierLeadTimeSample
	err := r.readOnlyDB.WithContext(ctx).
		Where("supplier_id = ? AND material_type = ?", supplierID, materialType).
		Order("recorded_at ASC").
		Find(&samples).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list lead time samples by material type")
	}
	return samples, nil
}
