package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/models"
)

// AnalyticsInvalidator drops cached analytics for a supplier after new
// lead-time samples are recorded.
type AnalyticsInvalidator interface {
	InvalidateSupplier(ctx context.Context, supplierID uuid.UUID)
}

// BatchService drives material procurement batches through their lifecycle
type BatchService struct {
	batchRepo    BatchOrderRepository
	queueRepo    MaterialQueueRepository
	trackingRepo TrackingEventRepository
	suppliers    SupplierRegistry
	inventory    InventoryAdjustmentHook
	indexer      BatchIndexer
	settings     ScheduleSettingsProvider
	analytics    AnalyticsInvalidator

	// Mutations are serialized per batch id: at most one in-flight state
	// change per batch. Reads and other batches are not blocked.
	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

// NewBatchService creates a new batch order service
func NewBatchService(
	batchRepo BatchOrderRepository,
	queueRepo MaterialQueueRepository,
	trackingRepo TrackingEventRepository,
	suppliers SupplierRegistry,
	inventory InventoryAdjustmentHook,
	indexer BatchIndexer,
	settings ScheduleSettingsProvider,
	analytics AnalyticsInvalidator,
) *BatchService {
	return &BatchService{
		batchRepo:    batchRepo,
		queueRepo:    queueRepo,
		trackingRepo: trackingRepo,
		suppliers:    suppliers,
		inventory:    inventory,
		indexer:      indexer,
		settings:     settings,
		analytics:    analytics,
		locks:        make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *BatchService) lockBatch(id uuid.UUID) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.locksMu.Unlock()
	l.Lock()
	return l.Unlock
}

// CreateBatchRequest represents a create batch request
type CreateBatchRequest struct {
	SupplierID   uuid.UUID
	QueueItemIDs []uuid.UUID
	ScheduleDate *time.Time
	Notes        *string
}

// CreateBatch groups pending queue items into a new draft batch for one supplier
func (s *BatchService) CreateBatch(ctx context.Context, req *CreateBatchRequest) (*models.BatchOrder, error) {
	if req.SupplierID == uuid.Nil {
		return nil, errors.Wrap(ErrSupplierRequired, "create batch")
	}

	if s.suppliers != nil {
		supplier, err := s.suppliers.Get(ctx, req.SupplierID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve supplier")
		}
		if !supplier.Active {
			return nil, errors.Errorf("supplier %s is not active", req.SupplierID)
		}
	}

	var queueItems []models.MaterialQueueItem
	if len(req.QueueItemIDs) > 0 {
		items, err := s.queueRepo.GetByIDs(ctx, req.QueueItemIDs)
		if err != nil {
			return nil, err
		}
		if len(items) != len(req.QueueItemIDs) {
			return nil, errors.Errorf("expected %d queue items, found %d", len(req.QueueItemIDs), len(items))
		}
		for i := range items {
			switch items[i].Status {
			case models.QueueItemStatusPending:
				// claimable
			case models.QueueItemStatusInBatch, models.QueueItemStatusOrdered:
				return nil, errors.Wrapf(ErrItemAlreadyBatched, "queue item %s", items[i].ID)
			default:
				return nil, errors.Errorf("queue item %s is %s and cannot be batched", items[i].ID, items[i].Status)
			}
		}
		queueItems = items
	}

	now := time.Now()
	batch := &models.BatchOrder{
		ID:           uuid.New(),
		BatchNumber:  s.generateBatchNumber(now),
		SupplierID:   req.SupplierID,
		Status:       models.BatchStatusDraft,
		ScheduleDate: req.ScheduleDate,
		Notes:        req.Notes,
	}

	if s.settings != nil {
		cfg := s.settings.Settings()
		if cfg.LeadTimeDaysDefault > 0 {
			expected := now.AddDate(0, 0, cfg.LeadTimeDaysDefault)
			batch.ExpectedDeliveryDate = &expected
		}
	}

	for i := range queueItems {
		item := &queueItems[i]
		batch.Items = append(batch.Items, models.BatchOrderItem{
			ID:           uuid.New(),
			BatchOrderID: batch.ID,
			QueueItemID:  item.ID,
			MaterialName: item.MaterialName,
			MaterialType: item.MaterialType,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			UnitPrice:    item.UnitCost,
			TotalPrice:   item.UnitCost.Mul(item.Quantity),
		})
	}
	batch.RecomputeTotals()

	if err := s.batchRepo.CreateWithItems(ctx, batch); err != nil {
		return nil, err
	}

	log.Info().
		Str("batch_id", batch.ID.String()).
		Str("batch_number", batch.BatchNumber).
		Str("supplier_id", batch.SupplierID.String()).
		Int("total_items", batch.TotalItems).
		Str("total_amount", batch.TotalAmount.String()).
		Msg("Batch order created")

	s.indexBatch(ctx, batch)
	return batch, nil
}

// MarkReady promotes a draft batch to ready, typically on its schedule date
func (s *BatchService) MarkReady(ctx context.Context, batchID uuid.UUID) (*models.BatchOrder, error) {
	unlock := s.lockBatch(batchID)
	defer unlock()

	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(batch.Status, models.BatchStatusReady) {
		return nil, errors.Wrapf(ErrInvalidTransition, "cannot mark %s batch ready", batch.Status)
	}

	batch.Status = models.BatchStatusReady
	event := s.newTrackingEvent(batch, nil, nil)
	if err := s.batchRepo.SaveTransition(ctx, batch, event, nil); err != nil {
		return nil, err
	}

	log.Info().
		Str("batch_id", batch.ID.String()).
		Str("batch_number", batch.BatchNumber).
		Msg("Batch order marked ready")

	s.indexBatch(ctx, batch)
	return batch, nil
}

// SendBatch sends a draft or ready batch to its supplier
func (s *BatchService) SendBatch(ctx context.Context, batchID uuid.UUID, trackingNumber, notes *string) (*models.BatchOrder, error) {
	unlock := s.lockBatch(batchID)
	defer unlock()

	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(batch.Status, models.BatchStatusSent) {
		return nil, errors.Wrapf(ErrInvalidTransition, "cannot send %s batch", batch.Status)
	}

	now := time.Now()
	batch.Status = models.BatchStatusSent
	batch.SentDate = &now
	if trackingNumber != nil {
		batch.TrackingNumber = trackingNumber
	}
	if batch.ExpectedDeliveryDate == nil && s.settings != nil {
		if days := s.settings.Settings().LeadTimeDaysDefault; days > 0 {
			expected := now.AddDate(0, 0, days)
			batch.ExpectedDeliveryDate = &expected
		}
	}

	event := s.newTrackingEvent(batch, notes, nil)
	if err := s.batchRepo.SaveTransition(ctx, batch, event, nil); err != nil {
		return nil, err
	}

	queueIDs := make([]uuid.UUID, 0, len(batch.Items))
	for i := range batch.Items {
		queueIDs = append(queueIDs, batch.Items[i].QueueItemID)
	}
	if err := s.queueRepo.MarkOrdered(ctx, queueIDs); err != nil {
		log.Warn().Err(err).
			Str("batch_id", batch.ID.String()).
			Msg("Failed to mark queue items ordered")
	}

	log.Info().
		Str("batch_id", batch.ID.String()).
		Str("batch_number", batch.BatchNumber).
		Str("supplier_id", batch.SupplierID.String()).
		Msg("Batch order sent to supplier")

	s.indexBatch(ctx, batch)
	return batch, nil
}

// AcknowledgeBatch records the supplier's acknowledgement of a sent batch
func (s *BatchService) AcknowledgeBatch(ctx context.Context, batchID uuid.UUID) (*models.BatchOrder, error) {
	unlock := s.lockBatch(batchID)
	defer unlock()

	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(batch.Status, models.BatchStatusAcknowledged) {
		return nil, errors.Wrapf(ErrInvalidTransition, "cannot acknowledge %s batch", batch.Status)
	}

	now := time.Now()
	batch.Status = models.BatchStatusAcknowledged
	batch.AcknowledgedDate = &now

	event := s.newTrackingEvent(batch, nil, nil)
	if err := s.batchRepo.SaveTransition(ctx, batch, event, nil); err != nil {
		return nil, err
	}

	log.Info().
		Str("batch_id", batch.ID.String()).
		Str("batch_number", batch.BatchNumber).
		Msg("Batch order acknowledged by supplier")

	s.indexBatch(ctx, batch)
	return batch, nil
}

// MarkInTransit records that a sent or acknowledged batch is on its way
func (s *BatchService) MarkInTransit(ctx context.Context, batchID uuid.UUID, location *string) (*models.BatchOrder, error) {
	unlock := s.lockBatch(batchID)
	defer unlock()

	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(batch.Status, models.BatchStatusInTransit) {
		return nil, errors.Wrapf(ErrInvalidTransition, "cannot mark %s batch in transit", batch.Status)
	}

	batch.Status = models.BatchStatusInTransit
	event := s.newTrackingEvent(batch, nil, location)
	if err := s.batchRepo.SaveTransition(ctx, batch, event, nil); err != nil {
		return nil, err
	}

	log.Info().
		Str("batch_id", batch.ID.String()).
		Str("batch_number", batch.BatchNumber).
		Msg("Batch order in transit")

	s.indexBatch(ctx, batch)
	return batch, nil
}

// CompleteBatch closes a delivered batch and records its lead-time samples
func (s *BatchService) CompleteBatch(ctx context.Context, batchID uuid.UUID) (*models.BatchOrder, error) {
	unlock := s.lockBatch(batchID)
	defer unlock()

	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(batch.Status, models.BatchStatusCompleted) {
		return nil, errors.Wrapf(ErrInvalidTransition, "cannot complete %s batch", batch.Status)
	}

	batch.Status = models.BatchStatusCompleted
	samples := s.buildLeadTimeSamples(batch)

	event := s.newTrackingEvent(batch, nil, nil)
	if err := s.batchRepo.SaveTransition(ctx, batch, event, samples); err != nil {
		return nil, err
	}

	if s.analytics != nil && len(samples) > 0 {
		s.analytics.InvalidateSupplier(ctx, batch.SupplierID)
	}

	log.Info().
		Str("batch_id", batch.ID.String()).
		Str("batch_number", batch.BatchNumber).
		Int("lead_time_samples", len(samples)).
		Msg("Batch order completed")

	s.indexBatch(ctx, batch)
	return batch, nil
}

// CancelDraft cancels a draft batch and returns its queue items to the pool
func (s *BatchService) CancelDraft(ctx context.Context, batchID uuid.UUID) error {
	unlock := s.lockBatch(batchID)
	defer unlock()

	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return err
	}
	if !models.CanTransition(batch.Status, models.BatchStatusCancelled) {
		return errors.Wrapf(ErrInvalidTransition, "cannot cancel %s batch", batch.Status)
	}

	queueIDs := make([]uuid.UUID, 0, len(batch.Items))
	for i := range batch.Items {
		queueIDs = append(queueIDs, batch.Items[i].QueueItemID)
	}

	batch.Status = models.BatchStatusCancelled
	event := s.newTrackingEvent(batch, nil, nil)
	if err := s.batchRepo.SaveCancellation(ctx, batch, event, queueIDs); err != nil {
		return err
	}

	log.Info().
		Str("batch_id", batch.ID.String()).
		Str("batch_number", batch.BatchNumber).
		Int("released_items", len(queueIDs)).
		Msg("Draft batch cancelled")

	s.indexBatch(ctx, batch)
	return nil
}

// DeleteDraft destroys a batch that never left draft
func (s *BatchService) DeleteDraft(ctx context.Context, batchID uuid.UUID) error {
	unlock := s.lockBatch(batchID)
	defer unlock()

	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return err
	}
	if !models.CanTransition(batch.Status, models.BatchStatusCancelled) {
		return errors.Wrapf(ErrInvalidTransition, "cannot delete %s batch", batch.Status)
	}

	queueIDs := make([]uuid.UUID, 0, len(batch.Items))
	for i := range batch.Items {
		queueIDs = append(queueIDs, batch.Items[i].QueueItemID)
	}
	if err := s.batchRepo.DeleteDraft(ctx, batchID, queueIDs); err != nil {
		return err
	}

	log.Info().
		Str("batch_id", batchID.String()).
		Str("batch_number", batch.BatchNumber).
		Msg("Draft batch deleted")

	return nil
}

// GetBatch gets a batch by id with its line items
func (s *BatchService) GetBatch(ctx context.Context, batchID uuid.UUID) (*models.BatchOrder, error) {
	return s.batchRepo.GetByID(ctx, batchID)
}

// ListBatches lists batches matching the filter
func (s *BatchService) ListBatches(ctx context.Context, filter BatchFilter) ([]models.BatchOrder, error) {
	return s.batchRepo.List(ctx, filter)
}

// ListTrackingHistory lists a batch's tracking events, oldest first
func (s *BatchService) ListTrackingHistory(ctx context.Context, batchID uuid.UUID) ([]models.TrackingEvent, error) {
	return s.trackingRepo.ListByBatch(ctx, batchID)
}

// EnqueueItem adds a material requirement to the procurement queue
func (s *BatchService) EnqueueItem(ctx context.Context, item *models.MaterialQueueItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.Status = models.QueueItemStatusPending
	if err := s.queueRepo.Create(ctx, item); err != nil {
		return err
	}

	log.Info().
		Str("queue_item_id", item.ID.String()).
		Str("job_id", item.JobID.String()).
		Str("material", item.MaterialName).
		Str("quantity", item.Quantity.String()).
		Msg("Material queue item created")

	return nil
}

// ListPendingQueue lists pending queue items matching the filter
func (s *BatchService) ListPendingQueue(ctx context.Context, filter QueueFilter) ([]models.MaterialQueueItem, error) {
	return s.queueRepo.ListPending(ctx, filter)
}

func (s *BatchService) newTrackingEvent(batch *models.BatchOrder, notes, location *string) *models.TrackingEvent {
	return &models.TrackingEvent{
		ID:           uuid.New(),
		BatchOrderID: batch.ID,
		Status:       batch.Status,
		Timestamp:    time.Now(),
		Notes:        notes,
		Location:     location,
	}
}

// buildLeadTimeSamples derives one sample per distinct material type in the
// batch, measuring days between sending and full delivery.
func (s *BatchService) buildLeadTimeSamples(batch *models.BatchOrder) []models.SupplierLeadTimeSample {
	if batch.SentDate == nil || batch.ActualDeliveryDate == nil {
		return nil
	}

	days := int(math.Round(batch.ActualDeliveryDate.Sub(*batch.SentDate).Hours() / 24))
	if days < 0 {
		days = 0
	}

	now := time.Now()
	seen := make(map[string]bool)
	var samples []models.SupplierLeadTimeSample
	for i := range batch.Items {
		materialType := batch.Items[i].MaterialType
		if seen[materialType] {
			continue
		}
		seen[materialType] = true
		samples = append(samples, models.SupplierLeadTimeSample{
			ID:           uuid.New(),
			SupplierID:   batch.SupplierID,
			MaterialType: materialType,
			LeadTimeDays: days,
			BatchOrderID: batch.ID,
			RecordedAt:   now,
		})
	}
	return samples
}

func (s *BatchService) generateBatchNumber(now time.Time) string {
	prefix := "PB"
	if s.settings != nil {
		if p := s.settings.Settings().BatchNumberPrefix; p != "" {
			prefix = p
		}
	}
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), strings.ToUpper(suffix))
}

func (s *BatchService) indexBatch(ctx context.Context, batch *models.BatchOrder) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexBatch(ctx, batch); err != nil {
		log.Warn().Err(err).
			Str("batch_id", batch.ID.String()).
			Msg("Failed to index batch order")
	}
}
