package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/models"
)

type serviceFixture struct {
	batchRepo    *mockBatchRepo
	queueRepo    *mockQueueRepo
	trackingRepo *mockTrackingRepo
	suppliers    *mockSupplierRegistry
	inventory    *mockInventoryHook
	svc          *BatchService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		batchRepo:    new(mockBatchRepo),
		queueRepo:    new(mockQueueRepo),
		trackingRepo: new(mockTrackingRepo),
		suppliers:    new(mockSupplierRegistry),
		inventory:    new(mockInventoryHook),
	}
	settings := &stubSettings{settings: ScheduleSettings{
		LeadTimeDaysDefault: 7,
		BatchNumberPrefix:   "PB",
	}}
	f.svc = NewBatchService(f.batchRepo, f.queueRepo, f.trackingRepo, f.suppliers, f.inventory, nil, settings, nil)
	return f
}

func pendingQueueItem(supplierID uuid.UUID) models.MaterialQueueItem {
	return models.MaterialQueueItem{
		ID:                  uuid.New(),
		JobID:               uuid.New(),
		MaterialName:        "Blackout lining",
		MaterialType:        "fabric",
		Quantity:            decimal.NewFromInt(10),
		Unit:                "m",
		UnitCost:            decimal.NewFromFloat(2.5),
		PreferredSupplierID: &supplierID,
		Status:              models.QueueItemStatusPending,
	}
}

func TestCreateBatchRequiresSupplier(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.CreateBatch(context.Background(), &CreateBatchRequest{})
	require.ErrorIs(t, err, ErrSupplierRequired)
}

func TestCreateBatchRejectsAlreadyBatchedItems(t *testing.T) {
	f := newServiceFixture()
	supplierID := uuid.New()

	item := pendingQueueItem(supplierID)
	item.Status = models.QueueItemStatusInBatch

	f.suppliers.On("Get", mock.Anything, supplierID).
		Return(&SupplierInfo{ID: supplierID, Name: "Fabrics Ltd", Active: true}, nil)
	f.queueRepo.On("GetByIDs", mock.Anything, []uuid.UUID{item.ID}).
		Return([]models.MaterialQueueItem{item}, nil)

	_, err := f.svc.CreateBatch(context.Background(), &CreateBatchRequest{
		SupplierID:   supplierID,
		QueueItemIDs: []uuid.UUID{item.ID},
	})
	require.ErrorIs(t, err, ErrItemAlreadyBatched)
	f.batchRepo.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything)
}

func TestCreateBatchConcurrentClaimOfSameItemsFails(t *testing.T) {
	f := newServiceFixture()
	supplierID := uuid.New()
	item := pendingQueueItem(supplierID)

	f.suppliers.On("Get", mock.Anything, supplierID).
		Return(&SupplierInfo{ID: supplierID, Name: "Fabrics Ltd", Active: true}, nil)

	// Both callers read the item as pending before either claims it. The
	// claim inside CreateWithItems is guarded by status, so the second
	// transaction comes up short and rolls back.
	f.queueRepo.On("GetByIDs", mock.Anything, []uuid.UUID{item.ID}).
		Return([]models.MaterialQueueItem{item}, nil).Twice()
	f.batchRepo.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*models.BatchOrder")).
		Return(nil).Once()
	f.batchRepo.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*models.BatchOrder")).
		Return(errors.Wrap(ErrItemAlreadyBatched, "claimed 0 of 1 queue items")).Once()

	req := &CreateBatchRequest{SupplierID: supplierID, QueueItemIDs: []uuid.UUID{item.ID}}
	first, err := f.svc.CreateBatch(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.svc.CreateBatch(context.Background(), req)
	require.ErrorIs(t, err, ErrItemAlreadyBatched)
	require.Nil(t, second)
	f.batchRepo.AssertExpectations(t)
}

func TestCreateBatchRejectsInactiveSupplier(t *testing.T) {
	f := newServiceFixture()
	supplierID := uuid.New()

	f.suppliers.On("Get", mock.Anything, supplierID).
		Return(&SupplierInfo{ID: supplierID, Name: "Dormant Ltd", Active: false}, nil)

	_, err := f.svc.CreateBatch(context.Background(), &CreateBatchRequest{SupplierID: supplierID})
	require.Error(t, err)
}

func TestCreateBatchBuildsDraftWithTotals(t *testing.T) {
	f := newServiceFixture()
	supplierID := uuid.New()

	first := pendingQueueItem(supplierID)
	second := pendingQueueItem(supplierID)
	second.MaterialName = "Curtain track"
	second.MaterialType = "hardware"
	second.Quantity = decimal.NewFromInt(4)
	second.UnitCost = decimal.NewFromInt(12)

	f.suppliers.On("Get", mock.Anything, supplierID).
		Return(&SupplierInfo{ID: supplierID, Name: "Fabrics Ltd", Active: true}, nil)
	f.queueRepo.On("GetByIDs", mock.Anything, []uuid.UUID{first.ID, second.ID}).
		Return([]models.MaterialQueueItem{first, second}, nil)
	f.batchRepo.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*models.BatchOrder")).
		Return(nil)

	batch, err := f.svc.CreateBatch(context.Background(), &CreateBatchRequest{
		SupplierID:   supplierID,
		QueueItemIDs: []uuid.UUID{first.ID, second.ID},
	})
	require.NoError(t, err)
	require.Equal(t, models.BatchStatusDraft, batch.Status)
	require.Equal(t, supplierID, batch.SupplierID)
	require.Len(t, batch.Items, 2)
	require.Equal(t, 2, batch.TotalItems)
	require.True(t, batch.TotalAmount.Equal(decimal.NewFromInt(73)), "got %s", batch.TotalAmount)
	require.True(t, strings.HasPrefix(batch.BatchNumber, "PB-"), "got %s", batch.BatchNumber)
	require.NotNil(t, batch.ExpectedDeliveryDate)
	f.batchRepo.AssertExpectations(t)
}

func TestSendBatchMarksQueueItemsOrdered(t *testing.T) {
	f := newServiceFixture()
	queueItemID := uuid.New()
	batch := &models.BatchOrder{
		ID:          uuid.New(),
		BatchNumber: "PB-20260301-AB12CD34",
		SupplierID:  uuid.New(),
		Status:      models.BatchStatusDraft,
		Items: []models.BatchOrderItem{{
			ID:          uuid.New(),
			QueueItemID: queueItemID,
			Quantity:    decimal.NewFromInt(10),
		}},
	}

	f.batchRepo.On("GetByID", mock.Anything, batch.ID).Return(batch, nil)
	f.batchRepo.On("SaveTransition", mock.Anything, batch, mock.AnythingOfType("*models.TrackingEvent"), []models.SupplierLeadTimeSample(nil)).
		Return(nil)
	f.queueRepo.On("MarkOrdered", mock.Anything, []uuid.UUID{queueItemID}).Return(nil)

	sent, err := f.svc.SendBatch(context.Background(), batch.ID, nil, nil)
	require.NoError(t, err)
	require.Equal(t, models.BatchStatusSent, sent.Status)
	require.NotNil(t, sent.SentDate)
	require.NotNil(t, sent.ExpectedDeliveryDate)
	f.queueRepo.AssertExpectations(t)
}

func TestAcknowledgeBatchRequiresSentStatus(t *testing.T) {
	f := newServiceFixture()
	batch := &models.BatchOrder{ID: uuid.New(), Status: models.BatchStatusDraft}

	f.batchRepo.On("GetByID", mock.Anything, batch.ID).Return(batch, nil)

	_, err := f.svc.AcknowledgeBatch(context.Background(), batch.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionsAreForwardOnly(t *testing.T) {
	f := newServiceFixture()
	batch := &models.BatchOrder{ID: uuid.New(), Status: models.BatchStatusDelivered}

	f.batchRepo.On("GetByID", mock.Anything, batch.ID).Return(batch, nil)

	_, err := f.svc.SendBatch(context.Background(), batch.ID, nil, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.MarkInTransit(context.Background(), batch.ID, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteBatchRecordsLeadTimeSamples(t *testing.T) {
	f := newServiceFixture()
	sent := time.Now().AddDate(0, 0, -6)
	delivered := time.Now()
	batch := &models.BatchOrder{
		ID:                 uuid.New(),
		BatchNumber:        "PB-20260301-AB12CD34",
		SupplierID:         uuid.New(),
		Status:             models.BatchStatusDelivered,
		SentDate:           &sent,
		ActualDeliveryDate: &delivered,
		Items: []models.BatchOrderItem{
			{ID: uuid.New(), MaterialType: "fabric", Quantity: decimal.NewFromInt(10)},
			{ID: uuid.New(), MaterialType: "fabric", Quantity: decimal.NewFromInt(5)},
			{ID: uuid.New(), MaterialType: "hardware", Quantity: decimal.NewFromInt(2)},
		},
	}

	var recorded []models.SupplierLeadTimeSample
	f.batchRepo.On("GetByID", mock.Anything, batch.ID).Return(batch, nil)
	f.batchRepo.On("SaveTransition", mock.Anything, batch, mock.AnythingOfType("*models.TrackingEvent"), mock.Anything).
		Run(func(args mock.Arguments) {
			recorded = args.Get(3).([]models.SupplierLeadTimeSample)
		}).
		Return(nil)

	completed, err := f.svc.CompleteBatch(context.Background(), batch.ID)
	require.NoError(t, err)
	require.Equal(t, models.BatchStatusCompleted, completed.Status)

	// One sample per distinct material type
	require.Len(t, recorded, 2)
	types := map[string]int{}
	for _, sample := range recorded {
		types[sample.MaterialType] = sample.LeadTimeDays
		require.Equal(t, batch.SupplierID, sample.SupplierID)
		require.Equal(t, batch.ID, sample.BatchOrderID)
	}
	require.Equal(t, 6, types["fabric"])
	require.Equal(t, 6, types["hardware"])
}

func TestCompleteBatchRequiresDeliveredStatus(t *testing.T) {
	f := newServiceFixture()
	batch := &models.BatchOrder{ID: uuid.New(), Status: models.BatchStatusInTransit}

	f.batchRepo.On("GetByID", mock.Anything, batch.ID).Return(batch, nil)

	_, err := f.svc.CompleteBatch(context.Background(), batch.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelDraftReleasesQueueItems(t *testing.T) {
	f := newServiceFixture()
	queueItemID := uuid.New()
	batch := &models.BatchOrder{
		ID:     uuid.New(),
		Status: models.BatchStatusDraft,
		Items: []models.BatchOrderItem{{
			ID:          uuid.New(),
			QueueItemID: queueItemID,
		}},
	}

	f.batchRepo.On("GetByID", mock.Anything, batch.ID).Return(batch, nil)
	f.batchRepo.On("SaveCancellation", mock.Anything, batch, mock.AnythingOfType("*models.TrackingEvent"), []uuid.UUID{queueItemID}).
		Return(nil)

	err := f.svc.CancelDraft(context.Background(), batch.ID)
	require.NoError(t, err)
	require.Equal(t, models.BatchStatusCancelled, batch.Status)
	f.batchRepo.AssertExpectations(t)
}

func TestCancelDraftRetriesAfterStorageFailure(t *testing.T) {
	f := newServiceFixture()
	batchID := uuid.New()
	queueItemID := uuid.New()
	draft := func() *models.BatchOrder {
		return &models.BatchOrder{
			ID:     batchID,
			Status: models.BatchStatusDraft,
			Items: []models.BatchOrderItem{{
				ID:          uuid.New(),
				QueueItemID: queueItemID,
			}},
		}
	}

	// The cancellation and the queue-item release commit together, so a
	// storage failure leaves the batch draft and the retry goes through.
	f.batchRepo.On("GetByID", mock.Anything, batchID).Return(draft(), nil).Once()
	f.batchRepo.On("SaveCancellation", mock.Anything, mock.Anything, mock.Anything, []uuid.UUID{queueItemID}).
		Return(errors.New("connection reset")).Once()

	err := f.svc.CancelDraft(context.Background(), batchID)
	require.Error(t, err)

	f.batchRepo.On("GetByID", mock.Anything, batchID).Return(draft(), nil).Once()
	f.batchRepo.On("SaveCancellation", mock.Anything, mock.Anything, mock.Anything, []uuid.UUID{queueItemID}).
		Return(nil).Once()

	require.NoError(t, f.svc.CancelDraft(context.Background(), batchID))
	f.batchRepo.AssertExpectations(t)
}

func TestDeleteDraftReleasesQueueItemsInOneCall(t *testing.T) {
	f := newServiceFixture()
	queueItemID := uuid.New()
	batch := &models.BatchOrder{
		ID:     uuid.New(),
		Status: models.BatchStatusDraft,
		Items: []models.BatchOrderItem{{
			ID:          uuid.New(),
			QueueItemID: queueItemID,
		}},
	}

	f.batchRepo.On("GetByID", mock.Anything, batch.ID).Return(batch, nil)
	f.batchRepo.On("DeleteDraft", mock.Anything, batch.ID, []uuid.UUID{queueItemID}).Return(nil)

	require.NoError(t, f.svc.DeleteDraft(context.Background(), batch.ID))
	f.batchRepo.AssertExpectations(t)
}

func TestCancelRequiresDraftStatus(t *testing.T) {
	f := newServiceFixture()
	batch := &models.BatchOrder{ID: uuid.New(), Status: models.BatchStatusSent}

	f.batchRepo.On("GetByID", mock.Anything, batch.ID).Return(batch, nil)

	err := f.svc.CancelDraft(context.Background(), batch.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEnqueueItemForcesPendingStatus(t *testing.T) {
	f := newServiceFixture()
	item := pendingQueueItem(uuid.New())
	item.ID = uuid.Nil
	item.Status = models.QueueItemStatusOrdered

	f.queueRepo.On("Create", mock.Anything, &item).Return(nil)

	err := f.svc.EnqueueItem(context.Background(), &item)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, item.ID)
	require.Equal(t, models.QueueItemStatusPending, item.Status)
}
