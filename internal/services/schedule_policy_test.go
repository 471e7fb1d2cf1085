package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/models"
)

func TestSchedulePolicyGroupsQueueBySupplier(t *testing.T) {
	f := newServiceFixture()
	supplierA := uuid.New()
	supplierB := uuid.New()

	itemA1 := pendingQueueItem(supplierA)
	itemA2 := pendingQueueItem(supplierA)
	itemB := pendingQueueItem(supplierB)
	unassigned := pendingQueueItem(uuid.New())
	unassigned.PreferredSupplierID = nil

	f.queueRepo.On("ListPending", mock.Anything, QueueFilter{}).
		Return([]models.MaterialQueueItem{itemA1, itemA2, itemB, unassigned}, nil)
	for _, supplierID := range []uuid.UUID{supplierA, supplierB} {
		f.suppliers.On("Get", mock.Anything, supplierID).
			Return(&SupplierInfo{ID: supplierID, Active: true}, nil)
	}
	f.queueRepo.On("GetByIDs", mock.Anything, []uuid.UUID{itemA1.ID, itemA2.ID}).
		Return([]models.MaterialQueueItem{itemA1, itemA2}, nil)
	f.queueRepo.On("GetByIDs", mock.Anything, []uuid.UUID{itemB.ID}).
		Return([]models.MaterialQueueItem{itemB}, nil)

	var created []*models.BatchOrder
	f.batchRepo.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*models.BatchOrder")).
		Run(func(args mock.Arguments) {
			created = append(created, args.Get(1).(*models.BatchOrder))
		}).
		Return(nil)

	// No drafts due for promotion
	draft := models.BatchStatusDraft
	f.batchRepo.On("List", mock.Anything, BatchFilter{Status: &draft}).
		Return([]models.BatchOrder{}, nil)

	settings := &stubSettings{settings: ScheduleSettings{
		LeadTimeDaysDefault: 7,
		AutoAssignSuppliers: true,
		BatchNumberPrefix:   "PB",
	}}
	policy := NewSchedulePolicy(f.svc, settings)

	err := policy.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, created, 2)

	itemCounts := map[uuid.UUID]int{}
	for _, batch := range created {
		itemCounts[batch.SupplierID] = len(batch.Items)
	}
	require.Equal(t, 2, itemCounts[supplierA])
	require.Equal(t, 1, itemCounts[supplierB])
}

func TestSchedulePolicyPromotesDueDrafts(t *testing.T) {
	f := newServiceFixture()
	due := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)

	dueBatch := models.BatchOrder{ID: uuid.New(), Status: models.BatchStatusDraft, ScheduleDate: &due}
	futureBatch := models.BatchOrder{ID: uuid.New(), Status: models.BatchStatusDraft, ScheduleDate: &future}
	unscheduled := models.BatchOrder{ID: uuid.New(), Status: models.BatchStatusDraft}

	draft := models.BatchStatusDraft
	f.batchRepo.On("List", mock.Anything, BatchFilter{Status: &draft}).
		Return([]models.BatchOrder{dueBatch, futureBatch, unscheduled}, nil)
	f.batchRepo.On("GetByID", mock.Anything, dueBatch.ID).Return(&dueBatch, nil)
	f.batchRepo.On("SaveTransition", mock.Anything, &dueBatch, mock.AnythingOfType("*models.TrackingEvent"), []models.SupplierLeadTimeSample(nil)).
		Return(nil)

	settings := &stubSettings{settings: ScheduleSettings{BatchNumberPrefix: "PB"}}
	policy := NewSchedulePolicy(f.svc, settings)

	err := policy.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.BatchStatusReady, dueBatch.Status)
	f.batchRepo.AssertNotCalled(t, "GetByID", mock.Anything, futureBatch.ID)
	f.batchRepo.AssertNotCalled(t, "GetByID", mock.Anything, unscheduled.ID)
}
