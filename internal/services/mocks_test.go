package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/models"
)

type mockBatchRepo struct {
	mock.Mock
}

func (m *mockBatchRepo) CreateWithItems(ctx context.Context, batch *models.BatchOrder) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *mockBatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.BatchOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchOrder), args.Error(1)
}

func (m *mockBatchRepo) List(ctx context.Context, filter BatchFilter) ([]models.BatchOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BatchOrder), args.Error(1)
}

func (m *mockBatchRepo) SaveTransition(ctx context.Context, batch *models.BatchOrder, event *models.TrackingEvent, samples []models.SupplierLeadTimeSample) error {
	args := m.Called(ctx, batch, event, samples)
	return args.Error(0)
}

func (m *mockBatchRepo) SaveCancellation(ctx context.Context, batch *models.BatchOrder, event *models.TrackingEvent, queueIDs []uuid.UUID) error {
	args := m.Called(ctx, batch, event, queueIDs)
	return args.Error(0)
}

func (m *mockBatchRepo) DeleteDraft(ctx context.Context, id uuid.UUID, queueIDs []uuid.UUID) error {
	args := m.Called(ctx, id, queueIDs)
	return args.Error(0)
}

type mockQueueRepo struct {
	mock.Mock
}

func (m *mockQueueRepo) Create(ctx context.Context, item *models.MaterialQueueItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *mockQueueRepo) ListPending(ctx context.Context, filter QueueFilter) ([]models.MaterialQueueItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaterialQueueItem), args.Error(1)
}

func (m *mockQueueRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MaterialQueueItem, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaterialQueueItem), args.Error(1)
}

func (m *mockQueueRepo) MarkOrdered(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *mockQueueRepo) MarkReceived(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockTrackingRepo struct {
	mock.Mock
}

func (m *mockTrackingRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]models.TrackingEvent, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TrackingEvent), args.Error(1)
}

type mockSampleRepo struct {
	mock.Mock
}

func (m *mockSampleRepo) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierLeadTimeSample, error) {
	args := m.Called(ctx, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SupplierLeadTimeSample), args.Error(1)
}

func (m *mockSampleRepo) ListBySupplierAndMaterialType(ctx context.Context, supplierID uuid.UUID, materialType string) ([]models.SupplierLeadTimeSample, error) {
	args := m.Called(ctx, supplierID, materialType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SupplierLeadTimeSample), args.Error(1)
}

type mockSupplierRegistry struct {
	mock.Mock
}

func (m *mockSupplierRegistry) Get(ctx context.Context, id uuid.UUID) (*SupplierInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SupplierInfo), args.Error(1)
}

type mockInventoryHook struct {
	mock.Mock
}

func (m *mockInventoryHook) ApplyDelta(ctx context.Context, materialName string, delta decimal.Decimal) error {
	args := m.Called(ctx, materialName, delta)
	return args.Error(0)
}

type stubSettings struct {
	settings ScheduleSettings
}

func (s *stubSettings) Settings() ScheduleSettings {
	return s.settings
}
