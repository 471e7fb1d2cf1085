package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/models"
)

func samplesFromDays(supplierID uuid.UUID, materialType string, days ...int) []models.SupplierLeadTimeSample {
	samples := make([]models.SupplierLeadTimeSample, len(days))
	for i, d := range days {
		samples[i] = models.SupplierLeadTimeSample{
			ID:           uuid.New(),
			SupplierID:   supplierID,
			MaterialType: materialType,
			LeadTimeDays: d,
		}
	}
	return samples
}

func TestComputePredictionStableHistory(t *testing.T) {
	p := computePrediction([]int{5, 5, 5, 5, 5})
	require.NotNil(t, p)
	require.Equal(t, 5, p.EstimatedDays)
	require.Equal(t, ConfidenceHigh, p.Confidence)
	require.Equal(t, 5, p.MinDays)
	require.Equal(t, 5, p.MaxDays)
	require.Equal(t, 5, p.SampleSize)
	require.Empty(t, p.Note)
}

func TestComputePredictionVolatileHistory(t *testing.T) {
	p := computePrediction([]int{3, 10})
	require.NotNil(t, p)
	require.Equal(t, 7, p.EstimatedDays)
	require.Equal(t, ConfidenceLow, p.Confidence)
	require.Equal(t, 2, p.MinDays)
	require.Equal(t, 12, p.MaxDays)
	require.Equal(t, "based on limited historical data", p.Note)
}

func TestComputePredictionSingleSample(t *testing.T) {
	p := computePrediction([]int{8})
	require.NotNil(t, p)
	require.Equal(t, 8, p.EstimatedDays)
	require.Equal(t, 8, p.MinDays)
	require.Equal(t, 8, p.MaxDays)
	require.Equal(t, ConfidenceLow, p.Confidence)
	require.Equal(t, "based on limited historical data", p.Note)
}

func TestComputePredictionMediumConfidence(t *testing.T) {
	p := computePrediction([]int{5, 6, 7})
	require.NotNil(t, p)
	require.Equal(t, 6, p.EstimatedDays)
	require.Equal(t, ConfidenceMedium, p.Confidence)
	require.Equal(t, 5, p.MinDays)
	require.Equal(t, 7, p.MaxDays)
	require.Empty(t, p.Note)
}

func TestComputePredictionManySamplesHighVariance(t *testing.T) {
	// n >= 5 caps confidence at medium despite the large spread
	p := computePrediction([]int{2, 10, 4, 12, 7})
	require.NotNil(t, p)
	require.Equal(t, 7, p.EstimatedDays)
	require.Equal(t, ConfidenceMedium, p.Confidence)
	require.Equal(t, 3, p.MinDays)
	require.Equal(t, 11, p.MaxDays)
}

func TestComputePredictionRangeFloorsAtOneDay(t *testing.T) {
	p := computePrediction([]int{1, 2, 1, 8})
	require.NotNil(t, p)
	require.GreaterOrEqual(t, p.MinDays, 1)
}

func TestComputePredictionEmpty(t *testing.T) {
	require.Nil(t, computePrediction(nil))
}

func TestComputePerformanceSingleSample(t *testing.T) {
	p := computePerformance([]int{7})
	require.NotNil(t, p)
	require.Equal(t, 7, p.AvgLeadTimeDays)
	require.Equal(t, 100, p.OnTimeRatePercent)
	require.Equal(t, TrendSlower, p.TrendDirection)
	require.Equal(t, 1, p.SampleSize)
}

func TestComputePerformanceMixedHistory(t *testing.T) {
	p := computePerformance([]int{10, 8, 9, 6})
	require.NotNil(t, p)
	require.Equal(t, 8, p.AvgLeadTimeDays)
	require.Equal(t, 50, p.OnTimeRatePercent)
	require.Equal(t, TrendImproving, p.TrendDirection)
	require.Equal(t, 4, p.SampleSize)
}

func TestPredictLeadTimeUsesMaterialTypeHistory(t *testing.T) {
	supplierID := uuid.New()
	sampleRepo := new(mockSampleRepo)
	sampleRepo.On("ListBySupplierAndMaterialType", context.Background(), supplierID, "fabric").
		Return(samplesFromDays(supplierID, "fabric", 4, 5, 6), nil)

	svc := NewLeadTimeService(sampleRepo, nil)

	p, err := svc.PredictLeadTime(context.Background(), supplierID, "fabric")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, supplierID, p.SupplierID)
	require.Equal(t, "fabric", p.MaterialType)
	require.Equal(t, 5, p.EstimatedDays)
	require.Empty(t, p.Note)
	sampleRepo.AssertNotCalled(t, "ListBySupplier", context.Background(), supplierID)
}

func TestPredictLeadTimeFallsBackToSupplierHistory(t *testing.T) {
	supplierID := uuid.New()
	sampleRepo := new(mockSampleRepo)
	sampleRepo.On("ListBySupplierAndMaterialType", context.Background(), supplierID, "hardware").
		Return([]models.SupplierLeadTimeSample{}, nil)
	sampleRepo.On("ListBySupplier", context.Background(), supplierID).
		Return(samplesFromDays(supplierID, "fabric", 6, 6, 6), nil)

	svc := NewLeadTimeService(sampleRepo, nil)

	p, err := svc.PredictLeadTime(context.Background(), supplierID, "hardware")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, 6, p.EstimatedDays)
	require.Contains(t, p.Note, "no history for this material type")
}

func TestPredictLeadTimeNoHistory(t *testing.T) {
	supplierID := uuid.New()
	sampleRepo := new(mockSampleRepo)
	sampleRepo.On("ListBySupplierAndMaterialType", context.Background(), supplierID, "fabric").
		Return([]models.SupplierLeadTimeSample{}, nil)
	sampleRepo.On("ListBySupplier", context.Background(), supplierID).
		Return([]models.SupplierLeadTimeSample{}, nil)

	svc := NewLeadTimeService(sampleRepo, nil)

	p, err := svc.PredictLeadTime(context.Background(), supplierID, "fabric")
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestGetSupplierPerformanceNoHistory(t *testing.T) {
	supplierID := uuid.New()
	sampleRepo := new(mockSampleRepo)
	sampleRepo.On("ListBySupplier", context.Background(), supplierID).
		Return([]models.SupplierLeadTimeSample{}, nil)

	svc := NewLeadTimeService(sampleRepo, nil)

	p, err := svc.GetSupplierPerformance(context.Background(), supplierID)
	require.NoError(t, err)
	require.Nil(t, p)
}
