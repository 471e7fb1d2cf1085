package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/cache"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/models"
)

// Confidence levels for a lead-time prediction
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Trend directions for supplier performance
const (
	TrendImproving = "improving"
	TrendSlower    = "slower"
)

// Prediction is a lead-time estimate derived from historical samples
type Prediction struct {
	SupplierID        uuid.UUID `json:"supplier_id"`
	MaterialType      string    `json:"material_type"`
	EstimatedDays     int       `json:"estimated_days"`
	Confidence        string    `json:"confidence"`
	MinDays           int       `json:"min_days"`
	MaxDays           int       `json:"max_days"`
	SampleSize        int       `json:"sample_size"`
	HistoricalAverage int       `json:"historical_average"`
	Note              string    `json:"note,omitempty"`
}

// Performance summarizes a supplier's historical delivery reliability
type Performance struct {
	SupplierID        uuid.UUID `json:"supplier_id"`
	AvgLeadTimeDays   int       `json:"avg_lead_time_days"`
	OnTimeRatePercent int       `json:"on_time_rate_percent"`
	TrendDirection    string    `json:"trend_direction"`
	SampleSize        int       `json:"sample_size"`
}

// LeadTimeService derives lead-time predictions and supplier performance from
// completed batches. Pure reads: unbounded concurrency, no locking.
type LeadTimeService struct {
	samples  LeadTimeSampleRepository
	cache    *cache.RedisCache
	cacheTTL time.Duration
}

// NewLeadTimeService creates a new lead-time analytics service
func NewLeadTimeService(samples LeadTimeSampleRepository, redisCache *cache.RedisCache) *LeadTimeService {
	return &LeadTimeService{
		samples:  samples,
		cache:    redisCache,
		cacheTTL: 5 * time.Minute,
	}
}

// PredictLeadTime estimates delivery lead time for a supplier/material-type
// pair, falling back to supplier-wide history when the pair has none. Returns
// nil with no error when there is no history at all: insufficient data is not
// a failure.
func (s *LeadTimeService) PredictLeadTime(ctx context.Context, supplierID uuid.UUID, materialType string) (*Prediction, error) {
	cacheKey := cache.PredictionCacheKey(supplierID, materialType)
	if s.cache != nil {
		var cached Prediction
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	samples, err := s.samples.ListBySupplierAndMaterialType(ctx, supplierID, materialType)
	if err != nil {
		return nil, err
	}

	fallback := false
	if len(samples) == 0 {
		samples, err = s.samples.ListBySupplier(ctx, supplierID)
		if err != nil {
			return nil, err
		}
		fallback = true
	}
	if len(samples) == 0 {
		return nil, nil
	}

	prediction := computePrediction(leadTimes(samples))
	prediction.SupplierID = supplierID
	prediction.MaterialType = materialType
	if fallback {
		if prediction.Note != "" {
			prediction.Note += "; "
		}
		prediction.Note += "no history for this material type, based on all deliveries from this supplier"
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, prediction, s.cacheTTL); err != nil {
			log.Debug().Err(err).Str("key", cacheKey).Msg("Failed to cache prediction")
		}
	}
	return prediction, nil
}

// GetSupplierPerformance computes the supplier's on-time delivery rate across
// all its samples. Returns nil when the supplier has no history.
func (s *LeadTimeService) GetSupplierPerformance(ctx context.Context, supplierID uuid.UUID) (*Performance, error) {
	cacheKey := cache.PerformanceCacheKey(supplierID)
	if s.cache != nil {
		var cached Performance
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	samples, err := s.samples.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}

	performance := computePerformance(leadTimes(samples))
	performance.SupplierID = supplierID

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, performance, s.cacheTTL); err != nil {
			log.Debug().Err(err).Str("key", cacheKey).Msg("Failed to cache supplier performance")
		}
	}
	return performance, nil
}

// InvalidateSupplier drops cached analytics after new samples are recorded
func (s *LeadTimeService) InvalidateSupplier(ctx context.Context, supplierID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPrefix(ctx, cache.SupplierAnalyticsPrefix(supplierID)); err != nil {
		log.Warn().Err(err).
			Str("supplier_id", supplierID.String()).
			Msg("Failed to invalidate supplier analytics cache")
	}
}

func leadTimes(samples []models.SupplierLeadTimeSample) []int {
	days := make([]int, len(samples))
	for i := range samples {
		days[i] = samples[i].LeadTimeDays
	}
	return days
}

// computePrediction is a deterministic function of the sample set. Samples
// must be in recording order.
func computePrediction(days []int) *Prediction {
	n := len(days)
	if n == 0 {
		return nil
	}

	sum := 0
	for _, d := range days {
		sum += d
	}
	mean := float64(sum) / float64(n)
	estimated := int(math.Round(mean))

	stdDev := sampleStdDev(days, mean)
	cv := 0.0
	if estimated != 0 {
		cv = stdDev / float64(estimated)
	}

	confidence := ConfidenceLow
	switch {
	case n >= 5 && cv <= 0.2:
		confidence = ConfidenceHigh
	case (n >= 3 && cv <= 0.4) || n >= 5:
		confidence = ConfidenceMedium
	}

	spread := int(math.Round(stdDev))
	minDays, maxDays := estimated, estimated
	if spread > 0 {
		minDays = estimated - spread
		if minDays < 1 {
			minDays = 1
		}
		maxDays = estimated + spread
	}

	note := ""
	if n < 3 {
		note = "based on limited historical data"
	}

	return &Prediction{
		EstimatedDays:     estimated,
		Confidence:        confidence,
		MinDays:           minDays,
		MaxDays:           maxDays,
		SampleSize:        n,
		HistoricalAverage: estimated,
		Note:              note,
	}
}

// computePerformance derives the on-time rate: the share of samples within
// one day of the supplier's mean lead time. Samples must be in recording
// order; the trend compares the most recent sample against the all-time mean.
func computePerformance(days []int) *Performance {
	n := len(days)
	if n == 0 {
		return nil
	}

	sum := 0
	for _, d := range days {
		sum += d
	}
	mean := float64(sum) / float64(n)

	onTime := 0
	for _, d := range days {
		if math.Abs(float64(d)-mean) <= 1.0 {
			onTime++
		}
	}

	trend := TrendSlower
	if float64(days[n-1]) < mean {
		trend = TrendImproving
	}

	return &Performance{
		AvgLeadTimeDays:   int(math.Round(mean)),
		OnTimeRatePercent: int(math.Round(float64(onTime) / float64(n) * 100)),
		TrendDirection:    trend,
		SampleSize:        n,
	}
}

// sampleStdDev is the sample standard deviation, zero for a single sample.
func sampleStdDev(days []int, mean float64) float64 {
	n := len(days)
	if n < 2 {
		return 0
	}
	varianceSum := 0.0
	for _, d := range days {
		diff := float64(d) - mean
		varianceSum += diff * diff
	}
	return math.Sqrt(varianceSum / float64(n-1))
}
