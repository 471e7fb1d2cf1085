package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/messaging"
)

// adjustmentMessage is the payload published for each stock adjustment.
type adjustmentMessage struct {
	MaterialName string          `json:"material_name"`
	Delta        decimal.Decimal `json:"delta"`
	Timestamp    time.Time       `json:"timestamp"`
}

// ServiceBusHook publishes stock adjustments to the inventory queue.
type ServiceBusHook struct {
	bus messaging.ServiceBusClient
}

// NewServiceBusHook creates an inventory hook backed by Azure Service Bus
func NewServiceBusHook(bus messaging.ServiceBusClient) *ServiceBusHook {
	return &ServiceBusHook{bus: bus}
}

// ApplyDelta publishes a stock adjustment message
func (h *ServiceBusHook) ApplyDelta(ctx context.Context, materialName string, delta decimal.Decimal) error {
	msg := adjustmentMessage{
		MaterialName: materialName,
		Delta:        delta,
		Timestamp:    time.Now().UTC(),
	}
	return h.bus.SendMessage(ctx, msg)
}

// LoggingHook is a fallback used when no inventory queue is configured. It
// records adjustments in the log and never fails.
type LoggingHook struct{}

// NewLoggingHook creates a logging-only inventory hook
func NewLoggingHook() *LoggingHook {
	return &LoggingHook{}
}

// ApplyDelta logs the adjustment
func (h *LoggingHook) ApplyDelta(_ context.Context, materialName string, delta decimal.Decimal) error {
	log.Info().
		Str("material_name", materialName).
		Str("delta", delta.String()).
		Msg("Inventory adjustment (logging only)")
	return nil
}
