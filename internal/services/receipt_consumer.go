package services

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// GoodsReceiptLine is one received line in a goods receipt message
type GoodsReceiptLine struct {
	BatchItemID uuid.UUID       `json:"batch_item_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// GoodsReceiptMessage is the payload published by warehouse scanners when a
// shipment arrives.
type GoodsReceiptMessage struct {
	BatchID uuid.UUID          `json:"batch_id" validate:"required"`
	Items   []GoodsReceiptLine `json:"items" validate:"required,min=1,dive"`
	Notes   *string            `json:"notes"`
}

// ProcessGoodsReceiptMessage processes a goods receipt message from Azure Service Bus
func (s *BatchService) ProcessGoodsReceiptMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error {
	// Extract receipt details
	receipt, err := ExtractGoodsReceipt(message)
	if err != nil {
		return errors.Wrap(err, "failed to extract goods receipt")
	}

	received := make(map[uuid.UUID]decimal.Decimal, len(receipt.Items))
	for _, line := range receipt.Items {
		received[line.BatchItemID] = received[line.BatchItemID].Add(line.Quantity)
	}

	result, err := s.ReceiveDelivery(ctx, receipt.BatchID, received, receipt.Notes)
	if err != nil {
		return errors.Wrap(err, "failed to reconcile goods receipt")
	}

	log.Info().
		Str("batch_id", receipt.BatchID.String()).
		Str("batch_number", result.Batch.BatchNumber).
		Bool("partial", result.IsPartial).
		Int("warnings", len(result.InventoryWarnings)).
		Msg("Goods receipt message processed")

	return nil
}

// ExtractGoodsReceipt extracts and validates a goods receipt from a message
func ExtractGoodsReceipt(message *azservicebus.ReceivedMessage) (*GoodsReceiptMessage, error) {
	var receipt GoodsReceiptMessage
	if err := json.Unmarshal(message.Body, &receipt); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal goods receipt message")
	}

	if err := validate.Struct(&receipt); err != nil {
		return nil, errors.Wrap(err, "invalid goods receipt message")
	}

	return &receipt, nil
}
