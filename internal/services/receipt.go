package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/models"
)

// ReceiptResult is the outcome of a delivery receipt
type ReceiptResult struct {
	Batch     *models.BatchOrder `json:"batch"`
	IsPartial bool               `json:"is_partial"`
	// InventoryWarnings carries inventory-hook failures. The receipt itself
	// has committed; inventory sync is best-effort and retryable later.
	InventoryWarnings []string `json:"inventory_warnings,omitempty"`
}

// ReceiveDelivery applies delivered quantities to a batch's line items and
// advances its status. The whole call is validated before any mutation: one
// over-receipt rejects everything. Repeat calls accumulate, modelling
// successive partial shipments.
func (s *BatchService) ReceiveDelivery(ctx context.Context, batchID uuid.UUID, received map[uuid.UUID]decimal.Decimal, notes *string) (*ReceiptResult, error) {
	unlock := s.lockBatch(batchID)
	defer unlock()

	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	// Receivable means a full receipt could move the batch to delivered.
	if !models.CanTransition(batch.Status, models.BatchStatusDelivered) {
		return nil, errors.Wrapf(ErrInvalidTransition, "cannot receive into %s batch", batch.Status)
	}

	itemsByID := make(map[uuid.UUID]*models.BatchOrderItem, len(batch.Items))
	for i := range batch.Items {
		itemsByID[batch.Items[i].ID] = &batch.Items[i]
	}

	// Validate every entry before touching anything.
	deltas := make(map[uuid.UUID]decimal.Decimal, len(received))
	for itemID, qty := range received {
		if qty.Sign() < 0 {
			return nil, errors.Wrapf(ErrEmptyReceipt, "received quantity for line %s is negative", itemID)
		}
		if qty.IsZero() {
			continue
		}
		item, ok := itemsByID[itemID]
		if !ok {
			return nil, errors.Errorf("line item %s does not belong to batch %s", itemID, batchID)
		}
		if item.ReceivedQuantity.Add(qty).GreaterThan(item.Quantity) {
			return nil, errors.Wrapf(ErrOverReceipt,
				"line %s: %s received + %s delivered exceeds %s ordered",
				itemID, item.ReceivedQuantity, qty, item.Quantity)
		}
		deltas[itemID] = qty
	}
	if len(deltas) == 0 {
		return nil, errors.Wrap(ErrEmptyReceipt, "receive delivery")
	}

	var fullyReceivedQueueIDs []uuid.UUID
	for itemID, qty := range deltas {
		item := itemsByID[itemID]
		item.ReceivedQuantity = item.ReceivedQuantity.Add(qty)
		if item.FullyReceived() {
			fullyReceivedQueueIDs = append(fullyReceivedQueueIDs, item.QueueItemID)
		}
	}

	// Completion is judged across the whole batch, not just the lines
	// touched by this call.
	totalOrdered, totalReceived := decimal.Zero, decimal.Zero
	for i := range batch.Items {
		totalOrdered = totalOrdered.Add(batch.Items[i].Quantity)
		totalReceived = totalReceived.Add(batch.Items[i].ReceivedQuantity)
	}

	isPartial := totalReceived.LessThan(totalOrdered)
	now := time.Now()
	if isPartial {
		// A partial delivery holds the batch at in_transit even when it was
		// already acknowledged. Upstream treats this as intended behavior.
		batch.Status = models.BatchStatusInTransit
	} else {
		batch.Status = models.BatchStatusDelivered
		batch.ActualDeliveryDate = &now
	}

	eventNotes := receiptEventNotes(totalReceived, totalOrdered, isPartial, notes)
	event := s.newTrackingEvent(batch, &eventNotes, nil)
	if err := s.batchRepo.SaveTransition(ctx, batch, event, nil); err != nil {
		return nil, err
	}

	for _, queueID := range fullyReceivedQueueIDs {
		if err := s.queueRepo.MarkReceived(ctx, queueID); err != nil {
			log.Warn().Err(err).
				Str("queue_item_id", queueID.String()).
				Msg("Failed to mark queue item received")
		}
	}

	// The inventory hook runs strictly after the committed state change. Its
	// failures downgrade to warnings: the reconciliation is the source of
	// truth and inventory sync is separately retryable.
	var warnings []string
	if s.inventory != nil {
		for itemID, qty := range deltas {
			item := itemsByID[itemID]
			if err := s.inventory.ApplyDelta(ctx, item.MaterialName, qty); err != nil {
				log.Warn().Err(err).
					Str("batch_id", batch.ID.String()).
					Str("material", item.MaterialName).
					Str("delta", qty.String()).
					Msg("Inventory adjustment failed")
				warnings = append(warnings, fmt.Sprintf("inventory adjustment for %q failed: %v", item.MaterialName, err))
			}
		}
	}

	log.Info().
		Str("batch_id", batch.ID.String()).
		Str("batch_number", batch.BatchNumber).
		Str("status", string(batch.Status)).
		Str("total_received", totalReceived.String()).
		Str("total_ordered", totalOrdered.String()).
		Bool("partial", isPartial).
		Msg("Delivery received")

	s.indexBatch(ctx, batch)
	return &ReceiptResult{
		Batch:             batch,
		IsPartial:         isPartial,
		InventoryWarnings: warnings,
	}, nil
}

func receiptEventNotes(totalReceived, totalOrdered decimal.Decimal, isPartial bool, notes *string) string {
	kind := "Full delivery"
	if isPartial {
		kind = "Partial delivery"
	}
	msg := fmt.Sprintf("%s: %s of %s received", kind, totalReceived, totalOrdered)
	if notes != nil && *notes != "" {
		msg += " - " + *notes
	}
	return msg
}
