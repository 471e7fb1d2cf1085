package models

// BatchStatus is the lifecycle status of a batch order
type BatchStatus string

// Batch order lifecycle statuses, in forward order. Cancelled is a terminal
// exit reachable only from draft.
const (
	BatchStatusDraft        BatchStatus = "draft"
	BatchStatusReady        BatchStatus = "ready"
	BatchStatusSent         BatchStatus = "sent"
	BatchStatusAcknowledged BatchStatus = "acknowledged"
	BatchStatusInTransit    BatchStatus = "in_transit"
	BatchStatusDelivered    BatchStatus = "delivered"
	BatchStatusCompleted    BatchStatus = "completed"
	BatchStatusCancelled    BatchStatus = "cancelled"
)

// batchTransitions is the lifecycle machine. Acknowledged may be skipped when
// the supplier never confirms, and a full delivery receipt moves any receivable
// status straight to delivered. The partial-delivery hold at in_transit is not
// a transition; ReceiveDelivery keeps the status in place.
var batchTransitions = map[BatchStatus][]BatchStatus{
	BatchStatusDraft:        {BatchStatusReady, BatchStatusSent, BatchStatusCancelled},
	BatchStatusReady:        {BatchStatusSent},
	BatchStatusSent:         {BatchStatusAcknowledged, BatchStatusInTransit, BatchStatusDelivered},
	BatchStatusAcknowledged: {BatchStatusInTransit, BatchStatusDelivered},
	BatchStatusInTransit:    {BatchStatusDelivered},
	BatchStatusDelivered:    {BatchStatusCompleted},
}

// Terminal reports whether no further transitions are possible.
func (s BatchStatus) Terminal() bool {
	return len(batchTransitions[s]) == 0
}

// CanTransition reports whether a batch may move from one status to another.
func CanTransition(from, to BatchStatus) bool {
	for _, next := range batchTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// QueueItemStatus is the status of a material queue item
type QueueItemStatus string

// Material queue item statuses
const (
	QueueItemStatusPending   QueueItemStatus = "pending"
	QueueItemStatusInBatch   QueueItemStatus = "in_batch"
	QueueItemStatusOrdered   QueueItemStatus = "ordered"
	QueueItemStatusReceived  QueueItemStatus = "received"
	QueueItemStatusCancelled QueueItemStatus = "cancelled"
)
