package services

import "github.com/pkg/errors"

// Validation errors returned by the batch order service. All of them are
// synchronous, leave state untouched, and are safe for the caller to act on
// after re-reading the batch.
var (
	// ErrInvalidTransition is returned when the requested status change is not
	// legal from the batch's current status.
	ErrInvalidTransition = errors.New("invalid batch status transition")

	// ErrSupplierRequired is returned by CreateBatch when no supplier is given.
	ErrSupplierRequired = errors.New("supplier is required")

	// ErrItemAlreadyBatched is returned when a queue item is already claimed by
	// another active batch, either on the pre-check or when the transactional
	// claim loses the race.
	ErrItemAlreadyBatched = errors.New("queue item already assigned to an active batch")

	// ErrOverReceipt is returned by ReceiveDelivery when a delivered quantity
	// would push a line past its ordered quantity.
	ErrOverReceipt = errors.New("received quantity exceeds ordered quantity")

	// ErrEmptyReceipt is returned by ReceiveDelivery when the call carries no
	// effective quantity. Rejecting instead of no-opping keeps caller bugs
	// from silently producing event-less receipts.
	ErrEmptyReceipt = errors.New("receipt contains no received quantities")
)
