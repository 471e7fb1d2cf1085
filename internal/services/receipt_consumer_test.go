package services

import (
	"fmt"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestExtractGoodsReceipt(t *testing.T) {
	batchID := uuid.New()
	itemID := uuid.New()
	body := fmt.Sprintf(`{
		"batch_id": %q,
		"items": [{"batch_item_id": %q, "quantity": "7.5"}],
		"notes": "dock 3"
	}`, batchID, itemID)

	receipt, err := ExtractGoodsReceipt(&azservicebus.ReceivedMessage{Body: []byte(body)})
	require.NoError(t, err)
	require.Equal(t, batchID, receipt.BatchID)
	require.Len(t, receipt.Items, 1)
	require.Equal(t, itemID, receipt.Items[0].BatchItemID)
	require.Equal(t, "7.5", receipt.Items[0].Quantity.String())
	require.NotNil(t, receipt.Notes)
	require.Equal(t, "dock 3", *receipt.Notes)
}

func TestExtractGoodsReceiptRejectsMissingBatchID(t *testing.T) {
	itemID := uuid.New()
	body := fmt.Sprintf(`{"items": [{"batch_item_id": %q, "quantity": "1"}]}`, itemID)

	_, err := ExtractGoodsReceipt(&azservicebus.ReceivedMessage{Body: []byte(body)})
	require.Error(t, err)
}

func TestExtractGoodsReceiptRejectsEmptyItems(t *testing.T) {
	body := fmt.Sprintf(`{"batch_id": %q, "items": []}`, uuid.New())

	_, err := ExtractGoodsReceipt(&azservicebus.ReceivedMessage{Body: []byte(body)})
	require.Error(t, err)
}

func TestExtractGoodsReceiptRejectsMalformedBody(t *testing.T) {
	_, err := ExtractGoodsReceipt(&azservicebus.ReceivedMessage{Body: []byte("not json")})
	require.Error(t, err)
}
