package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	require.True(t, CanTransition(BatchStatusDraft, BatchStatusReady))
	require.True(t, CanTransition(BatchStatusDraft, BatchStatusSent))
	require.True(t, CanTransition(BatchStatusSent, BatchStatusInTransit))
	require.True(t, CanTransition(BatchStatusSent, BatchStatusDelivered))
	require.True(t, CanTransition(BatchStatusAcknowledged, BatchStatusDelivered))
	require.True(t, CanTransition(BatchStatusDelivered, BatchStatusCompleted))

	require.False(t, CanTransition(BatchStatusSent, BatchStatusDraft))
	require.False(t, CanTransition(BatchStatusDelivered, BatchStatusInTransit))
	require.False(t, CanTransition(BatchStatusSent, BatchStatusSent))
}

func TestCanTransitionRejectsSkippedStates(t *testing.T) {
	require.False(t, CanTransition(BatchStatusDraft, BatchStatusDelivered))
	require.False(t, CanTransition(BatchStatusDraft, BatchStatusCompleted))
	require.False(t, CanTransition(BatchStatusReady, BatchStatusAcknowledged))
	require.False(t, CanTransition(BatchStatusReady, BatchStatusDelivered))
	require.False(t, CanTransition(BatchStatusInTransit, BatchStatusCompleted))
}

func TestCanTransitionCancelledOnlyFromDraft(t *testing.T) {
	require.True(t, CanTransition(BatchStatusDraft, BatchStatusCancelled))
	require.False(t, CanTransition(BatchStatusReady, BatchStatusCancelled))
	require.False(t, CanTransition(BatchStatusSent, BatchStatusCancelled))
	require.False(t, CanTransition(BatchStatusDelivered, BatchStatusCancelled))
}

func TestTerminalStatusesAllowNothing(t *testing.T) {
	for _, status := range []BatchStatus{BatchStatusCompleted, BatchStatusCancelled} {
		require.True(t, status.Terminal())
		require.False(t, CanTransition(status, BatchStatusDraft))
		require.False(t, CanTransition(status, BatchStatusCompleted))
	}
}
