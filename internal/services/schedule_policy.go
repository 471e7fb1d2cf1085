package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dbaltunis/interio-ai-canvas-sub011/config"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/models"
)

// ConfigScheduleSettings adapts procurement configuration to the
// ScheduleSettingsProvider interface.
type ConfigScheduleSettings struct {
	cfg config.ProcurementConfig
}

// NewConfigScheduleSettings wraps procurement config as a settings provider
func NewConfigScheduleSettings(cfg config.ProcurementConfig) *ConfigScheduleSettings {
	return &ConfigScheduleSettings{cfg: cfg}
}

// Settings returns the configured procurement defaults
func (p *ConfigScheduleSettings) Settings() ScheduleSettings {
	return ScheduleSettings{
		LeadTimeDaysDefault: p.cfg.LeadTimeDaysDefault,
		AutoAssignSuppliers: p.cfg.AutoAssignSuppliers,
		BatchNumberPrefix:   p.cfg.BatchNumberPrefix,
	}
}

// SchedulePolicy runs the periodic procurement housekeeping: grouping pending
// queue items into draft batches per supplier, and promoting draft batches to
// ready once their schedule date arrives.
type SchedulePolicy struct {
	batches  *BatchService
	settings ScheduleSettingsProvider
}

// NewSchedulePolicy creates a schedule policy over the batch service
func NewSchedulePolicy(batches *BatchService, settings ScheduleSettingsProvider) *SchedulePolicy {
	return &SchedulePolicy{
		batches:  batches,
		settings: settings,
	}
}

// Run executes one pass of the schedule policy
func (p *SchedulePolicy) Run(ctx context.Context) error {
	if p.settings.Settings().AutoAssignSuppliers {
		if err := p.autoCreateDrafts(ctx); err != nil {
			log.Error().Err(err).Msg("Auto-create pass failed")
		}
	}
	return p.promoteScheduledDrafts(ctx)
}

// autoCreateDrafts groups pending queue items by their preferred supplier and
// creates one draft batch per supplier. Items without a preferred supplier are
// left in the queue for manual batching.
func (p *SchedulePolicy) autoCreateDrafts(ctx context.Context) error {
	pending, err := p.batches.ListPendingQueue(ctx, QueueFilter{})
	if err != nil {
		return err
	}

	grouped := make(map[uuid.UUID][]uuid.UUID)
	for i := range pending {
		item := &pending[i]
		if item.PreferredSupplierID == nil || *item.PreferredSupplierID == uuid.Nil {
			continue
		}
		grouped[*item.PreferredSupplierID] = append(grouped[*item.PreferredSupplierID], item.ID)
	}

	for supplierID, itemIDs := range grouped {
		scheduleDate := time.Now()
		batch, err := p.batches.CreateBatch(ctx, &CreateBatchRequest{
			SupplierID:   supplierID,
			QueueItemIDs: itemIDs,
			ScheduleDate: &scheduleDate,
		})
		if err != nil {
			log.Error().Err(err).
				Str("supplier_id", supplierID.String()).
				Int("item_count", len(itemIDs)).
				Msg("Failed to auto-create draft batch")
			continue
		}

		log.Info().
			Str("batch_id", batch.ID.String()).
			Str("batch_number", batch.BatchNumber).
			Str("supplier_id", supplierID.String()).
			Int("item_count", len(itemIDs)).
			Msg("Auto-created draft batch")
	}

	return nil
}

// promoteScheduledDrafts marks draft batches ready once their schedule date
// has passed.
func (p *SchedulePolicy) promoteScheduledDrafts(ctx context.Context) error {
	status := models.BatchStatusDraft
	drafts, err := p.batches.ListBatches(ctx, BatchFilter{Status: &status})
	if err != nil {
		return err
	}

	now := time.Now()
	for i := range drafts {
		draft := &drafts[i]
		if draft.ScheduleDate == nil || draft.ScheduleDate.After(now) {
			continue
		}

		if _, err := p.batches.MarkReady(ctx, draft.ID); err != nil {
			log.Error().Err(err).
				Str("batch_id", draft.ID.String()).
				Msg("Failed to promote scheduled draft")
			continue
		}
	}

	return nil
}
