package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaterialQueueItem represents a pending procurement requirement generated by a job
type MaterialQueueItem struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt  `gorm:"index" json:"-"`
	JobID               uuid.UUID       `gorm:"type:uuid;not null;index" json:"job_id"`
	ClientID            *uuid.UUID      `gorm:"type:uuid" json:"client_id"`
	MaterialName        string          `gorm:"not null" json:"material_name"`
	MaterialType        string          `gorm:"not null;index" json:"material_type"`
	Quantity            decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"quantity"`
	Unit                string          `gorm:"not null;default:m" json:"unit"`
	UnitCost            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
	PreferredSupplierID *uuid.UUID      `gorm:"type:uuid;index" json:"preferred_supplier_id"`
	Status              QueueItemStatus `gorm:"not null;default:pending;index" json:"status"`
}

// BatchOrder represents a grouped purchase order sent to one supplier
type BatchOrder struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt            time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt   `gorm:"index" json:"-"`
	BatchNumber          string           `gorm:"not null;uniqueIndex" json:"batch_number"`
	SupplierID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Status               BatchStatus      `gorm:"not null;default:draft;index" json:"status"`
	ScheduleDate         *time.Time       `json:"schedule_date"`
	SentDate             *time.Time       `json:"sent_date"`
	AcknowledgedDate     *time.Time       `json:"acknowledged_date"`
	ExpectedDeliveryDate *time.Time       `json:"expected_delivery_date"`
	ActualDeliveryDate   *time.Time       `json:"actual_delivery_date"`
	TrackingNumber       *string          `json:"tracking_number"`
	Notes                *string          `json:"notes"`
	TotalItems           int              `gorm:"not null;default:0" json:"total_items"`
	TotalAmount          decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	Items                []BatchOrderItem `gorm:"foreignKey:BatchOrderID" json:"items,omitempty"`
}

// RecomputeTotals refreshes the derived totals from the current line items.
func (b *BatchOrder) RecomputeTotals() {
	total := decimal.Zero
	for i := range b.Items {
		total = total.Add(b.Items[i].TotalPrice)
	}
	b.TotalItems = len(b.Items)
	b.TotalAmount = total
}

// BatchOrderItem is a single material line within a batch, tracking ordered vs. received quantity
type BatchOrderItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	BatchOrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"batch_order_id"`
	QueueItemID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"queue_item_id"`
	MaterialName     string          `gorm:"not null" json:"material_name"`
	MaterialType     string          `gorm:"not null" json:"material_type"`
	Quantity         decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"quantity"`
	Unit             string          `gorm:"not null" json:"unit"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	ReceivedQuantity decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0" json:"received_quantity"`
}

// FullyReceived reports whether the line's received quantity covers its ordered quantity.
func (i *BatchOrderItem) FullyReceived() bool {
	return i.ReceivedQuantity.GreaterThanOrEqual(i.Quantity)
}

// TrackingEvent is one append-only lifecycle event of a batch order
type TrackingEvent struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	BatchOrderID uuid.UUID   `gorm:"type:uuid;not null;index" json:"batch_order_id"`
	Status       BatchStatus `gorm:"not null" json:"status"`
	Timestamp    time.Time   `gorm:"not null;index" json:"timestamp"`
	Notes        *string     `json:"notes"`
	Location     *string     `json:"location"`
}

// SupplierLeadTimeSample is the lead time observed for one completed batch,
// recorded per material type. Immutable once written.
type SupplierLeadTimeSample struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SupplierID   uuid.UUID `gorm:"type:uuid;not null;index" json:"supplier_id"`
	MaterialType string    `gorm:"not null;index" json:"material_type"`
	LeadTimeDays int       `gorm:"not null" json:"lead_time_days"`
	BatchOrderID uuid.UUID `gorm:"type:uuid;not null" json:"batch_order_id"`
	RecordedAt   time.Time `gorm:"not null;index" json:"recorded_at"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&MaterialQueueItem{},
		&BatchOrder{},
		&BatchOrderItem{},
		&TrackingEvent{},
		&SupplierLeadTimeSample{},
	)

	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
