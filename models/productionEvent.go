package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/config"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductionEventRecord is the transactional outbox row. It is written in the
// same transaction as the change it describes and published after commit.
type ProductionEventRecord struct {
	ID               int                 `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	EventType        ProductionEventType `gorm:"size:40;not null;index" json:"event_type"`
	ReferenceId      int                 `gorm:"index" json:"reference_id"`
	ReferenceType    ReferenceType       `gorm:"size:40;not null" json:"reference_type"`
	EmployeeId       int                 `gorm:"index" json:"employee_id"`
	Payload          []byte              `gorm:"type:blob" json:"payload"`
	PublishStatus    string              `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time          `gorm:"index" json:"published_at"`
	PubSubMessageId  *string             `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int                 `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time          `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time          `gorm:"index" json:"locked_at"`
	LockedBy         *string             `gorm:"size:100" json:"locked_by"`
	LastPublishError *string             `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string              `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// RecordProductionEvent writes the outbox row inside the caller's transaction.
// Publishing is performed asynchronously by the outbox dispatcher after commit.
func RecordProductionEvent(tx *gorm.DB, eventType ProductionEventType, refId int, refType ReferenceType, employeeId int, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	record := ProductionEventRecord{
		EventType:     eventType,
		ReferenceId:   refId,
		ReferenceType: refType,
		EmployeeId:    employeeId,
		Payload:       b,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(tx.Statement.Context),
	}
	return tx.Create(&record).Error
}

func ConvertToProductionEventMessage(record ProductionEventRecord) config.ProductionEventMessage {
	return config.ProductionEventMessage{
		ID:            record.ID,
		EventType:     string(record.EventType),
		ReferenceId:   record.ReferenceId,
		ReferenceType: string(record.ReferenceType),
		EmployeeId:    record.EmployeeId,
		OccurredAt:    record.CreatedAt,
		Payload:       json.RawMessage(record.Payload),
		CorrelationId: record.CorrelationId,
	}
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
