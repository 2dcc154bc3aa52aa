package models

// Outbox publish statuses for ProductionEventRecord.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

type ProductionEventType string

const (
	EventNeutralBatchCreated  ProductionEventType = "neutral_batch.created"
	EventNeutralBatchConsumed ProductionEventType = "neutral_batch.consumed"
	EventFinishedGoodCreated  ProductionEventType = "finished_good.created"
	EventFinishedGoodIssued   ProductionEventType = "finished_good.issued"
	EventDefectRecorded       ProductionEventType = "defect.recorded"
	EventDefectPenalized      ProductionEventType = "defect.penalized"
	EventEarningsCredited     ProductionEventType = "earnings.credited"
	EventMaterialIssued       ProductionEventType = "material.issued"
	EventMaterialReceived     ProductionEventType = "material.received"
)
