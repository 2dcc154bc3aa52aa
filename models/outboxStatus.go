package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type OutboxStatusCount struct {
	PublishStatus string `json:"publish_status"`
	Count         int64  `json:"count"`
}

// OutboxStatus is the ops view of the production event outbox.
type OutboxStatus struct {
	Counts []OutboxStatusCount `json:"counts"`
	// oldest event not yet delivered (PENDING, PROCESSING or FAILED)
	OldestUndelivered *ProductionEventRecord `json:"oldest_undelivered"`
	// latest DEAD event, if any
	LatestDead *ProductionEventRecord `json:"latest_dead"`
}

func GetOutboxStatus(ctx context.Context, db *gorm.DB) (*OutboxStatus, error) {
	conn := db.WithContext(ctx)
	status := &OutboxStatus{Counts: []OutboxStatusCount{}}
	if err := conn.Model(&ProductionEventRecord{}).
		Select("publish_status, COUNT(*) AS count").
		Group("publish_status").
		Order("publish_status").
		Scan(&status.Counts).Error; err != nil {
		return nil, err
	}

	var oldest ProductionEventRecord
	err := conn.Where("publish_status IN ?", []string{
		OutboxPublishStatusPending, OutboxPublishStatusProcessing, OutboxPublishStatusFailed,
	}).Order("id").First(&oldest).Error
	if err == nil {
		status.OldestUndelivered = &oldest
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var dead ProductionEventRecord
	err = conn.Where("publish_status = ?", OutboxPublishStatusDead).Order("id DESC").First(&dead).Error
	if err == nil {
		status.LatestDead = &dead
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return status, nil
}
