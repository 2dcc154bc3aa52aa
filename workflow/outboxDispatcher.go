package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/config"
	"bitbucket.org/mmdatafocus/factory_backend/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PublishFunc delivers one production event and returns the broker message id.
type PublishFunc func(ctx context.Context, msg config.ProductionEventMessage) (string, error)

// OutboxDispatcher publishes committed production events in id order.
// Delivery is at least once; consumers dedupe on the event id.
type OutboxDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	DispatcherID string
	Publish      PublishFunc

	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

type DispatchStats struct {
	Claimed   int
	Published int
	Failed    int
	Dead      int
}

func NewOutboxDispatcher(db *gorm.DB, logger *logrus.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		DB:             db,
		Logger:         logger,
		DispatcherID:   "production-" + uuid.NewString(),
		Publish:        config.PublishProductionEventWithResult,
		BatchSize:      50,
		PollInterval:   500 * time.Millisecond,
		LockTimeout:    30 * time.Second,
		MaxAttempts:    20,
		InitialBackoff: 5 * time.Second,
	}
}

// Run polls until ctx is done. A full batch is followed by another pass
// right away so a backlog drains without waiting for the poll interval.
func (d *OutboxDispatcher) Run(ctx context.Context) {
	for {
		stats := d.DispatchOnce(ctx)
		if stats.Claimed > 0 && stats.Claimed >= d.BatchSize {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

// DispatchOnce claims one batch of due events and publishes them.
func (d *OutboxDispatcher) DispatchOnce(ctx context.Context) DispatchStats {
	var stats DispatchStats
	if d.DB == nil || d.Publish == nil {
		return stats
	}

	now := time.Now().UTC()
	claimed, err := d.claim(ctx, now)
	if err != nil {
		if d.Logger != nil {
			config.LogError(d.Logger, "outboxDispatcher.go", "DispatchOnce", "claim outbox rows", d.DispatcherID, err)
		}
		return stats
	}
	stats.Claimed = len(claimed)

	for _, rec := range claimed {
		if rec.PublishStatus == models.OutboxPublishStatusDead {
			stats.Dead++
			continue
		}
		messageID, pubErr := d.Publish(ctx, models.ConvertToProductionEventMessage(rec))
		if pubErr != nil {
			if d.fail(ctx, rec, pubErr) {
				stats.Dead++
			} else {
				stats.Failed++
			}
			continue
		}
		d.release(ctx, rec.ID, models.OutboxPublishStatusSent, map[string]interface{}{
			"published_at":       &now,
			"pub_sub_message_id": &messageID,
		})
		stats.Published++
	}

	if d.Logger != nil && stats.Claimed > 0 {
		d.Logger.WithFields(logrus.Fields{
			"field":         "OutboxDispatcher",
			"dispatcher_id": d.DispatcherID,
			"claimed":       stats.Claimed,
			"published":     stats.Published,
			"failed":        stats.Failed,
			"dead":          stats.Dead,
		}).Info("outbox dispatch pass")
	}
	return stats
}

// claim marks due rows PROCESSING under SKIP LOCKED so concurrent
// dispatchers never publish the same row in one pass. Rows that already used
// up their attempts are moved to DEAD and returned with that status.
func (d *OutboxDispatcher) claim(ctx context.Context, now time.Time) ([]models.ProductionEventRecord, error) {
	var claimed []models.ProductionEventRecord
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// due PENDING/FAILED rows, or PROCESSING rows whose claimer went away
		err := tx.
			Where(`(publish_status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?))
				OR (publish_status = ? AND locked_at IS NOT NULL AND locked_at <= ?)`,
				[]string{models.OutboxPublishStatusPending, models.OutboxPublishStatusFailed}, now,
				models.OutboxPublishStatusProcessing, now.Add(-d.LockTimeout)).
			Order("id ASC").
			Limit(d.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Find(&claimed).Error
		if err != nil {
			return err
		}

		for i := range claimed {
			rec := &claimed[i]
			if d.exhausted(rec.PublishAttempts) {
				rec.PublishStatus = models.OutboxPublishStatusDead
				if err := tx.Model(&models.ProductionEventRecord{}).Where("id = ?", rec.ID).
					Updates(deadFields(fmt.Sprintf("max publish attempts exceeded (%d)", d.MaxAttempts))).Error; err != nil {
					return err
				}
				continue
			}

			rec.PublishStatus = models.OutboxPublishStatusProcessing
			rec.PublishAttempts++
			rec.LockedAt = &now
			rec.LockedBy = &d.DispatcherID
			if err := tx.Model(&models.ProductionEventRecord{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
				"publish_status":     rec.PublishStatus,
				"publish_attempts":   gorm.Expr("publish_attempts + 1"),
				"locked_at":          rec.LockedAt,
				"locked_by":          rec.LockedBy,
				"last_publish_error": nil,
				"next_attempt_at":    nil,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return claimed, err
}

// fail records a publish error and reports whether the row went DEAD.
func (d *OutboxDispatcher) fail(ctx context.Context, rec models.ProductionEventRecord, pubErr error) bool {
	entry := logrus.Fields{
		"field":      "OutboxDispatcher",
		"record_id":  rec.ID,
		"event_type": rec.EventType,
		"attempt":    rec.PublishAttempts,
	}

	if d.exhausted(rec.PublishAttempts) {
		d.release(ctx, rec.ID, models.OutboxPublishStatusDead, deadFields(pubErr.Error()))
		if d.Logger != nil {
			d.Logger.WithFields(entry).Error("production event moved to DEAD: " + pubErr.Error())
		}
		return true
	}

	msg := pubErr.Error()
	next := time.Now().UTC().Add(publishBackoff(d.InitialBackoff, rec.PublishAttempts))
	d.release(ctx, rec.ID, models.OutboxPublishStatusFailed, map[string]interface{}{
		"last_publish_error": &msg,
		"next_attempt_at":    &next,
	})
	if d.Logger != nil {
		entry["next_attempt_at"] = next.Format(time.RFC3339Nano)
		d.Logger.WithFields(entry).Error("production event publish failed: " + msg)
	}
	return false
}

// release clears the claim and sets the final status of this pass.
func (d *OutboxDispatcher) release(ctx context.Context, recordID int, status string, fields map[string]interface{}) {
	updates := map[string]interface{}{
		"publish_status": status,
		"locked_at":      nil,
		"locked_by":      nil,
	}
	if _, ok := fields["next_attempt_at"]; !ok {
		updates["next_attempt_at"] = nil
	}
	for k, v := range fields {
		updates[k] = v
	}
	err := d.DB.WithContext(ctx).Model(&models.ProductionEventRecord{}).Where("id = ?", recordID).Updates(updates).Error
	if err != nil && d.Logger != nil {
		config.LogError(d.Logger, "outboxDispatcher.go", "release", status, recordID, err)
	}
}

func (d *OutboxDispatcher) exhausted(attempts int) bool {
	return d.MaxAttempts > 0 && attempts >= d.MaxAttempts
}

func deadFields(reason string) map[string]interface{} {
	return map[string]interface{}{
		"publish_status":     models.OutboxPublishStatusDead,
		"last_publish_error": &reason,
		"next_attempt_at":    nil,
		"locked_at":          nil,
		"locked_by":          nil,
	}
}

// publishBackoff doubles per attempt, capped at ten minutes.
func publishBackoff(initial time.Duration, attempt int) time.Duration {
	backoff := initial
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff > 10*time.Minute {
			return 10 * time.Minute
		}
	}
	return backoff
}
