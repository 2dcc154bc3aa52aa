package workflow_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/config"
	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/testutil"
	"bitbucket.org/mmdatafocus/factory_backend/workflow"
	"gorm.io/gorm"
)

func seedEvents(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		if err := models.RecordProductionEvent(db, models.EventNeutralBatchCreated, i, models.ReferenceTypeNeutralBatch, 1,
			map[string]int{"neutral_batch_id": i}); err != nil {
			t.Fatalf("RecordProductionEvent: %v", err)
		}
	}
}

func loadEvents(t *testing.T, db *gorm.DB) []models.ProductionEventRecord {
	t.Helper()
	var records []models.ProductionEventRecord
	if err := db.Order("id ASC").Find(&records).Error; err != nil {
		t.Fatalf("load outbox: %v", err)
	}
	return records
}

func TestOutboxDispatcherPublishesInOrder(t *testing.T) {
	db := testutil.OpenDB(t)
	seedEvents(t, db, 3)

	var published []int
	d := workflow.NewOutboxDispatcher(db, quietLogger())
	d.Publish = func(ctx context.Context, msg config.ProductionEventMessage) (string, error) {
		published = append(published, msg.ReferenceId)
		if msg.EventType != string(models.EventNeutralBatchCreated) || msg.CorrelationId == "" {
			t.Errorf("unexpected message %+v", msg)
		}
		return "msg-" + strconv.Itoa(msg.ID), nil
	}

	if stats := d.DispatchOnce(context.Background()); stats.Published != 3 || stats.Claimed != 3 {
		t.Fatalf("expected 3 published, got %+v", stats)
	}
	if len(published) != 3 || published[0] != 1 || published[2] != 3 {
		t.Fatalf("expected id order, got %v", published)
	}
	for _, r := range loadEvents(t, db) {
		if r.PublishStatus != models.OutboxPublishStatusSent || r.PublishedAt == nil || r.PubSubMessageId == nil || r.LockedBy != nil {
			t.Fatalf("unexpected record after publish: %+v", r)
		}
	}
	if stats := d.DispatchOnce(context.Background()); stats.Claimed != 0 {
		t.Fatalf("sent events must not be claimed again, got %+v", stats)
	}
}

func TestOutboxDispatcherBacksOffThenGivesUp(t *testing.T) {
	db := testutil.OpenDB(t)
	seedEvents(t, db, 1)

	d := workflow.NewOutboxDispatcher(db, quietLogger())
	d.MaxAttempts = 2
	d.InitialBackoff = time.Hour
	d.Publish = func(ctx context.Context, msg config.ProductionEventMessage) (string, error) {
		return "", errors.New("broker unavailable")
	}

	if stats := d.DispatchOnce(context.Background()); stats.Published != 0 || stats.Failed != 1 {
		t.Fatalf("expected one failure, got %+v", stats)
	}
	r := loadEvents(t, db)[0]
	if r.PublishStatus != models.OutboxPublishStatusFailed || r.PublishAttempts != 1 || r.NextAttemptAt == nil || r.LastPublishError == nil {
		t.Fatalf("expected FAILED with backoff, got %+v", r)
	}
	if !r.NextAttemptAt.After(time.Now().Add(30 * time.Minute)) {
		t.Fatalf("expected next attempt about an hour out, got %s", r.NextAttemptAt)
	}

	// not due yet
	if stats := d.DispatchOnce(context.Background()); stats.Claimed != 0 {
		t.Fatalf("expected nothing due, got %+v", stats)
	}
	if r := loadEvents(t, db)[0]; r.PublishAttempts != 1 {
		t.Fatalf("event retried before its backoff elapsed: %+v", r)
	}

	past := time.Now().UTC().Add(-time.Minute)
	if err := db.Model(&models.ProductionEventRecord{}).Where("id = ?", r.ID).Update("next_attempt_at", past).Error; err != nil {
		t.Fatalf("rewind: %v", err)
	}
	if stats := d.DispatchOnce(context.Background()); stats.Dead != 1 {
		t.Fatalf("expected one dead event, got %+v", stats)
	}
	if r := loadEvents(t, db)[0]; r.PublishStatus != models.OutboxPublishStatusDead || r.PublishAttempts != 2 {
		t.Fatalf("expected DEAD after max attempts, got %+v", r)
	}
}

func TestOutboxDispatcherReclaimsStaleProcessingRows(t *testing.T) {
	db := testutil.OpenDB(t)
	seedEvents(t, db, 1)

	stale := time.Now().UTC().Add(-time.Hour)
	owner := "crashed-dispatcher"
	if err := db.Model(&models.ProductionEventRecord{}).Where("1 = 1").Updates(map[string]interface{}{
		"publish_status":   models.OutboxPublishStatusProcessing,
		"publish_attempts": 1,
		"locked_at":        &stale,
		"locked_by":        &owner,
	}).Error; err != nil {
		t.Fatalf("seed stale claim: %v", err)
	}

	d := workflow.NewOutboxDispatcher(db, quietLogger())
	d.Publish = func(ctx context.Context, msg config.ProductionEventMessage) (string, error) {
		return "msg-1", nil
	}
	if stats := d.DispatchOnce(context.Background()); stats.Published != 1 {
		t.Fatalf("expected the stale row to be published, got %+v", stats)
	}
	if r := loadEvents(t, db)[0]; r.PublishStatus != models.OutboxPublishStatusSent || r.PublishAttempts != 2 || r.LockedBy != nil {
		t.Fatalf("unexpected record: %+v", r)
	}
}
