package handlers_test

import (
	"net/http"
	"testing"

	"bitbucket.org/mmdatafocus/factory_backend/models"
)

func TestOutboxReplayEndpoint(t *testing.T) {
	a := newAPI(t)
	admin := a.employeeWithRole(t, "admin", models.EmployeeRoleAdmin)
	accountant := a.employeeWithRole(t, "accountant", models.EmployeeRoleAccountant)

	dead := models.ProductionEventRecord{
		EventType:       models.EventDefectRecorded,
		ReferenceType:   models.ReferenceTypeDefect,
		PublishStatus:   models.OutboxPublishStatusDead,
		PublishAttempts: 20,
		CorrelationId:   "c-1",
	}
	sent := dead
	sent.PublishStatus = models.OutboxPublishStatusSent
	if err := a.db.Create(&dead).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := a.db.Create(&sent).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if status, _ := a.do(t, http.MethodPost, "/internal/ops/outbox/replay", tokenFor(t, accountant), map[string]int{"record_id": dead.ID}); status != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admins, got %d", status)
	}

	status, body := a.do(t, http.MethodPost, "/internal/ops/outbox/replay", tokenFor(t, admin), map[string]int{"record_id": dead.ID})
	if status != http.StatusOK || body["publish_status"] != models.OutboxPublishStatusFailed {
		t.Fatalf("unexpected replay response %d %v", status, body)
	}
	var reloaded models.ProductionEventRecord
	a.db.First(&reloaded, dead.ID)
	if reloaded.PublishStatus != models.OutboxPublishStatusFailed || reloaded.PublishAttempts != 0 || reloaded.NextAttemptAt == nil {
		t.Fatalf("unexpected record after replay: %+v", reloaded)
	}

	if status, _ := a.do(t, http.MethodPost, "/internal/ops/outbox/replay", tokenFor(t, admin), map[string]int{"record_id": sent.ID}); status != http.StatusNotFound {
		t.Fatalf("sent events cannot be replayed, got %d", status)
	}
}

func TestOutboxStatusEndpoint(t *testing.T) {
	a := newAPI(t)
	admin := a.employeeWithRole(t, "admin", models.EmployeeRoleAdmin)

	for _, st := range []string{
		models.OutboxPublishStatusSent,
		models.OutboxPublishStatusSent,
		models.OutboxPublishStatusPending,
		models.OutboxPublishStatusDead,
	} {
		rec := models.ProductionEventRecord{
			EventType:     models.EventNeutralBatchCreated,
			ReferenceType: models.ReferenceTypeNeutralBatch,
			PublishStatus: st,
			CorrelationId: "c-" + st,
		}
		if err := a.db.Create(&rec).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	status, body := a.do(t, http.MethodGet, "/internal/ops/outbox/status", tokenFor(t, admin), nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	counts := map[string]float64{}
	for _, raw := range body["counts"].([]interface{}) {
		row := raw.(map[string]interface{})
		counts[row["publish_status"].(string)] = row["count"].(float64)
	}
	if counts[models.OutboxPublishStatusSent] != 2 || counts[models.OutboxPublishStatusPending] != 1 || counts[models.OutboxPublishStatusDead] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	oldest, _ := body["oldest_undelivered"].(map[string]interface{})
	if oldest == nil || oldest["publish_status"] != models.OutboxPublishStatusPending {
		t.Fatalf("unexpected oldest undelivered: %v", body["oldest_undelivered"])
	}
	dead, _ := body["latest_dead"].(map[string]interface{})
	if dead == nil || dead["correlation_id"] != "c-DEAD" {
		t.Fatalf("unexpected latest dead: %v", body["latest_dead"])
	}
}
