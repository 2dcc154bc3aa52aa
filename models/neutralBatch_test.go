package models_test

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/factory_backend/config"
	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/testutil"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestListAvailableNeutralBatchesSkipsExhaustedNewestFirst(t *testing.T) {
	db := testutil.OpenDB(t)
	w := testutil.SeedWorkshop(t, db, "Extrusion", models.WorkshopRoleConversion)
	e := testutil.SeedEmployee(t, db, "alice", w.ID, models.PaymentTypeFixed)

	partial := testutil.SeedBatch(t, db, w.ID, e.ID, "100", "30")
	testutil.SeedBatch(t, db, w.ID, e.ID, "50", "50")
	fresh := testutil.SeedBatch(t, db, w.ID, e.ID, "20", "0")

	batches, pageInfo, err := models.ListAvailableNeutralBatches(context.Background(), db, "", 0)
	if err != nil {
		t.Fatalf("ListAvailableNeutralBatches: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 available batches, got %d", len(batches))
	}
	if batches[0].ID != fresh.ID || batches[1].ID != partial.ID {
		t.Fatalf("unexpected order: %d, %d", batches[0].ID, batches[1].ID)
	}
	if pageInfo.HasNextPage {
		t.Fatalf("expected a single page")
	}
	if !batches[1].AvailableQuantity().Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected available 70, got %s", batches[1].AvailableQuantity())
	}

	var count int64
	db.Model(&models.NeutralBatch{}).Count(&count)
	if count != 3 {
		t.Fatalf("exhausted batch must stay persisted, got %d rows", count)
	}
}

func TestListAvailableNeutralBatchesPages(t *testing.T) {
	db := testutil.OpenDB(t)
	w := testutil.SeedWorkshop(t, db, "Extrusion", models.WorkshopRoleConversion)
	e := testutil.SeedEmployee(t, db, "alice", w.ID, models.PaymentTypeFixed)

	var ids []int
	for i := 0; i < 5; i++ {
		ids = append(ids, testutil.SeedBatch(t, db, w.ID, e.ID, "10", "0").ID)
	}

	ctx := context.Background()
	first, pageInfo, err := models.ListAvailableNeutralBatches(ctx, db, "", 2)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 2 || first[0].ID != ids[4] || first[1].ID != ids[3] || !pageInfo.HasNextPage {
		t.Fatalf("unexpected first page: %d rows, next=%v", len(first), pageInfo.HasNextPage)
	}

	second, pageInfo, err := models.ListAvailableNeutralBatches(ctx, db, pageInfo.EndCursor, 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 2 || second[0].ID != ids[2] || !pageInfo.HasNextPage {
		t.Fatalf("unexpected second page")
	}

	last, pageInfo, err := models.ListAvailableNeutralBatches(ctx, db, pageInfo.EndCursor, 2)
	if err != nil {
		t.Fatalf("last page: %v", err)
	}
	if len(last) != 1 || last[0].ID != ids[0] || pageInfo.HasNextPage {
		t.Fatalf("unexpected last page")
	}

	if _, _, err := models.ListAvailableNeutralBatches(ctx, db, "not-a-cursor", 2); !errors.Is(err, models.ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor, got %v", err)
	}
}

func TestConsumeIncrementsUsedQuantityUnderLock(t *testing.T) {
	db := testutil.OpenDB(t)
	w := testutil.SeedWorkshop(t, db, "Extrusion", models.WorkshopRoleConversion)
	e := testutil.SeedEmployee(t, db, "alice", w.ID, models.PaymentTypeFixed)
	seeded := testutil.SeedBatch(t, db, w.ID, e.ID, "100", "30")

	err := db.Transaction(func(tx *gorm.DB) error {
		batch, err := models.LockNeutralBatch(tx, seeded.ID)
		if err != nil {
			return err
		}
		return batch.Consume(tx, batch.AvailableQuantity())
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	got, err := models.GetNeutralBatch(context.Background(), db, seeded.ID)
	if err != nil {
		t.Fatalf("GetNeutralBatch: %v", err)
	}
	if !got.UsedQuantity.Equal(decimal.NewFromInt(100)) || !got.IsExhausted() {
		t.Fatalf("expected used 100 and exhausted, got used %s", got.UsedQuantity)
	}

	history, err := models.ListHistory(db, models.ReferenceTypeNeutralBatch, seeded.ID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(history) != 1 || history[0].Description != "consumed 70 of 100" || history[0].EmployeeName != "System" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestLockNeutralBatchNotFound(t *testing.T) {
	db := testutil.OpenDB(t)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := models.LockNeutralBatch(tx, 404)
		return err
	})
	if !utils.IsErrorCode(err, utils.ErrCodeBatchNotFound) {
		t.Fatalf("expected BatchNotFound, got %v", err)
	}
}

func TestAppendOnlyTablesRefuseDelete(t *testing.T) {
	db := testutil.OpenDB(t)
	w := testutil.SeedWorkshop(t, db, "Extrusion", models.WorkshopRoleConversion)
	e := testutil.SeedEmployee(t, db, "alice", w.ID, models.PaymentTypeFixed)
	batch := testutil.SeedBatch(t, db, w.ID, e.ID, "10", "0")

	err := db.Delete(&models.NeutralBatch{}, batch.ID).Error
	if !errors.Is(err, config.ErrAppendOnlyTable) {
		t.Fatalf("expected ErrAppendOnlyTable, got %v", err)
	}
	if _, err := models.GetNeutralBatch(context.Background(), db, batch.ID); err != nil {
		t.Fatalf("batch must survive: %v", err)
	}

	// ordinary tables are unaffected
	if err := db.Delete(&models.Workshop{}, w.ID).Error; err != nil {
		t.Fatalf("delete workshop: %v", err)
	}
}
