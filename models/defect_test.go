package models_test

import (
	"context"
	"testing"

	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/testutil"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func seedDefect(t *testing.T, db *gorm.DB, employeeId int) *models.Defect {
	t.Helper()
	var defect *models.Defect
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		defect, err = models.CreateDefect(tx, &models.NewDefect{
			EmployeeId:      &employeeId,
			Quantity:        decimal.NewFromInt(10),
			EmployeeComment: "extrusion scrap: 10 of 50",
		})
		return err
	})
	if err != nil {
		t.Fatalf("CreateDefect: %v", err)
	}
	return defect
}

func balanceOf(t *testing.T, db *gorm.DB, employeeId int) decimal.Decimal {
	t.Helper()
	e, err := models.GetEmployee(context.Background(), db, employeeId)
	if err != nil {
		t.Fatalf("GetEmployee: %v", err)
	}
	return e.Balance
}

func TestAssignDefectPenaltyChargesOnlyTheDelta(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	admin := testutil.SeedEmployee(t, db, "admin", 0, models.PaymentTypeFixed)
	worker := testutil.SeedEmployee(t, db, "worker", 0, models.PaymentTypeVariable)
	defect := seedDefect(t, db, worker.ID)

	amount := testutil.Dec(t, "15.50")
	comment := "careless setup"
	got, err := models.AssignDefectPenalty(ctx, db, defect.ID, &models.NewDefectPenalty{Amount: &amount, AdminComment: &comment}, admin.ID)
	if err != nil {
		t.Fatalf("AssignDefectPenalty: %v", err)
	}
	if got.PenaltyAmount == nil || !got.PenaltyAmount.Equal(amount) {
		t.Fatalf("expected penalty 15.50, got %v", got.PenaltyAmount)
	}
	if got.PenaltyAssignedBy == nil || *got.PenaltyAssignedBy != admin.ID || got.PenaltyAssignedAt == nil {
		t.Fatalf("expected assigner and time to be stamped")
	}
	if b := balanceOf(t, db, worker.ID); !b.Equal(testutil.Dec(t, "-15.5")) {
		t.Fatalf("expected balance -15.5, got %s", b)
	}

	// raising to 20 charges 4.50 more
	amount = testutil.Dec(t, "20")
	if _, err := models.AssignDefectPenalty(ctx, db, defect.ID, &models.NewDefectPenalty{Amount: &amount}, admin.ID); err != nil {
		t.Fatalf("AssignDefectPenalty: %v", err)
	}
	if b := balanceOf(t, db, worker.ID); !b.Equal(decimal.NewFromInt(-20)) {
		t.Fatalf("expected balance -20, got %s", b)
	}

	// clearing refunds it
	if _, err := models.AssignDefectPenalty(ctx, db, defect.ID, &models.NewDefectPenalty{AdminComment: &comment}, admin.ID); err != nil {
		t.Fatalf("AssignDefectPenalty: %v", err)
	}
	if b := balanceOf(t, db, worker.ID); !b.IsZero() {
		t.Fatalf("expected balance 0, got %s", b)
	}

	entries, err := models.ListEmployeeBalanceEntries(ctx, db, worker.ID)
	if err != nil {
		t.Fatalf("ListEmployeeBalanceEntries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", len(entries))
	}
	sum := decimal.Zero
	for _, e := range entries {
		if e.EntryType != models.BalanceEntryTypePenalty {
			t.Fatalf("unexpected entry type %q", e.EntryType)
		}
		sum = sum.Add(e.Amount)
	}
	if !sum.IsZero() {
		t.Fatalf("ledger must sum to the balance, got %s", sum)
	}
}

func TestAssignDefectPenaltyErrors(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	worker := testutil.SeedEmployee(t, db, "worker", 0, models.PaymentTypeFixed)
	defect := seedDefect(t, db, worker.ID)

	amount := decimal.NewFromInt(5)
	if _, err := models.AssignDefectPenalty(ctx, db, defect.ID+1, &models.NewDefectPenalty{Amount: &amount}, 0); !utils.IsErrorCode(err, utils.ErrCodeDefectNotFound) {
		t.Fatalf("expected DefectNotFound, got %v", err)
	}
	negative := decimal.NewFromInt(-1)
	if _, err := models.AssignDefectPenalty(ctx, db, defect.ID, &models.NewDefectPenalty{Amount: &negative}, 0); !utils.IsErrorCode(err, utils.ErrCodeInvalidQuantity) {
		t.Fatalf("expected InvalidQuantity, got %v", err)
	}
	if b := balanceOf(t, db, worker.ID); !b.IsZero() {
		t.Fatalf("balance changed: %s", b)
	}
}
