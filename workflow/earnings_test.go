package workflow_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/testutil"
	"bitbucket.org/mmdatafocus/factory_backend/workflow"
	"github.com/shopspring/decimal"
)

func TestCalculateEarnings(t *testing.T) {
	db := testutil.OpenDB(t)
	rated := testutil.SeedWorkshop(t, db, "Экструзия 1", models.WorkshopRoleConversion)
	unrated := testutil.SeedWorkshop(t, db, "Экструзия 2", models.WorkshopRoleConversion)
	testutil.SeedService(t, db, rated.ID, "0.125", true)

	cases := []struct {
		name        string
		workshopId  int
		produced    string
		paymentType models.PaymentType
		want        string
	}{
		{"salaried", rated.ID, "100", models.PaymentTypeFixed, "0"},
		{"piece rate", rated.ID, "100", models.PaymentTypeVariable, "12.5"},
		// 0.125 * 3 = 0.375
		{"half rounds away from zero", rated.ID, "3", models.PaymentTypeVariable, "0.38"},
		{"no active service", unrated.ID, "100", models.PaymentTypeVariable, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := workflow.CalculateEarnings(db, tc.workshopId, testutil.Dec(t, tc.produced), tc.paymentType)
			if err != nil {
				t.Fatalf("CalculateEarnings: %v", err)
			}
			if !got.Equal(testutil.Dec(t, tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestCreditEarningsSkipsNonPositive(t *testing.T) {
	db := testutil.OpenDB(t)
	w := testutil.SeedWorkshop(t, db, "Экструзия", models.WorkshopRoleConversion)
	e := testutil.SeedEmployee(t, db, "extruder", w.ID, models.PaymentTypeVariable)

	if err := workflow.CreditEarnings(db, e.ID, decimal.Zero, models.ReferenceTypeNeutralBatch, 1); err != nil {
		t.Fatalf("CreditEarnings: %v", err)
	}
	if n := count(t, db, &models.EmployeeBalanceEntry{}); n != 0 {
		t.Fatalf("zero earnings must not write a ledger entry, got %d", n)
	}

	if err := workflow.CreditEarnings(db, e.ID, testutil.Dec(t, "7.25"), models.ReferenceTypeNeutralBatch, 1); err != nil {
		t.Fatalf("CreditEarnings: %v", err)
	}
	if b := employeeBalance(t, db, e.ID); !b.Equal(testutil.Dec(t, "7.25")) {
		t.Fatalf("expected balance 7.25, got %s", b)
	}
	if n := count(t, db, &models.ProductionEventRecord{}); n != 1 {
		t.Fatalf("expected one earnings event, got %d", n)
	}
}
