package testutil

import (
	"context"
	"testing"

	"bitbucket.org/mmdatafocus/factory_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

func SeedWorkshop(t *testing.T, db *gorm.DB, name string, role models.WorkshopRole) *models.Workshop {
	t.Helper()
	w, err := models.CreateWorkshop(context.Background(), db, &models.NewWorkshop{Name: name, Role: role})
	if err != nil {
		t.Fatalf("CreateWorkshop: %v", err)
	}
	return w
}

func SeedEmployee(t *testing.T, db *gorm.DB, name string, workshopId int, paymentType models.PaymentType) *models.Employee {
	t.Helper()
	var wid *int
	if workshopId > 0 {
		wid = &workshopId
	}
	e, err := models.CreateEmployee(context.Background(), db, &models.NewEmployee{
		Name:        name,
		Username:    name,
		PaymentType: paymentType,
		WorkshopId:  wid,
	})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	return e
}

func SeedService(t *testing.T, db *gorm.DB, workshopId int, price string, active bool) *models.Service {
	t.Helper()
	s, err := models.CreateService(context.Background(), db, &models.NewService{
		WorkshopId: workshopId,
		Name:       "service",
		Price:      Dec(t, price),
		IsActive:   &active,
	})
	if err != nil {
		t.Fatalf("CreateService: %v", err)
	}
	return s
}

func SeedMaterial(t *testing.T, db *gorm.DB, name string, stock string) *models.RawMaterial {
	t.Helper()
	m, err := models.CreateRawMaterial(context.Background(), db, &models.NewRawMaterial{
		Name:     name,
		Unit:     "kg",
		Quantity: Dec(t, stock),
		Price:    Dec(t, "2.50"),
	})
	if err != nil {
		t.Fatalf("CreateRawMaterial: %v", err)
	}
	return m
}

// SeedIssue issues quantity of a fresh material with enough stock to the employee.
func SeedIssue(t *testing.T, db *gorm.DB, employeeId int, quantity string) *models.EmployeeMaterialBalance {
	t.Helper()
	m := SeedMaterial(t, db, "granules", "1000")
	b, err := models.IssueMaterial(context.Background(), db, &models.NewMaterialIssue{
		EmployeeId: employeeId,
		MaterialId: m.ID,
		Quantity:   Dec(t, quantity),
	})
	if err != nil {
		t.Fatalf("IssueMaterial: %v", err)
	}
	return b
}

// SeedBatch inserts a neutral batch with the given total and used quantities.
func SeedBatch(t *testing.T, db *gorm.DB, workshopId int, employeeId int, total string, used string) *models.NeutralBatch {
	t.Helper()
	batch := models.NeutralBatch{
		WorkshopId:    workshopId,
		EmployeeId:    employeeId,
		TotalQuantity: Dec(t, total),
		UsedQuantity:  Dec(t, used),
	}
	if err := db.Create(&batch).Error; err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return &batch
}
