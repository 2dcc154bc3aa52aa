package workflow_test

import (
	"context"
	"io"
	"testing"

	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/testutil"
	"bitbucket.org/mmdatafocus/factory_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newWorkflow(db *gorm.DB) *workflow.ProductionWorkflow {
	return workflow.NewProductionWorkflow(db, quietLogger(), nil)
}

type conversionFixture struct {
	db       *gorm.DB
	workshop *models.Workshop
	employee *models.Employee
}

func newConversionFixture(t *testing.T, paymentType models.PaymentType) *conversionFixture {
	t.Helper()
	db := testutil.OpenDB(t)
	w := testutil.SeedWorkshop(t, db, "Экструзионный цех", models.WorkshopRoleConversion)
	e := testutil.SeedEmployee(t, db, "extruder", w.ID, paymentType)
	return &conversionFixture{db: db, workshop: w, employee: e}
}

type finishingFixture struct {
	db         *gorm.DB
	workshop   *models.Workshop
	employee   *models.Employee
	conversion *models.Workshop
	product    *models.Product
	order      *models.Order
}

func newFinishingFixture(t *testing.T, paymentType models.PaymentType) *finishingFixture {
	t.Helper()
	db := testutil.OpenDB(t)
	conversion := testutil.SeedWorkshop(t, db, "Экструзионный цех", models.WorkshopRoleConversion)
	w := testutil.SeedWorkshop(t, db, "Пакетоотделочный цех", models.WorkshopRoleFinishing)
	e := testutil.SeedEmployee(t, db, "packer", w.ID, paymentType)
	product, err := models.CreateProduct(context.Background(), db, "Bag 30x40")
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	order, err := models.CreateOrder(context.Background(), db, nil, []models.NewOrderItem{{ProductId: product.ID, Quantity: 500}})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return &finishingFixture{db: db, workshop: w, employee: e, conversion: conversion, product: product, order: order}
}

func (f *finishingFixture) batch(t *testing.T, total, used string) *models.NeutralBatch {
	t.Helper()
	return testutil.SeedBatch(t, f.db, f.conversion.ID, f.employee.ID, total, used)
}

func employeeBalance(t *testing.T, db *gorm.DB, id int) decimal.Decimal {
	t.Helper()
	var e models.Employee
	if err := db.First(&e, id).Error; err != nil {
		t.Fatalf("load employee: %v", err)
	}
	return e.Balance
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func dec(t *testing.T, s string) decimal.Decimal {
	return testutil.Dec(t, s)
}
