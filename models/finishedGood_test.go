package models_test

import (
	"context"
	"testing"

	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/testutil"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"gorm.io/gorm"
)

func TestIssueFinishedGoodMovesStockToIssued(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	w := testutil.SeedWorkshop(t, db, "Packaging", models.WorkshopRoleFinishing)
	product, _ := models.CreateProduct(ctx, db, "Bag 30x40")
	client, _ := models.CreateClient(ctx, db, " Acme LLC ")

	var good *models.FinishedGood
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		good, err = models.CreateFinishedGood(tx, &models.NewFinishedGood{
			ProductId:  &product.ID,
			WorkshopId: w.ID,
			Quantity:   70,
		}, 0)
		return err
	})
	if err != nil {
		t.Fatalf("CreateFinishedGood: %v", err)
	}
	if good.Status != models.FinishedGoodStatusStock {
		t.Fatalf("expected stock status, got %q", good.Status)
	}

	sale, err := models.IssueFinishedGood(ctx, db, &models.NewFinishedGoodSale{
		FinishedGoodId: good.ID,
		ClientId:       client.ID,
		Price:          testutil.Dec(t, "1200.505"),
	})
	if err != nil {
		t.Fatalf("IssueFinishedGood: %v", err)
	}
	if !sale.Price.Equal(testutil.Dec(t, "1200.51")) {
		t.Fatalf("expected price rounded to 1200.51, got %s", sale.Price)
	}

	got, _ := models.GetFinishedGood(ctx, db, good.ID)
	if got.Status != models.FinishedGoodStatusIssued || got.IssuedAt == nil || got.Recipient != "Acme LLC" {
		t.Fatalf("unexpected finished good after sale: %+v", got)
	}

	_, err = models.IssueFinishedGood(ctx, db, &models.NewFinishedGoodSale{FinishedGoodId: good.ID, ClientId: client.ID})
	if !utils.IsErrorCode(err, utils.ErrCodeFinishedGoodAlreadyIssued) {
		t.Fatalf("expected FinishedGoodAlreadyIssued, got %v", err)
	}

	_, err = models.IssueFinishedGood(ctx, db, &models.NewFinishedGoodSale{FinishedGoodId: good.ID + 9, ClientId: client.ID})
	if !utils.IsErrorCode(err, utils.ErrCodeFinishedGoodNotFound) {
		t.Fatalf("expected FinishedGoodNotFound, got %v", err)
	}
}
