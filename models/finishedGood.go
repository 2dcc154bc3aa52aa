package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type FinishedGood struct {
	ID          int                `gorm:"primary_key" json:"id"`
	ProductId   *int               `gorm:"index" json:"product_id"`
	WorkshopId  int                `gorm:"index;not null" json:"workshop_id"`
	OrderId     *int               `gorm:"index" json:"order_id"`
	OrderItemId *int               `gorm:"index" json:"order_item_id"`
	Quantity    int64              `gorm:"not null;default:0" json:"quantity"`
	Status      FinishedGoodStatus `gorm:"size:20;index;not null;default:'stock'" json:"status"`
	ReceivedAt  time.Time          `gorm:"autoCreateTime" json:"received_at"`
	IssuedAt    *time.Time         `json:"issued_at"`
	Recipient   string             `gorm:"size:200" json:"recipient"`
	Comment     string             `gorm:"type:text" json:"comment"`
}

type NewFinishedGood struct {
	ProductId   *int
	WorkshopId  int
	OrderId     *int
	OrderItemId *int
	Quantity    int64
}

type FinishedGoodSale struct {
	ID             int             `gorm:"primary_key" json:"id"`
	FinishedGoodId int             `gorm:"index;not null" json:"finished_good_id"`
	ClientId       int             `gorm:"index;not null" json:"client_id"`
	OrderId        *int            `gorm:"index" json:"order_id"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	SoldAt         time.Time       `gorm:"autoCreateTime" json:"sold_at"`
}

type NewFinishedGoodSale struct {
	FinishedGoodId int             `json:"finished_good_id" binding:"required"`
	ClientId       int             `json:"client_id" binding:"required"`
	OrderId        *int            `json:"order_id"`
	Price          decimal.Decimal `json:"price"`
}

// CreateFinishedGood inserts a record in stock status.
func CreateFinishedGood(tx *gorm.DB, input *NewFinishedGood, employeeId int) (*FinishedGood, error) {
	good := FinishedGood{
		ProductId:   input.ProductId,
		WorkshopId:  input.WorkshopId,
		OrderId:     input.OrderId,
		OrderItemId: input.OrderItemId,
		Quantity:    input.Quantity,
		Status:      FinishedGoodStatusStock,
	}
	if err := tx.Create(&good).Error; err != nil {
		return nil, err
	}
	if err := RecordProductionEvent(tx, EventFinishedGoodCreated, good.ID, ReferenceTypeFinishedGood, employeeId, good); err != nil {
		return nil, err
	}
	return &good, nil
}

// IssueFinishedGood sells a stocked finished good to a client: it writes the
// sale and moves the good to issued, stamping the time and recipient.
func IssueFinishedGood(ctx context.Context, db *gorm.DB, input *NewFinishedGoodSale) (*FinishedGoodSale, error) {
	if input.Price.IsNegative() {
		return nil, utils.NewValidationError(utils.ErrCodeInvalidQuantity, "price cannot be negative")
	}

	var sale FinishedGoodSale
	err := db.WithContext(context.WithoutCancel(ctx)).Transaction(func(tx *gorm.DB) error {
		good, err := utils.FetchModelForUpdate[FinishedGood](tx, input.FinishedGoodId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return utils.NewStateError(utils.ErrCodeFinishedGoodNotFound,
					fmt.Sprintf("finished good %d not found", input.FinishedGoodId))
			}
			return err
		}
		if good.Status == FinishedGoodStatusIssued {
			return utils.NewStateError(utils.ErrCodeFinishedGoodAlreadyIssued, "this finished good has already been issued")
		}

		client, err := utils.FetchModel[Client](tx, input.ClientId)
		if err != nil {
			return err
		}

		sale = FinishedGoodSale{
			FinishedGoodId: good.ID,
			ClientId:       client.ID,
			OrderId:        input.OrderId,
			Price:          input.Price.Round(2),
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":    FinishedGoodStatusIssued,
			"issued_at": now,
			"recipient": strings.TrimSpace(client.Name),
		}
		if input.OrderId != nil {
			updates["order_id"] = *input.OrderId
		}
		if err := tx.Model(&FinishedGood{}).Where("id = ?", good.ID).Updates(updates).Error; err != nil {
			return err
		}
		return RecordProductionEvent(tx, EventFinishedGoodIssued, good.ID, ReferenceTypeFinishedGoodSale, 0, sale)
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// (may return ErrorRecordNotFound)
func GetFinishedGood(ctx context.Context, db *gorm.DB, id int) (*FinishedGood, error) {
	return utils.FetchModel[FinishedGood](db.WithContext(ctx), id)
}
