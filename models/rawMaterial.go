package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RawMaterial struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Unit        string          `gorm:"size:20;not null" json:"unit"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"quantity"`
	MinQuantity decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"min_quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Country     string          `gorm:"size:100" json:"country"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// MaterialIncoming records a stock receipt.
type MaterialIncoming struct {
	ID           int              `gorm:"primary_key" json:"id"`
	MaterialId   int              `gorm:"index;not null" json:"material_id"`
	Quantity     decimal.Decimal  `gorm:"type:decimal(12,3);not null" json:"quantity"`
	PricePerUnit *decimal.Decimal `gorm:"type:decimal(10,2)" json:"price_per_unit"`
	TotalValue   *decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_value"`
	Notes        string           `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

type NewRawMaterial struct {
	Name        string          `json:"name" binding:"required"`
	Unit        string          `json:"unit" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	Price       decimal.Decimal `json:"price"`
	Country     string          `json:"country"`
}

type NewMaterialIssue struct {
	EmployeeId int             `json:"employee_id"`
	MaterialId int             `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

type NewMaterialIncoming struct {
	MaterialId   int              `json:"material_id"`
	Quantity     decimal.Decimal  `json:"quantity"`
	PricePerUnit *decimal.Decimal `json:"price_per_unit"`
	Notes        string           `json:"notes"`
}

func CreateRawMaterial(ctx context.Context, db *gorm.DB, input *NewRawMaterial) (*RawMaterial, error) {
	material := RawMaterial{
		Name:        input.Name,
		Unit:        input.Unit,
		Quantity:    input.Quantity,
		MinQuantity: input.MinQuantity,
		Price:       input.Price,
		Country:     input.Country,
	}
	if err := db.WithContext(ctx).Create(&material).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func lockRawMaterial(tx *gorm.DB, id int) (*RawMaterial, error) {
	material, err := utils.FetchModelForUpdate[RawMaterial](tx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, utils.NewStateError(utils.ErrCodeMaterialNotFound, "material not found")
		}
		return nil, err
	}
	return material, nil
}

func validateMaterialIssue(input *NewMaterialIssue) error {
	if input.MaterialId <= 0 {
		return utils.NewValidationError(utils.ErrCodeMissingMaterialID, "material_id is required")
	}
	if input.EmployeeId <= 0 {
		return utils.NewValidationError(utils.ErrCodeEmployeeNotFound, "employee_id is required")
	}
	if !input.Quantity.IsPositive() {
		return utils.NewValidationError(utils.ErrCodeInvalidQuantity, "quantity must be greater than zero")
	}
	return nil
}

// IssueMaterial moves quantity from warehouse stock to the employee's balance
// in one transaction, holding locks on the material and balance rows.
func IssueMaterial(ctx context.Context, db *gorm.DB, input *NewMaterialIssue) (*EmployeeMaterialBalance, error) {
	if err := validateMaterialIssue(input); err != nil {
		return nil, err
	}

	var balance *EmployeeMaterialBalance
	err := db.WithContext(context.WithoutCancel(ctx)).Transaction(func(tx *gorm.DB) error {
		var employeeCount int64
		if err := tx.Model(&Employee{}).Where("id = ?", input.EmployeeId).Count(&employeeCount).Error; err != nil {
			return err
		}
		if employeeCount == 0 {
			return utils.NewStateError(utils.ErrCodeEmployeeNotFound, "employee not found")
		}

		material, err := lockRawMaterial(tx, input.MaterialId)
		if err != nil {
			return err
		}
		if material.Quantity.LessThan(input.Quantity) {
			return utils.NewStateError(utils.ErrCodeInsufficientMaterial,
				fmt.Sprintf("only %s %s of %s in stock", material.Quantity.String(), material.Unit, material.Name))
		}
		if err := tx.Model(&RawMaterial{}).Where("id = ?", material.ID).
			Update("quantity", gorm.Expr("quantity - ?", input.Quantity)).Error; err != nil {
			return err
		}

		balance, err = firstOrCreateEmployeeMaterialBalance(tx, input.EmployeeId, input.MaterialId)
		if err != nil {
			return err
		}
		before := balance.Quantity
		balance.Quantity = balance.Quantity.Add(input.Quantity)
		if err := tx.Model(&EmployeeMaterialBalance{}).Where("id = ?", balance.ID).
			Update("quantity", balance.Quantity).Error; err != nil {
			return err
		}

		if err := createHistory(tx, HistoryActionIssue, balance.ID, ReferenceTypeMaterialBalance,
			map[string]string{"quantity": before.String()},
			map[string]string{"quantity": balance.Quantity.String()},
			fmt.Sprintf("issued %s %s of %s", input.Quantity.String(), material.Unit, material.Name)); err != nil {
			return err
		}
		return RecordProductionEvent(tx, EventMaterialIssued, balance.ID, ReferenceTypeMaterialBalance, input.EmployeeId, input)
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// ReceiveMaterial increases warehouse stock and keeps an incoming record.
// TotalValue is quantity * price_per_unit when a price is given.
func ReceiveMaterial(ctx context.Context, db *gorm.DB, input *NewMaterialIncoming) (*MaterialIncoming, error) {
	if input.MaterialId <= 0 {
		return nil, utils.NewValidationError(utils.ErrCodeMissingMaterialID, "material_id is required")
	}
	if !input.Quantity.IsPositive() {
		return nil, utils.NewValidationError(utils.ErrCodeInvalidQuantity, "quantity must be greater than zero")
	}

	var incoming MaterialIncoming
	err := db.WithContext(context.WithoutCancel(ctx)).Transaction(func(tx *gorm.DB) error {
		if _, err := lockRawMaterial(tx, input.MaterialId); err != nil {
			return err
		}
		if err := tx.Model(&RawMaterial{}).Where("id = ?", input.MaterialId).
			Update("quantity", gorm.Expr("quantity + ?", input.Quantity)).Error; err != nil {
			return err
		}

		incoming = MaterialIncoming{
			MaterialId:   input.MaterialId,
			Quantity:     input.Quantity,
			PricePerUnit: input.PricePerUnit,
			Notes:        input.Notes,
		}
		if input.PricePerUnit != nil {
			total := input.Quantity.Mul(*input.PricePerUnit).Round(2)
			incoming.TotalValue = &total
		}
		if err := tx.Create(&incoming).Error; err != nil {
			return err
		}
		return RecordProductionEvent(tx, EventMaterialReceived, incoming.ID, ReferenceTypeMaterialIncoming, 0, incoming)
	})
	if err != nil {
		return nil, err
	}
	return &incoming, nil
}

// (may return ErrorRecordNotFound)
func GetRawMaterial(ctx context.Context, db *gorm.DB, id int) (*RawMaterial, error) {
	return utils.FetchModel[RawMaterial](db.WithContext(ctx), id)
}

func ListMaterialIncomings(ctx context.Context, db *gorm.DB, materialId int) ([]*MaterialIncoming, error) {
	var results []*MaterialIncoming
	err := db.WithContext(ctx).Where("material_id = ?", materialId).
		Order("created_at DESC").Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Find(&results).Error
	return results, err
}
