package models

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmployeeMaterialBalance is raw material held by an employee, created lazily
// on first issue. Quantity never goes below zero.
type EmployeeMaterialBalance struct {
	ID         int             `gorm:"primary_key" json:"id"`
	EmployeeId int             `gorm:"not null;uniqueIndex:idx_employee_material,priority:1" json:"employee_id"`
	MaterialId int             `gorm:"not null;uniqueIndex:idx_employee_material,priority:2" json:"material_id"`
	Quantity   decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"quantity"`
	Material   *RawMaterial    `gorm:"foreignKey:MaterialId" json:"material,omitempty"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetEmployeeBalances is a plain read with the material preloaded.
func GetEmployeeBalances(ctx context.Context, db *gorm.DB, employeeId int) ([]*EmployeeMaterialBalance, error) {
	var results []*EmployeeMaterialBalance
	err := db.WithContext(ctx).Preload("Material").
		Where("employee_id = ?", employeeId).
		Order("material_id").
		Find(&results).Error
	return results, err
}

// LockEmployeeBalances takes row locks on every balance row of the employee,
// always in material_id order.
func LockEmployeeBalances(tx *gorm.DB, employeeId int) ([]*EmployeeMaterialBalance, error) {
	var results []*EmployeeMaterialBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ?", employeeId).
		Order("material_id").
		Find(&results).Error
	return results, err
}

func SumBalances(balances []*EmployeeMaterialBalance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Quantity)
	}
	return total
}

// ZeroBalances sets each locked row to zero. Running it again in the same
// transaction writes zero again and changes nothing.
func ZeroBalances(tx *gorm.DB, employeeId int, balances []*EmployeeMaterialBalance) error {
	for _, b := range balances {
		if b.EmployeeId != employeeId {
			return fmt.Errorf("balance %d does not belong to employee %d", b.ID, employeeId)
		}
		before := b.Quantity
		if err := tx.Model(&EmployeeMaterialBalance{}).Where("id = ?", b.ID).
			Update("quantity", decimal.Zero).Error; err != nil {
			return err
		}
		b.Quantity = decimal.Zero
		if before.IsZero() {
			continue
		}
		if err := createHistory(tx, HistoryActionZero, b.ID, ReferenceTypeMaterialBalance,
			map[string]string{"quantity": before.String()},
			map[string]string{"quantity": "0"},
			fmt.Sprintf("material %d balance used in conversion", b.MaterialId)); err != nil {
			return err
		}
	}
	return nil
}

func firstOrCreateEmployeeMaterialBalance(tx *gorm.DB, employeeId int, materialId int) (*EmployeeMaterialBalance, error) {
	balance := EmployeeMaterialBalance{
		EmployeeId: employeeId,
		MaterialId: materialId,
		Quantity:   decimal.Zero,
	}
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ? AND material_id = ?", employeeId, materialId).
		FirstOrCreate(&balance)
	if result.Error != nil {
		return nil, result.Error
	}
	return &balance, nil
}
