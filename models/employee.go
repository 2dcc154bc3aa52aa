package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Employee struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Username    string          `gorm:"size:100;uniqueIndex" json:"username"`
	Role        EmployeeRole    `gorm:"size:20;not null;default:'worker'" json:"role"`
	PaymentType PaymentType     `gorm:"size:20;not null;default:'fixed'" json:"payment_type"`
	WorkshopId  *int            `gorm:"index" json:"workshop_id"`
	Balance     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEmployee struct {
	Name        string       `json:"name" binding:"required"`
	Username    string       `json:"username" binding:"required"`
	Role        EmployeeRole `json:"role"`
	PaymentType PaymentType  `json:"payment_type"`
	WorkshopId  *int         `json:"workshop_id"`
}

// EmployeeBalanceEntry is the append-only ledger behind Employee.Balance.
type EmployeeBalanceEntry struct {
	ID            int              `gorm:"primary_key" json:"id"`
	EmployeeId    int              `gorm:"index;not null" json:"employee_id"`
	EntryType     BalanceEntryType `gorm:"size:20;not null" json:"entry_type"`
	Amount        decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"amount"`
	ReferenceType ReferenceType    `gorm:"size:40" json:"reference_type"`
	ReferenceId   int              `gorm:"index" json:"reference_id"`
	Description   string           `gorm:"type:text" json:"description"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func CreateEmployee(ctx context.Context, db *gorm.DB, input *NewEmployee) (*Employee, error) {
	role := input.Role
	if role == "" {
		role = EmployeeRoleWorker
	}
	paymentType := input.PaymentType
	if paymentType == "" {
		paymentType = PaymentTypeFixed
	}
	employee := Employee{
		Name:        input.Name,
		Username:    input.Username,
		Role:        role,
		PaymentType: paymentType,
		WorkshopId:  input.WorkshopId,
		Balance:     decimal.Zero,
		IsActive:    utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// GetEmployee is never cached; the monetary balance changes with every report.
// (may return ErrorRecordNotFound)
func GetEmployee(ctx context.Context, db *gorm.DB, id int) (*Employee, error) {
	return utils.FetchModel[Employee](db.WithContext(ctx), id)
}

func GetEmployeesByIds(ctx context.Context, db *gorm.DB, ids []int) ([]*Employee, error) {
	var results []*Employee
	if len(ids) == 0 {
		return results, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	return results, err
}

// AdjustEmployeeBalance adds amount (negative to deduct) to the employee's
// balance with a single UPDATE and appends a ledger entry, inside tx.
func AdjustEmployeeBalance(tx *gorm.DB, employeeId int, amount decimal.Decimal, entryType BalanceEntryType, refType ReferenceType, refId int, description string) (*EmployeeBalanceEntry, error) {
	if amount.IsZero() {
		return nil, errors.New("balance adjustment amount is zero")
	}
	result := tx.Model(&Employee{}).Where("id = ?", employeeId).
		Update("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, utils.NewStateError(utils.ErrCodeEmployeeNotFound, "employee not found")
	}
	entry := EmployeeBalanceEntry{
		EmployeeId:    employeeId,
		EntryType:     entryType,
		Amount:        amount,
		ReferenceType: refType,
		ReferenceId:   refId,
		Description:   description,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func ListEmployeeBalanceEntries(ctx context.Context, db *gorm.DB, employeeId int) ([]*EmployeeBalanceEntry, error) {
	var results []*EmployeeBalanceEntry
	err := db.WithContext(ctx).Where("employee_id = ?", employeeId).Order("id").Find(&results).Error
	return results, err
}
