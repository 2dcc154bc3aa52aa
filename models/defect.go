package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Defect is an append-only scrap record. Only the penalty fields and the
// admin comment change after creation.
type Defect struct {
	ID                int              `gorm:"primary_key" json:"id"`
	ProductId         *int             `gorm:"index" json:"product_id"`
	EmployeeId        *int             `gorm:"index" json:"employee_id"`
	EmployeeTaskId    *int             `gorm:"index" json:"employee_task_id"`
	Quantity          decimal.Decimal  `gorm:"type:decimal(12,3);not null;default:0" json:"quantity"`
	EmployeeComment   string           `gorm:"type:text" json:"employee_comment"`
	AdminComment      string           `gorm:"type:text" json:"admin_comment"`
	PenaltyAmount     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"penalty_amount"`
	PenaltyAssignedBy *int             `json:"penalty_assigned_by"`
	PenaltyAssignedAt *time.Time       `json:"penalty_assigned_at"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

type NewDefect struct {
	ProductId       *int
	EmployeeId      *int
	EmployeeTaskId  *int
	Quantity        decimal.Decimal
	EmployeeComment string
}

type NewDefectPenalty struct {
	Amount       *decimal.Decimal `json:"amount"`
	AdminComment *string          `json:"admin_comment"`
}

func CreateDefect(tx *gorm.DB, input *NewDefect) (*Defect, error) {
	defect := Defect{
		ProductId:       input.ProductId,
		EmployeeId:      input.EmployeeId,
		EmployeeTaskId:  input.EmployeeTaskId,
		Quantity:        input.Quantity,
		EmployeeComment: input.EmployeeComment,
	}
	if err := tx.Create(&defect).Error; err != nil {
		return nil, err
	}
	employeeId := 0
	if input.EmployeeId != nil {
		employeeId = *input.EmployeeId
	}
	if err := RecordProductionEvent(tx, EventDefectRecorded, defect.ID, ReferenceTypeDefect, employeeId, defect); err != nil {
		return nil, err
	}
	return &defect, nil
}

// AssignDefectPenalty replaces the penalty of a defect and charges the
// difference to the owning employee's balance (balance - (new - old)).
// A nil amount clears the penalty and refunds the previous one.
// Nothing changes when both amount and comment are nil.
func AssignDefectPenalty(ctx context.Context, db *gorm.DB, defectId int, input *NewDefectPenalty, assignedBy int) (*Defect, error) {
	if input.Amount == nil && input.AdminComment == nil {
		return GetDefect(ctx, db, defectId)
	}
	if input.Amount != nil && input.Amount.IsNegative() {
		return nil, utils.NewValidationError(utils.ErrCodeInvalidQuantity, "penalty amount cannot be negative")
	}

	var defect *Defect
	err := db.WithContext(context.WithoutCancel(ctx)).Transaction(func(tx *gorm.DB) error {
		var err error
		defect, err = utils.FetchModelForUpdate[Defect](tx, defectId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return utils.NewStateError(utils.ErrCodeDefectNotFound, fmt.Sprintf("defect %d not found", defectId))
			}
			return err
		}

		previous := decimal.Zero
		if defect.PenaltyAmount != nil {
			previous = *defect.PenaltyAmount
		}
		next := decimal.Zero
		if input.Amount != nil {
			next = input.Amount.Round(2)
			defect.PenaltyAmount = &next
		} else {
			defect.PenaltyAmount = nil
		}
		delta := next.Sub(previous)

		if input.AdminComment != nil {
			defect.AdminComment = *input.AdminComment
		}
		if assignedBy > 0 {
			defect.PenaltyAssignedBy = &assignedBy
		}
		now := time.Now().UTC()
		defect.PenaltyAssignedAt = &now

		if err := tx.Model(&Defect{}).Where("id = ?", defect.ID).Updates(map[string]interface{}{
			"penalty_amount":      defect.PenaltyAmount,
			"admin_comment":       defect.AdminComment,
			"penalty_assigned_by": defect.PenaltyAssignedBy,
			"penalty_assigned_at": defect.PenaltyAssignedAt,
		}).Error; err != nil {
			return err
		}

		if defect.EmployeeId != nil && !delta.IsZero() {
			if _, err := AdjustEmployeeBalance(tx, *defect.EmployeeId, delta.Neg(), BalanceEntryTypePenalty,
				ReferenceTypeDefect, defect.ID, fmt.Sprintf("penalty for defect %d", defect.ID)); err != nil {
				return err
			}
		}

		employeeId := 0
		if defect.EmployeeId != nil {
			employeeId = *defect.EmployeeId
		}
		return RecordProductionEvent(tx, EventDefectPenalized, defect.ID, ReferenceTypeDefect, employeeId, map[string]interface{}{
			"defect_id": defect.ID,
			"previous":  previous,
			"penalty":   next,
			"delta":     delta,
		})
	})
	if err != nil {
		return nil, err
	}
	return defect, nil
}

// (may return ErrorRecordNotFound)
func GetDefect(ctx context.Context, db *gorm.DB, id int) (*Defect, error) {
	return utils.FetchModel[Defect](db.WithContext(ctx), id)
}
