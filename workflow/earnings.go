package workflow

import (
	"fmt"

	"bitbucket.org/mmdatafocus/factory_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CalculateEarnings returns the piece-rate pay for produced output.
// Salaried employees earn 0 and no lookup happens. Otherwise the rate is the
// price of the workshop's active service with the lowest id (0 when none).
// Rounding is decimal.Round(2): half away from zero.
func CalculateEarnings(tx *gorm.DB, workshopId int, produced decimal.Decimal, paymentType models.PaymentType) (decimal.Decimal, error) {
	if !paymentType.IsPieceRate() {
		return decimal.Zero, nil
	}
	rate, err := models.GetActiveServiceRate(tx, workshopId)
	if err != nil {
		return decimal.Zero, err
	}
	return produced.Mul(rate).Round(2), nil
}

// CreditEarnings adds positive earnings to the employee's balance and ledger.
// Zero or negative amounts leave the balance untouched.
func CreditEarnings(tx *gorm.DB, employeeId int, earnings decimal.Decimal, refType models.ReferenceType, refId int) error {
	if !earnings.IsPositive() {
		return nil
	}
	entry, err := models.AdjustEmployeeBalance(tx, employeeId, earnings, models.BalanceEntryTypeEarnings, refType, refId,
		fmt.Sprintf("piece-rate earnings for %s %d", refType, refId))
	if err != nil {
		return err
	}
	return models.RecordProductionEvent(tx, models.EventEarningsCredited, refId, refType, employeeId, entry)
}
