package workflow

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// ConversionOutcome is the result of a committed stage-one report.
type ConversionOutcome struct {
	HasBalance       bool
	ProducedQuantity decimal.Decimal
	TotalMaterial    decimal.Decimal
	ScrapQuantity    decimal.Decimal
	Efficiency       decimal.Decimal
	Earnings         decimal.Decimal
	NeutralBatchId   int
	DefectId         *int
}

// SubmitConversionReport turns the employee's whole material balance into a
// neutral batch of producedQuantity (clamped to the balance) plus scrap.
//
// Quantity and workshop role are checked before any lock. Balance rows are
// locked, summed and zeroed, then the batch, the scrap defect and the
// piece-rate earnings are written, all in one transaction.
func (w *ProductionWorkflow) SubmitConversionReport(ctx context.Context, employeeId int, producedQuantity interface{}) (*ConversionOutcome, error) {
	ctx, span := w.tracer.Start(ctx, "SubmitConversionReport")
	defer span.End()
	span.SetAttributes(attribute.Int("employee.id", employeeId))

	produced, err := utils.ParsePositiveQuantity(producedQuantity)
	if err != nil {
		return nil, w.finish(span, "SubmitConversionReport", nil, err)
	}

	employee, workshop, err := w.workshopFor(ctx, employeeId, models.WorkshopRoleConversion,
		utils.ErrCodeNotConversionWorkshop, "this report is only available to conversion workshop employees")
	if err != nil {
		return nil, w.finish(span, "SubmitConversionReport", employeeId, err)
	}

	release := obtainAdvisoryLock(ctx, w.Locker, w.Logger, employeeLockKey(employee.ID))
	defer release()

	outcome := ConversionOutcome{HasBalance: true}
	err = w.transaction(ctx, func(tx *gorm.DB) error {
		balances, err := models.LockEmployeeBalances(tx, employee.ID)
		if err != nil {
			return err
		}
		total := models.SumBalances(balances)
		if !total.IsPositive() {
			return utils.NewStateError(utils.ErrCodeNoMaterialBalance,
				"no material in your balance, collect material from the warehouse first")
		}

		if produced.GreaterThan(total) {
			produced = total
		}
		scrap := total.Sub(produced)

		if err := models.ZeroBalances(tx, employee.ID, balances); err != nil {
			return err
		}

		batch, err := models.CreateNeutralBatch(tx, workshop.ID, employee.ID, produced)
		if err != nil {
			return err
		}

		if scrap.IsPositive() {
			defect, err := models.CreateDefect(tx, &models.NewDefect{
				EmployeeId:      &employee.ID,
				Quantity:        scrap,
				EmployeeComment: fmt.Sprintf("extrusion scrap: %s of %s", scrap.String(), total.String()),
			})
			if err != nil {
				return err
			}
			outcome.DefectId = &defect.ID
		}

		earnings, err := CalculateEarnings(tx, workshop.ID, produced, employee.PaymentType)
		if err != nil {
			return err
		}
		if err := CreditEarnings(tx, employee.ID, earnings, models.ReferenceTypeNeutralBatch, batch.ID); err != nil {
			return err
		}

		outcome.ProducedQuantity = produced
		outcome.TotalMaterial = total
		outcome.ScrapQuantity = scrap
		outcome.Efficiency = utils.Percent(produced, total)
		outcome.Earnings = earnings
		outcome.NeutralBatchId = batch.ID
		return nil
	})
	if appErr := w.finish(span, "SubmitConversionReport", employeeId, err); appErr != nil {
		return nil, appErr
	}

	span.SetAttributes(attribute.Int("neutral_batch.id", outcome.NeutralBatchId))
	w.Logger.WithFields(logrus.Fields{
		"field":            "SubmitConversionReport",
		"employee_id":      employee.ID,
		"workshop_id":      workshop.ID,
		"neutral_batch_id": outcome.NeutralBatchId,
		"produced":         outcome.ProducedQuantity.String(),
		"scrap":            outcome.ScrapQuantity.String(),
		"earnings":         outcome.Earnings.String(),
	}).Info("conversion report committed")
	return &outcome, nil
}
