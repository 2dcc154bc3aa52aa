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

type FinishingReportInput struct {
	EmployeeId       int
	NeutralBatchId   int
	ProducedQuantity interface{}
	// "order" (default) or "stock"
	Mode        string
	OrderItemId int
	ProductId   int
}

// FinishingOutcome is the result of a committed stage-two report.
type FinishingOutcome struct {
	Mode             models.FinishingMode
	ProducedQuantity decimal.Decimal
	InputQuantity    decimal.Decimal
	ScrapQuantity    decimal.Decimal
	Efficiency       decimal.Decimal
	Earnings         decimal.Decimal
	FinishedGoodId   int
	DefectId         *int
	OrderId          *int
	OrderItemId      *int
}

type finishingRequest struct {
	produced decimal.Decimal
	mode     models.FinishingMode
}

func validateFinishingReport(input *FinishingReportInput) (*finishingRequest, error) {
	if input.NeutralBatchId <= 0 {
		return nil, utils.NewValidationError(utils.ErrCodeMissingBatchID, "neutral_batch_id is required")
	}
	produced, err := utils.ParsePositiveQuantity(input.ProducedQuantity)
	if err != nil {
		return nil, err
	}
	mode, ok := models.ParseFinishingMode(input.Mode)
	if !ok {
		return nil, utils.NewValidationError(utils.ErrCodeInvalidMode, fmt.Sprintf("unknown mode %q, expected order or stock", input.Mode))
	}
	switch mode {
	case models.FinishingModeOrder:
		if input.OrderItemId <= 0 {
			return nil, utils.NewValidationError(utils.ErrCodeMissingOrderItemID, "order_item_id is required in order mode")
		}
	case models.FinishingModeStock:
		if input.ProductId <= 0 {
			return nil, utils.NewValidationError(utils.ErrCodeMissingProductID, "product_id is required in stock mode")
		}
	}
	return &finishingRequest{produced: produced, mode: mode}, nil
}

// SubmitFinishingReport claims everything still available in a neutral batch
// and books producedQuantity of it (clamped) as finished goods, the rest as
// scrap. In order mode the order item's packaging progress grows by the whole
// units produced; in stock mode the finished good is linked to the product.
//
// Locks: the batch row, then in order mode the order item row. The item's
// order and product are plain reads.
func (w *ProductionWorkflow) SubmitFinishingReport(ctx context.Context, input *FinishingReportInput) (*FinishingOutcome, error) {
	ctx, span := w.tracer.Start(ctx, "SubmitFinishingReport")
	defer span.End()
	span.SetAttributes(
		attribute.Int("employee.id", input.EmployeeId),
		attribute.Int("neutral_batch.id", input.NeutralBatchId),
		attribute.String("mode", input.Mode),
	)

	req, err := validateFinishingReport(input)
	if err != nil {
		return nil, w.finish(span, "SubmitFinishingReport", nil, err)
	}

	employee, workshop, err := w.workshopFor(ctx, input.EmployeeId, models.WorkshopRoleFinishing,
		utils.ErrCodeNotFinishingWorkshop, "this report is only available to finishing workshop employees")
	if err != nil {
		return nil, w.finish(span, "SubmitFinishingReport", input.EmployeeId, err)
	}

	release := obtainAdvisoryLock(ctx, w.Locker, w.Logger, batchLockKey(input.NeutralBatchId))
	defer release()

	outcome := FinishingOutcome{Mode: req.mode}
	err = w.transaction(ctx, func(tx *gorm.DB) error {
		batch, err := models.LockNeutralBatch(tx, input.NeutralBatchId)
		if err != nil {
			return err
		}
		totalInput := batch.AvailableQuantity()
		if !totalInput.IsPositive() {
			return utils.NewStateError(utils.ErrCodeBatchExhausted, "the selected batch has no available quantity")
		}

		produced := req.produced
		if produced.GreaterThan(totalInput) {
			produced = totalInput
		}
		scrap := totalInput.Sub(produced)
		units := produced.IntPart()

		if err := batch.Consume(tx, totalInput); err != nil {
			return err
		}
		if err := models.RecordProductionEvent(tx, models.EventNeutralBatchConsumed, batch.ID, models.ReferenceTypeNeutralBatch, employee.ID, map[string]interface{}{
			"neutral_batch_id": batch.ID,
			"consumed":         totalInput,
			"used_quantity":    batch.UsedQuantity,
		}); err != nil {
			return err
		}

		var productId int
		switch req.mode {
		case models.FinishingModeOrder:
			item, err := models.LockOrderItem(tx, input.OrderItemId)
			if err != nil {
				return err
			}
			order, err := item.ResolveOrder(tx)
			if err != nil {
				return err
			}
			product, err := models.GetProduct(tx, item.ProductId)
			if err != nil {
				return err
			}
			if err := item.AddPackagingProgress(tx, units); err != nil {
				return err
			}
			productId = product.ID
			outcome.OrderId = &order.ID
			outcome.OrderItemId = &item.ID
		case models.FinishingModeStock:
			product, err := models.GetProduct(tx, input.ProductId)
			if err != nil {
				return err
			}
			productId = product.ID
		}

		good, err := models.CreateFinishedGood(tx, &models.NewFinishedGood{
			ProductId:   &productId,
			WorkshopId:  workshop.ID,
			OrderId:     outcome.OrderId,
			OrderItemId: outcome.OrderItemId,
			Quantity:    units,
		}, employee.ID)
		if err != nil {
			return err
		}

		if scrap.IsPositive() {
			defect, err := models.CreateDefect(tx, &models.NewDefect{
				ProductId:       &productId,
				EmployeeId:      &employee.ID,
				Quantity:        scrap,
				EmployeeComment: fmt.Sprintf("packaging scrap: %s of %s", scrap.String(), totalInput.String()),
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
		if err := CreditEarnings(tx, employee.ID, earnings, models.ReferenceTypeFinishedGood, good.ID); err != nil {
			return err
		}

		outcome.ProducedQuantity = produced
		outcome.InputQuantity = totalInput
		outcome.ScrapQuantity = scrap
		outcome.Efficiency = utils.Percent(produced, totalInput)
		outcome.Earnings = earnings
		outcome.FinishedGoodId = good.ID
		return nil
	})
	if appErr := w.finish(span, "SubmitFinishingReport", input, err); appErr != nil {
		return nil, appErr
	}

	w.Logger.WithFields(logrus.Fields{
		"field":            "SubmitFinishingReport",
		"employee_id":      employee.ID,
		"workshop_id":      workshop.ID,
		"neutral_batch_id": input.NeutralBatchId,
		"mode":             outcome.Mode,
		"finished_good_id": outcome.FinishedGoodId,
		"produced":         outcome.ProducedQuantity.String(),
		"scrap":            outcome.ScrapQuantity.String(),
		"earnings":         outcome.Earnings.String(),
	}).Info("finishing report committed")
	return &outcome, nil
}
