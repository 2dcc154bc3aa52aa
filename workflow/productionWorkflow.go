package workflow

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/factory_backend/config"
	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// ProductionWorkflow runs operator reports for both production stages.
// Each submission is one transaction on DB; Locker is optional.
type ProductionWorkflow struct {
	DB     *gorm.DB
	Logger *logrus.Logger
	Locker *redislock.Client
	tracer trace.Tracer
}

func NewProductionWorkflow(db *gorm.DB, logger *logrus.Logger, locker *redislock.Client) *ProductionWorkflow {
	if logger == nil {
		logger = config.GetLogger()
	}
	if config.RedisAdvisoryLocksDisabled() {
		locker = nil
	}
	return &ProductionWorkflow{
		DB:     db,
		Logger: logger,
		Locker: locker,
		tracer: otel.Tracer("factory_backend/workflow"),
	}
}

// workshopFor resolves the acting employee and checks its workshop role.
func (w *ProductionWorkflow) workshopFor(ctx context.Context, employeeId int, role models.WorkshopRole, code utils.ErrorCode, message string) (*models.Employee, *models.Workshop, error) {
	employee, err := models.GetEmployee(ctx, w.DB, employeeId)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, nil, utils.NewPreconditionError(utils.ErrCodeEmployeeNotFound, "employee not found")
		}
		return nil, nil, err
	}
	if employee.WorkshopId == nil {
		return nil, nil, utils.NewPreconditionError(code, message)
	}
	workshop, err := models.GetWorkshop(ctx, w.DB, *employee.WorkshopId)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, nil, utils.NewPreconditionError(code, message)
		}
		return nil, nil, err
	}
	if workshop.Role != role {
		return nil, nil, utils.NewPreconditionError(code, message)
	}
	return employee, workshop, nil
}

// transaction runs fn in one transaction that outlives ctx cancellation.
func (w *ProductionWorkflow) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return w.DB.WithContext(context.WithoutCancel(ctx)).Transaction(fn)
}

// finish maps err to an AppError, logging system failures.
func (w *ProductionWorkflow) finish(span trace.Span, funcName string, data any, err error) *utils.AppError {
	appErr := utils.AsAppError(err)
	if appErr == nil {
		span.SetStatus(codes.Ok, "")
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(appErr.Code))
	if appErr.Kind == utils.ErrorKindSystem {
		config.LogError(w.Logger, "productionWorkflow.go", funcName, string(appErr.Code), data, err)
	}
	return appErr
}
