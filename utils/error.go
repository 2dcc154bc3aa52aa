package utils

import (
	"errors"
	"fmt"
	"strings"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

var ErrorRecordNotFound = errors.New("record not found")

type ErrorKind string

const (
	// rejected before any lock is taken
	ErrorKindValidation   ErrorKind = "validation"
	ErrorKindPrecondition ErrorKind = "precondition"
	// detected under lock; the transaction is rolled back
	ErrorKindState ErrorKind = "state"
	// lock timeout, deadlock, storage failure
	ErrorKindSystem ErrorKind = "system"
)

type ErrorCode string

const (
	ErrCodeInvalidQuantity           ErrorCode = "InvalidQuantity"
	ErrCodeInvalidRequest            ErrorCode = "InvalidRequest"
	ErrCodeInvalidMode               ErrorCode = "InvalidMode"
	ErrCodeMissingBatchID            ErrorCode = "MissingBatchID"
	ErrCodeMissingOrderItemID        ErrorCode = "MissingOrderItemID"
	ErrCodeMissingProductID          ErrorCode = "MissingProductID"
	ErrCodeMissingMaterialID         ErrorCode = "MissingMaterialID"
	ErrCodeNotConversionWorkshop     ErrorCode = "NotConversionWorkshop"
	ErrCodeNotFinishingWorkshop      ErrorCode = "NotFinishingWorkshop"
	ErrCodeEmployeeNotFound          ErrorCode = "EmployeeNotFound"
	ErrCodeNoMaterialBalance         ErrorCode = "NoMaterialBalance"
	ErrCodeInsufficientMaterial      ErrorCode = "InsufficientMaterial"
	ErrCodeMaterialNotFound          ErrorCode = "MaterialNotFound"
	ErrCodeBatchNotFound             ErrorCode = "BatchNotFound"
	ErrCodeBatchExhausted            ErrorCode = "BatchExhausted"
	ErrCodeOrderItemNotFound         ErrorCode = "OrderItemNotFound"
	ErrCodeProductNotFound           ErrorCode = "ProductNotFound"
	ErrCodeDefectNotFound            ErrorCode = "DefectNotFound"
	ErrCodeFinishedGoodNotFound      ErrorCode = "FinishedGoodNotFound"
	ErrCodeFinishedGoodAlreadyIssued ErrorCode = "FinishedGoodAlreadyIssued"
	ErrCodeForbidden                 ErrorCode = "Forbidden"
	ErrCodeTransientFailure          ErrorCode = "TransientFailure"
	ErrCodeInternal                  ErrorCode = "Internal"
)

// AppError is the caller-facing error of a production operation.
type AppError struct {
	Code    ErrorCode
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func NewValidationError(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Kind: ErrorKindValidation, Message: message}
}

func NewPreconditionError(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Kind: ErrorKindPrecondition, Message: message}
}

func NewStateError(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Kind: ErrorKindState, Message: message}
}

// AsAppError returns err as *AppError, classifying anything else as a system error.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if IsTransientDBError(err) {
		return &AppError{
			Code:    ErrCodeTransientFailure,
			Kind:    ErrorKindSystem,
			Message: "the record is busy, please resubmit",
			Err:     err,
		}
	}
	return &AppError{
		Code:    ErrCodeInternal,
		Kind:    ErrorKindSystem,
		Message: "internal error",
		Err:     err,
	}
}

// IsErrorCode reports whether err carries the given domain code.
func IsErrorCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsTransientDBError reports lock wait timeouts, deadlocks and busy databases.
func IsTransientDBError(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		// 1205: lock wait timeout, 1213: deadlock
		return mysqlErr.Number == 1205 || mysqlErr.Number == 1213
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}
