package models

import (
	"encoding/json"
	"errors"
	"strings"
)

type WorkshopRole string

const (
	WorkshopRoleNone       WorkshopRole = ""
	WorkshopRoleConversion WorkshopRole = "conversion"
	WorkshopRoleFinishing  WorkshopRole = "finishing"
)

func (r WorkshopRole) IsValid() bool {
	switch r {
	case WorkshopRoleNone, WorkshopRoleConversion, WorkshopRoleFinishing:
		return true
	}
	return false
}

func (r *WorkshopRole) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("workshop role must be string")
	}
	role := WorkshopRole(strings.ToLower(strings.TrimSpace(str)))
	if !role.IsValid() {
		return errors.New("invalid workshop role")
	}
	*r = role
	return nil
}

// fixed: salaried, variable: piece-rate
type PaymentType string

const (
	PaymentTypeFixed    PaymentType = "fixed"
	PaymentTypeVariable PaymentType = "variable"
)

func (p PaymentType) IsPieceRate() bool {
	return p == PaymentTypeVariable
}

type EmployeeRole string

const (
	EmployeeRoleAdmin      EmployeeRole = "admin"
	EmployeeRoleAccountant EmployeeRole = "accountant"
	EmployeeRoleWorker     EmployeeRole = "worker"
)

// CanManagePenalties reports whether the role may assign defect penalties.
func (r EmployeeRole) CanManagePenalties() bool {
	return r == EmployeeRoleAdmin || r == EmployeeRoleAccountant
}

type FinishedGoodStatus string

const (
	FinishedGoodStatusStock  FinishedGoodStatus = "stock"
	FinishedGoodStatusIssued FinishedGoodStatus = "issued"
)

type FinishingMode string

const (
	FinishingModeOrder FinishingMode = "order"
	FinishingModeStock FinishingMode = "stock"
)

// ParseFinishingMode is case-insensitive; empty input means order mode.
func ParseFinishingMode(raw string) (FinishingMode, bool) {
	switch FinishingMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FinishingModeOrder:
		return FinishingModeOrder, true
	case FinishingModeStock:
		return FinishingModeStock, true
	}
	return "", false
}

type BalanceEntryType string

const (
	BalanceEntryTypeEarnings BalanceEntryType = "earnings"
	BalanceEntryTypePenalty  BalanceEntryType = "penalty"
)

type ReferenceType string

const (
	ReferenceTypeNeutralBatch     ReferenceType = "neutral_batch"
	ReferenceTypeFinishedGood     ReferenceType = "finished_good"
	ReferenceTypeDefect           ReferenceType = "defect"
	ReferenceTypeMaterialBalance  ReferenceType = "material_balance"
	ReferenceTypeMaterialIncoming ReferenceType = "material_incoming"
	ReferenceTypeRawMaterial      ReferenceType = "raw_material"
	ReferenceTypeOrderItem        ReferenceType = "order_item"
	ReferenceTypeFinishedGoodSale ReferenceType = "finished_good_sale"
)
