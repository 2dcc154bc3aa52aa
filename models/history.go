package models

import (
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"gorm.io/gorm"
)

type History struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ActionType    string    `gorm:"size:10;not null" json:"action_type"`
	Before        string    `gorm:"type:text" json:"before"`
	After         string    `gorm:"type:text" json:"after"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   int       `gorm:"index" json:"reference_id"`
	ReferenceType string    `gorm:"size:255" json:"reference_type"`
	EmployeeId    int       `gorm:"index;not null" json:"employee_id"`
	EmployeeName  string    `gorm:"size:100" json:"employee_name"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	HistoryActionCreate = "CREATE"
	HistoryActionUpdate = "UPDATE"
	HistoryActionZero   = "ZERO"
	HistoryActionIssue  = "ISSUE"
)

// createHistory attributes the row to the acting employee in tx's context;
// tools running without one are recorded as "System".
func createHistory(tx *gorm.DB,
	actionType string,
	referenceId int,
	referenceType ReferenceType,
	before interface{},
	after interface{},
	description string) (err error) {

	var history History

	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)

	ctx := tx.Statement.Context
	employeeId, ok := utils.GetEmployeeIdFromContext(ctx)
	if !ok {
		employeeId = 0
	}
	employeeName, ok := utils.GetEmployeeNameFromContext(ctx)
	if !ok || employeeName == "" {
		employeeName = "System"
	}

	history.ActionType = actionType
	history.Before = string(b)
	history.After = string(a)
	history.Description = description
	history.ReferenceID = referenceId
	history.ReferenceType = string(referenceType)
	history.EmployeeId = employeeId
	history.EmployeeName = employeeName

	return tx.Create(&history).Error
}

func ListHistory(db *gorm.DB, referenceType ReferenceType, referenceId int) ([]*History, error) {
	var results []*History
	err := db.Where("reference_type = ? AND reference_id = ?", referenceType, referenceId).
		Order("id").Find(&results).Error
	return results, err
}
