package config

import (
	"errors"

	"gorm.io/gorm"
)

var ErrAppendOnlyTable = errors.New("rows of this table are never deleted")

// appendOnlyTables hold production history: batches, scrap records, balance ledger,
// stock movements and sales. Corrections are new rows, never deletes.
var appendOnlyTables = map[string]bool{
	"neutral_batches":          true,
	"defects":                  true,
	"employee_balance_entries": true,
	"material_incomings":       true,
	"finished_good_sales":      true,
	"histories":                true,
}

// AppendOnlyGuardPlugin aborts any gorm Delete on an append-only table.
//
// NOTE: Raw/Exec statements are not inspected.
type AppendOnlyGuardPlugin struct{}

func NewAppendOnlyGuardPlugin() *AppendOnlyGuardPlugin { return &AppendOnlyGuardPlugin{} }

func (p *AppendOnlyGuardPlugin) Name() string { return "append_only_guard" }

func (p *AppendOnlyGuardPlugin) Initialize(db *gorm.DB) error {
	return db.Callback().Delete().Before("gorm:delete").Register("append_only_guard:delete", appendOnlyGuardCallback)
}

func appendOnlyGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil {
		return
	}
	table := db.Statement.Table
	if table == "" && db.Statement.Schema != nil {
		table = db.Statement.Schema.Table
	}
	if IsAppendOnlyTable(table) {
		_ = db.AddError(ErrAppendOnlyTable)
	}
}

func IsAppendOnlyTable(table string) bool {
	return appendOnlyTables[table]
}
