package utils

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/* DB fetching */

// fetch model by primary key
// (returns ErrorRecordNotFound when missing, other errors unchanged)
func FetchModel[T any](db *gorm.DB, id int, associations ...string) (*T, error) {
	dbCtx := db
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// fetch model by primary key holding a row lock until tx ends
func FetchModelForUpdate[T any](tx *gorm.DB, id int) (*T, error) {
	return FetchModel[T](tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}
