package models

import (
	"log"

	"bitbucket.org/mmdatafocus/factory_backend/config"
	"gorm.io/gorm"
)

func allModels() []interface{} {
	return []interface{}{
		&Client{},
		&Defect{},
		&Employee{}, &EmployeeBalanceEntry{}, &EmployeeMaterialBalance{},
		&FinishedGood{}, &FinishedGoodSale{},
		&History{},
		&MaterialIncoming{},
		&NeutralBatch{},
		&Order{}, &OrderItem{},
		&Product{}, &ProductionEventRecord{},
		&RawMaterial{},
		&Service{},
		&Workshop{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(allModels()...)
}

func MigrateTable() {
	if err := AutoMigrate(config.GetDB()); err != nil {
		log.Fatal(err)
	}
}
