package models

import (
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/utils"
)

type Identifier interface {
	GetId() int
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(int) Data
}

func (w Workshop) GetId() int {
	return w.ID
}

func (w Workshop) GetDefault(id int) Data {
	return Workshop{
		ID:        id,
		Role:      WorkshopRoleNone,
		IsActive:  utils.NewFalse(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (e Employee) GetId() int {
	return e.ID
}

func (e Employee) GetDefault(id int) Data {
	return Employee{
		ID:          id,
		Name:        "System",
		Role:        EmployeeRoleWorker,
		PaymentType: PaymentTypeFixed,
		IsActive:    utils.NewFalse(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}
