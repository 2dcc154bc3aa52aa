package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is a priced operation of a workshop; the active one with the
// lowest id sets the piece rate.
type Service struct {
	ID         int             `gorm:"primary_key" json:"id"`
	WorkshopId int             `gorm:"index;not null" json:"workshop_id"`
	Name       string          `gorm:"size:100;not null" json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"price"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewService struct {
	WorkshopId int             `json:"workshop_id" binding:"required"`
	Name       string          `json:"name" binding:"required"`
	Price      decimal.Decimal `json:"price"`
	IsActive   *bool           `json:"is_active"`
}

func CreateService(ctx context.Context, db *gorm.DB, input *NewService) (*Service, error) {
	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewTrue()
	}
	service := Service{
		WorkshopId: input.WorkshopId,
		Name:       input.Name,
		Price:      input.Price,
		IsActive:   isActive,
	}
	if err := db.WithContext(ctx).Create(&service).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

// GetActiveServiceRate returns the price of the workshop's active service
// with the lowest id, or zero when there is none. Non-locking read.
func GetActiveServiceRate(tx *gorm.DB, workshopId int) (decimal.Decimal, error) {
	var service Service
	err := tx.Where("workshop_id = ? AND is_active = ?", workshopId, true).
		Order("id ASC").
		First(&service).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return service.Price, nil
}
