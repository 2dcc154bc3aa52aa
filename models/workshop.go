package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"gorm.io/gorm"
)

type Workshop struct {
	ID        int          `gorm:"primary_key" json:"id"`
	Name      string       `gorm:"size:100;not null" json:"name"`
	Role      WorkshopRole `gorm:"size:20;index;not null;default:''" json:"role"`
	IsActive  *bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWorkshop struct {
	Name string       `json:"name" binding:"required"`
	Role WorkshopRole `json:"role"`
}

var (
	conversionNameStems = []string{"экструз", "экстуз", "extru"}
	finishingNameStems  = []string{"пакет", "упаков", "packag"}
)

// ClassifyWorkshopName derives a role from a legacy display name by
// case-insensitive substring match. It is only used to seed and backfill the
// Role column; ok is false when the name matches neither role or both.
func ClassifyWorkshopName(name string) (role WorkshopRole, ok bool) {
	lower := strings.ToLower(name)
	conversion := containsAny(lower, conversionNameStems)
	finishing := containsAny(lower, finishingNameStems)
	switch {
	case conversion && !finishing:
		return WorkshopRoleConversion, true
	case finishing && !conversion:
		return WorkshopRoleFinishing, true
	}
	return WorkshopRoleNone, false
}

func containsAny(s string, stems []string) bool {
	for _, stem := range stems {
		if strings.Contains(s, stem) {
			return true
		}
	}
	return false
}

func CreateWorkshop(ctx context.Context, db *gorm.DB, input *NewWorkshop) (*Workshop, error) {
	if !input.Role.IsValid() {
		return nil, errors.New("invalid workshop role")
	}
	workshop := Workshop{
		Name:     input.Name,
		Role:     input.Role,
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&workshop).Error; err != nil {
		return nil, err
	}
	return &workshop, nil
}

// GetWorkshop reads through the redis cache.
// (may return ErrorRecordNotFound)
func GetWorkshop(ctx context.Context, db *gorm.DB, id int) (*Workshop, error) {
	result, err := utils.RetrieveRedis[Workshop](id)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}
	result, err = utils.FetchModel[Workshop](db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedis[Workshop](result, id); err != nil {
		return nil, err
	}
	return result, nil
}

// SetWorkshopRole stores an explicit role and drops the cached copy.
func SetWorkshopRole(ctx context.Context, db *gorm.DB, id int, role WorkshopRole) error {
	if !role.IsValid() {
		return errors.New("invalid workshop role")
	}
	tx := db.WithContext(ctx).Model(&Workshop{}).Where("id = ?", id).Update("role", role)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		var count int64
		if err := db.WithContext(ctx).Model(&Workshop{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return utils.ErrorRecordNotFound
		}
	}
	return utils.RemoveRedisItem[Workshop](id)
}

func ListWorkshops(ctx context.Context, db *gorm.DB) ([]*Workshop, error) {
	var results []*Workshop
	err := db.WithContext(ctx).Order("id").Find(&results).Error
	return results, err
}

func GetWorkshopsByIds(ctx context.Context, db *gorm.DB, ids []int) ([]*Workshop, error) {
	var results []*Workshop
	if len(ids) == 0 {
		return results, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	return results, err
}
