package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NeutralBatch is stage-one output waiting in the neutral zone.
// 0 <= UsedQuantity <= TotalQuantity; rows are never deleted.
type NeutralBatch struct {
	ID            int             `gorm:"primary_key" json:"id"`
	WorkshopId    int             `gorm:"index;not null" json:"workshop_id"`
	EmployeeId    int             `gorm:"index;not null" json:"employee_id"`
	TotalQuantity decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"total_quantity"`
	UsedQuantity  decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"used_quantity"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b NeutralBatch) AvailableQuantity() decimal.Decimal {
	return b.TotalQuantity.Sub(b.UsedQuantity)
}

func (b NeutralBatch) IsExhausted() bool {
	return !b.AvailableQuantity().IsPositive()
}

func CreateNeutralBatch(tx *gorm.DB, workshopId int, employeeId int, total decimal.Decimal) (*NeutralBatch, error) {
	batch := NeutralBatch{
		WorkshopId:    workshopId,
		EmployeeId:    employeeId,
		TotalQuantity: total,
		UsedQuantity:  decimal.Zero,
	}
	if err := tx.Create(&batch).Error; err != nil {
		return nil, err
	}
	if err := RecordProductionEvent(tx, EventNeutralBatchCreated, batch.ID, ReferenceTypeNeutralBatch, employeeId, batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// LockNeutralBatch loads the batch holding its row lock until tx ends.
func LockNeutralBatch(tx *gorm.DB, id int) (*NeutralBatch, error) {
	batch, err := utils.FetchModelForUpdate[NeutralBatch](tx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, utils.NewStateError(utils.ErrCodeBatchNotFound, fmt.Sprintf("neutral batch %d not found", id))
		}
		return nil, err
	}
	return batch, nil
}

// Consume adds amount to UsedQuantity of a batch locked by tx.
// The caller clamps amount to the available quantity.
func (b *NeutralBatch) Consume(tx *gorm.DB, amount decimal.Decimal) error {
	before := b.UsedQuantity
	used := b.UsedQuantity.Add(amount)
	if err := tx.Model(&NeutralBatch{}).Where("id = ?", b.ID).
		Update("used_quantity", used).Error; err != nil {
		return err
	}
	b.UsedQuantity = used
	return createHistory(tx, HistoryActionUpdate, b.ID, ReferenceTypeNeutralBatch,
		map[string]string{"used_quantity": before.String()},
		map[string]string{"used_quantity": used.String()},
		fmt.Sprintf("consumed %s of %s", amount.String(), b.TotalQuantity.String()))
}

// ListAvailableNeutralBatches returns one page of batches with available
// quantity, newest first. after is the EndCursor of the previous page.
func ListAvailableNeutralBatches(ctx context.Context, db *gorm.DB, after string, limit int) ([]*NeutralBatch, *PageInfo, error) {
	afterId, err := DecodeCursor(after)
	if err != nil {
		return nil, nil, err
	}
	limit = NormalizePageSize(limit)

	query := db.WithContext(ctx).Where("total_quantity > used_quantity")
	if afterId > 0 {
		query = query.Where("id < ?", afterId)
	}
	var results []*NeutralBatch
	if err := query.Order("id DESC").Limit(limit + 1).Find(&results).Error; err != nil {
		return nil, nil, err
	}

	pageInfo := &PageInfo{}
	if len(results) > limit {
		results = results[:limit]
		pageInfo.HasNextPage = true
	}
	if len(results) > 0 {
		pageInfo.EndCursor = EncodeCursor(results[len(results)-1].ID)
	}
	return results, pageInfo, nil
}

// (may return ErrorRecordNotFound)
func GetNeutralBatch(ctx context.Context, db *gorm.DB, id int) (*NeutralBatch, error) {
	return utils.FetchModel[NeutralBatch](db.WithContext(ctx), id)
}
