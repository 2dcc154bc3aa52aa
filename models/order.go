package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"gorm.io/gorm"
)

type Product struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Client struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Order struct {
	ID        int          `gorm:"primary_key" json:"id"`
	ClientId  *int         `gorm:"index" json:"client_id"`
	Items     []*OrderItem `gorm:"foreignKey:OrderId" json:"items,omitempty"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrderItem progress (PackagingReceivedQuantity) only grows; it is not
// capped at Quantity.
type OrderItem struct {
	ID                        int       `gorm:"primary_key" json:"id"`
	OrderId                   int       `gorm:"index;not null" json:"order_id"`
	ProductId                 int       `gorm:"index;not null" json:"product_id"`
	Quantity                  int64     `gorm:"not null;default:0" json:"quantity"`
	PackagingReceivedQuantity int64     `gorm:"not null;default:0" json:"packaging_received_quantity"`
	CreatedAt                 time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                 time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOrderItem struct {
	ProductId int   `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

func CreateProduct(ctx context.Context, db *gorm.DB, name string) (*Product, error) {
	product := Product{Name: name}
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func CreateClient(ctx context.Context, db *gorm.DB, name string) (*Client, error) {
	client := Client{Name: name}
	if err := db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func CreateOrder(ctx context.Context, db *gorm.DB, clientId *int, items []NewOrderItem) (*Order, error) {
	order := Order{ClientId: clientId}
	for _, item := range items {
		order.Items = append(order.Items, &OrderItem{
			ProductId: item.ProductId,
			Quantity:  item.Quantity,
		})
	}
	if err := db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// GetProduct is a non-locking read.
func GetProduct(tx *gorm.DB, id int) (*Product, error) {
	product, err := utils.FetchModel[Product](tx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, utils.NewStateError(utils.ErrCodeProductNotFound, fmt.Sprintf("product %d not found", id))
		}
		return nil, err
	}
	return product, nil
}

// ResolveOrder is a non-locking read of the order an item belongs to. An
// item whose order is gone is reported as OrderItemNotFound.
func (item *OrderItem) ResolveOrder(tx *gorm.DB) (*Order, error) {
	order, err := utils.FetchModel[Order](tx, item.OrderId)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, utils.NewStateError(utils.ErrCodeOrderItemNotFound,
				fmt.Sprintf("order %d of order item %d not found", item.OrderId, item.ID))
		}
		return nil, err
	}
	return order, nil
}

func LockOrderItem(tx *gorm.DB, id int) (*OrderItem, error) {
	item, err := utils.FetchModelForUpdate[OrderItem](tx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, utils.NewStateError(utils.ErrCodeOrderItemNotFound, fmt.Sprintf("order item %d not found", id))
		}
		return nil, err
	}
	return item, nil
}

// AddPackagingProgress increments a locked order item's received quantity.
func (item *OrderItem) AddPackagingProgress(tx *gorm.DB, quantity int64) error {
	if err := tx.Model(&OrderItem{}).Where("id = ?", item.ID).
		Update("packaging_received_quantity", gorm.Expr("packaging_received_quantity + ?", quantity)).Error; err != nil {
		return err
	}
	item.PackagingReceivedQuantity += quantity
	return nil
}

// (may return ErrorRecordNotFound)
func GetOrderItem(ctx context.Context, db *gorm.DB, id int) (*OrderItem, error) {
	return utils.FetchModel[OrderItem](db.WithContext(ctx), id)
}
