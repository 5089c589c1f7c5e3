package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/ncthangg/MiniPos-System/internal/datamodels/order"
)

type orderItemRepo struct {
	db *gorm.DB
}

// NewOrderItemRepository 创建订单项仓储
func NewOrderItemRepository(db *gorm.DB) order.ItemRepository {
	return &orderItemRepo{db: db}
}

func (r *orderItemRepo) CreateBatch(ctx context.Context, items []*order.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(items).Error
}

func (r *orderItemRepo) ListByOrder(ctx context.Context, orderID string) ([]*order.Item, error) {
	var list []*order.Item
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
