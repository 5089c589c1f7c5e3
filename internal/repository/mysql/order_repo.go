package mysql

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/ncthangg/MiniPos-System/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Create(o).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// sortColumns 允许排序的字段白名单，防止拼接注入
var sortColumns = map[string]string{
	"id":          "id",
	"createdat":   "created_at",
	"created_at":  "created_at",
	"totalamount": "total_amount",
	"total_amount": "total_amount",
}

func (r *orderRepo) ListPage(ctx context.Context, p order.ListParams) ([]*order.Order, int64, error) {
	if p.PageNumber <= 0 {
		p.PageNumber = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 10
	}

	query := r.db.WithContext(ctx).Model(&order.Order{})

	if v := strings.TrimSpace(p.SearchValue); v != "" {
		query = query.Where("LOWER(id) LIKE ?", "%"+strings.ToLower(v)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[strings.ToLower(p.SortField)]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(p.SortDirection, "asc") {
		direction = "ASC"
	}

	var list []*order.Order
	if err := query.
		Preload("Items").
		Order(column + " " + direction).
		Offset((p.PageNumber - 1) * p.PageSize).
		Limit(p.PageSize).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
