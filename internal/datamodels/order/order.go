package order

import (
	"context"

	"github.com/ncthangg/MiniPos-System/internal/datamodels/base"
)

// Status 订单状态
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Order 订单模型。TotalAmount 由服务端按订单项重新计算，单位为分。
type Order struct {
	base.Entity
	TotalAmount int64  `gorm:"not null" json:"totalAmount"`
	OrderStatus Status `gorm:"size:16;index;not null" json:"orderStatus"`
	// Items 与订单同生共死（级联删除）
	Items []Item `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// Item 订单项模型。UnitPrice 为下单时刻的商品价格快照，
// 后续改价不影响历史订单。
type Item struct {
	base.Entity
	OrderID   string `gorm:"size:32;index;not null" json:"orderId"`
	ProductID string `gorm:"size:32;index;not null" json:"productId"`
	Quantity  int    `gorm:"not null" json:"quantity"`
	UnitPrice int64  `gorm:"not null" json:"unitPrice"`
}

// ListParams 订单列表查询参数
type ListParams struct {
	PageNumber    int
	PageSize      int
	SortField     string
	SortDirection string
	SearchValue   string
}

// Repository 订单仓储接口
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListPage(ctx context.Context, p ListParams) ([]*Order, int64, error)
}

// ItemRepository 订单项仓储接口
type ItemRepository interface {
	CreateBatch(ctx context.Context, items []*Item) error
	ListByOrder(ctx context.Context, orderID string) ([]*Item, error)
}
