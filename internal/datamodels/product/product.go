package product

import (
	"context"

	"github.com/ncthangg/MiniPos-System/internal/datamodels/base"
)

// Product 商品模型。Price 单位为分，由后台维护，下单时只读。
type Product struct {
	base.Entity
	Name     string `gorm:"size:128;not null" json:"name"`
	Price    int64  `gorm:"not null" json:"price"`
	ImageURL string `gorm:"size:256" json:"imageUrl"`
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Product, error)
	ListActive(ctx context.Context) ([]*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
