package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/ncthangg/MiniPos-System/internal/datamodels/order"
	"github.com/ncthangg/MiniPos-System/internal/datamodels/product"
)

// TxManager 事务管理器，负责开启事务域
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Begin 开启一个事务域。同一次业务调用内只允许开启一个事务域，
// 不支持嵌套事务。
func (m *TxManager) Begin(ctx context.Context) (*UnitOfWork, error) {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &UnitOfWork{tx: tx}, nil
}

// UnitOfWork 事务域：同一事务内的各仓储共享底层连接，
// Commit/Rollback 对域内所有写入整体生效。
type UnitOfWork struct {
	tx   *gorm.DB
	done bool
}

// Orders 订单仓储（绑定当前事务）
func (u *UnitOfWork) Orders() order.Repository {
	return NewOrderRepository(u.tx)
}

// OrderItems 订单项仓储（绑定当前事务）
func (u *UnitOfWork) OrderItems() order.ItemRepository {
	return NewOrderItemRepository(u.tx)
}

// Products 商品仓储（绑定当前事务）
func (u *UnitOfWork) Products() product.Repository {
	return NewProductRepository(u.tx)
}

// Commit 提交事务并结束事务域
func (u *UnitOfWork) Commit() error {
	if u.done {
		return nil
	}
	u.done = true
	return u.tx.Commit().Error
}

// Rollback 回滚事务。Commit 之后调用是安全的空操作，
// 方便 defer uow.Rollback() 兜底。
func (u *UnitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	return u.tx.Rollback().Error
}
