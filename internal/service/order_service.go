package service

import (
	"context"
	"log"
	"time"

	"github.com/ncthangg/MiniPos-System/internal/datamodels/order"
	"github.com/ncthangg/MiniPos-System/internal/datamodels/product"
)

// UnitOfWork 事务域抽象：同一事务内的各仓储 + 整体提交/回滚。
// 具体实现见 repository/mysql。
type UnitOfWork interface {
	Orders() order.Repository
	OrderItems() order.ItemRepository
	Products() product.Repository
	Commit() error
	Rollback() error
}

// TxFactory 开启一个新的事务域
type TxFactory func(ctx context.Context) (UnitOfWork, error)

// Dispatcher 实时推送出口。推送失败只记日志，不影响已提交的订单。
type Dispatcher interface {
	SendToEntityPage(entityType, pageKey, action string, payload interface{}) error
	SendToEntityDetail(entityType, entityID, action string, payload interface{}) error
}

// OrderSummary 订单摘要投影（列表页 / OrderCreated 事件载荷）
type OrderSummary struct {
	ID          string       `json:"id"`
	TotalAmount int64        `json:"totalAmount"`
	TotalItem   int          `json:"totalItem"`
	OrderStatus order.Status `json:"orderStatus"`
	CreatedAt   time.Time    `json:"createdAt"`
	CreatedBy   string       `json:"createdBy"`
}

// OrderItemDetail 订单项投影（带商品名）
type OrderItemDetail struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// OrderDetail 单个订单的完整投影
type OrderDetail struct {
	OrderSummary
	Items []OrderItemDetail `json:"items"`
}

// OrderPage 订单分页结果
type OrderPage struct {
	List       []OrderSummary `json:"list"`
	PageNumber int            `json:"pageNumber"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
	TotalItems int64          `json:"totalItems"`
}

// OrderService 订单服务：下单事务协调 + 列表/详情查询
type OrderService struct {
	begin      TxFactory
	orders     order.Repository
	products   product.Repository
	dispatcher Dispatcher
}

// NewOrderService 创建订单服务
func NewOrderService(begin TxFactory, orders order.Repository, products product.Repository, dispatcher Dispatcher) *OrderService {
	return &OrderService{
		begin:      begin,
		orders:     orders,
		products:   products,
		dispatcher: dispatcher,
	}
}

// CreateOrder 下单：查价、构建校验、单事务落库，提交后广播 OrderCreated。
// 校验失败整单回滚，不留任何行；广播失败不回滚订单。
func (s *OrderService) CreateOrder(ctx context.Context, req *CheckoutRequest, createdBy string) (*OrderSummary, error) {
	GetMonitor().RecordCheckoutRequest()

	uow, err := s.begin(ctx)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	defer uow.Rollback()

	// 1. 去重后一次查出所有商品
	seen := make(map[string]struct{}, len(req.Items))
	ids := make([]string, 0, len(req.Items))
	for _, line := range req.Items {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	products, err := uow.Products().ListByIDs(ctx, ids)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	byID := make(map[string]*product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// 2-4. 构建聚合并校验数量/金额
	o, items, err := BuildOrder(req, byID, createdBy)
	if err != nil {
		GetMonitor().RecordCheckoutRejected()
		return nil, err
	}

	// 5. 订单 + 订单项同一事务写入
	if err := uow.Orders().Create(ctx, o); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	if err := uow.OrderItems().CreateBatch(ctx, items); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	GetMonitor().RecordCheckoutAccepted()

	summary := &OrderSummary{
		ID:          o.ID,
		TotalAmount: o.TotalAmount,
		TotalItem:   req.TotalItem,
		OrderStatus: o.OrderStatus,
		CreatedAt:   o.CreatedAt,
		CreatedBy:   o.CreatedBy,
	}

	// 6. 仅在提交之后广播；推送失败不能让已落库的订单被判定为失败
	if s.dispatcher != nil {
		if err := s.dispatcher.SendToEntityPage("order", "list", "OrderCreated", summary); err != nil {
			GetMonitor().RecordBroadcastError()
			log.Printf("broadcast OrderCreated failed for order %s: %v", o.ID, err)
		}
	}
	return summary, nil
}

// GetOrders 订单分页查询（支持排序与按 ID 模糊搜索）
func (s *OrderService) GetOrders(ctx context.Context, p order.ListParams) (*OrderPage, error) {
	if p.PageNumber <= 0 {
		p.PageNumber = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 10
	}
	list, total, err := s.orders.ListPage(ctx, p)
	if err != nil {
		return nil, err
	}

	summaries := make([]OrderSummary, 0, len(list))
	for _, o := range list {
		summaries = append(summaries, *toSummary(o))
	}

	totalPages := int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	return &OrderPage{
		List:       summaries,
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
		TotalItems: total,
	}, nil
}

// GetByID 查询单个订单详情（订单项带商品名）
func (s *OrderService) GetByID(ctx context.Context, orderID string) (*OrderDetail, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	nameByID := make(map[string]string, len(products))
	for _, p := range products {
		nameByID[p.ID] = p.Name
	}

	detail := &OrderDetail{OrderSummary: *toSummary(o)}
	for _, item := range o.Items {
		detail.Items = append(detail.Items, OrderItemDetail{
			Name:      nameByID[item.ProductID],
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return detail, nil
}

func toSummary(o *order.Order) *OrderSummary {
	totalItem := 0
	for _, item := range o.Items {
		totalItem += item.Quantity
	}
	return &OrderSummary{
		ID:          o.ID,
		TotalAmount: o.TotalAmount,
		TotalItem:   totalItem,
		OrderStatus: o.OrderStatus,
		CreatedAt:   o.CreatedAt,
		CreatedBy:   o.CreatedBy,
	}
}
