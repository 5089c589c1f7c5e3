package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ncthangg/MiniPos-System/internal/datamodels/order"
	"github.com/ncthangg/MiniPos-System/internal/datamodels/product"
)

// fakeStore 内存版存储，模拟"已提交"的数据库状态
type fakeStore struct {
	orders   []*order.Order
	items    []*order.Item
	products map[string]*product.Product
}

func newFakeStore(prices map[string]int64) *fakeStore {
	s := &fakeStore{products: make(map[string]*product.Product)}
	for id, price := range prices {
		p := &product.Product{Name: "p-" + id, Price: price}
		p.ID = id
		p.Status = true
		s.products[id] = p
	}
	return s
}

// fakeUoW 事务域假实现：写入先进暂存区，Commit 才落到 store
type fakeUoW struct {
	store        *fakeStore
	stagedOrders []*order.Order
	stagedItems  []*order.Item
	committed    bool
	rolledBack   bool
	commitErr    error
}

func (u *fakeUoW) Orders() order.Repository         { return &fakeOrderRepo{uow: u, store: u.store} }
func (u *fakeUoW) OrderItems() order.ItemRepository { return &fakeItemRepo{uow: u} }
func (u *fakeUoW) Products() product.Repository     { return &fakeProductRepo{store: u.store} }

func (u *fakeUoW) Commit() error {
	if u.commitErr != nil {
		return u.commitErr
	}
	u.committed = true
	u.store.orders = append(u.store.orders, u.stagedOrders...)
	u.store.items = append(u.store.items, u.stagedItems...)
	u.stagedOrders = nil
	u.stagedItems = nil
	return nil
}

func (u *fakeUoW) Rollback() error {
	if u.committed {
		return nil
	}
	u.rolledBack = true
	u.stagedOrders = nil
	u.stagedItems = nil
	return nil
}

type fakeOrderRepo struct {
	uow   *fakeUoW
	store *fakeStore
}

func (r *fakeOrderRepo) Create(_ context.Context, o *order.Order) error {
	o.CreatedAt = time.Now()
	r.uow.stagedOrders = append(r.uow.stagedOrders, o)
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	for _, o := range r.store.orders {
		if o.ID == id {
			clone := *o
			clone.Items = nil
			for _, item := range r.store.items {
				if item.OrderID == id {
					clone.Items = append(clone.Items, *item)
				}
			}
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) ListPage(_ context.Context, p order.ListParams) ([]*order.Order, int64, error) {
	total := int64(len(r.store.orders))
	start := (p.PageNumber - 1) * p.PageSize
	if start >= len(r.store.orders) {
		return nil, total, nil
	}
	end := start + p.PageSize
	if end > len(r.store.orders) {
		end = len(r.store.orders)
	}
	var out []*order.Order
	for _, o := range r.store.orders[start:end] {
		clone := *o
		for _, item := range r.store.items {
			if item.OrderID == o.ID {
				clone.Items = append(clone.Items, *item)
			}
		}
		out = append(out, &clone)
	}
	return out, total, nil
}

type fakeItemRepo struct {
	uow *fakeUoW
}

func (r *fakeItemRepo) CreateBatch(_ context.Context, items []*order.Item) error {
	r.uow.stagedItems = append(r.uow.stagedItems, items...)
	return nil
}

func (r *fakeItemRepo) ListByOrder(_ context.Context, orderID string) ([]*order.Item, error) {
	var out []*order.Item
	for _, item := range r.uow.store.items {
		if item.OrderID == orderID {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeProductRepo struct {
	store *fakeStore
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	if p, ok := r.store.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) ListByIDs(_ context.Context, ids []string) ([]*product.Product, error) {
	var out []*product.Product
	for _, id := range ids {
		if p, ok := r.store.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) ListActive(_ context.Context) ([]*product.Product, error) {
	var out []*product.Product
	for _, p := range r.store.products {
		if p.Status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) ListAll(_ context.Context) ([]*product.Product, error) {
	var out []*product.Product
	for _, p := range r.store.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProductRepo) Create(_ context.Context, p *product.Product) error {
	r.store.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *product.Product) error {
	if _, ok := r.store.products[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.store.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id string) error {
	delete(r.store.products, id)
	return nil
}

// fakeDispatcher 记录派发调用，并记录调用时事务是否已提交
type fakeDispatcher struct {
	uow *fakeUoW
	err error

	calls []dispatchCall
}

type dispatchCall struct {
	topic            string
	action           string
	payload          interface{}
	committedAtCall  bool
}

func (d *fakeDispatcher) SendToEntityPage(entityType, pageKey, action string, payload interface{}) error {
	d.calls = append(d.calls, dispatchCall{
		topic:           fmt.Sprintf("page:%s:%s", entityType, pageKey),
		action:          action,
		payload:         payload,
		committedAtCall: d.uow != nil && d.uow.committed,
	})
	return d.err
}

func (d *fakeDispatcher) SendToEntityDetail(entityType, entityID, action string, payload interface{}) error {
	d.calls = append(d.calls, dispatchCall{
		topic:           fmt.Sprintf("detail:%s:%s", entityType, entityID),
		action:          action,
		payload:         payload,
		committedAtCall: d.uow != nil && d.uow.committed,
	})
	return d.err
}

var errFakeBroadcast = errors.New("broadcast transport down")
