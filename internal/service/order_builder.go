package service

import (
	"github.com/ncthangg/MiniPos-System/internal/datamodels/base"
	"github.com/ncthangg/MiniPos-System/internal/datamodels/order"
	"github.com/ncthangg/MiniPos-System/internal/datamodels/product"
)

// CheckoutItem 下单请求中的一行商品
type CheckoutItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CheckoutRequest 下单请求。TotalAmount/TotalItem 是客户端声明值，
// 只用于与服务端重算结果交叉校验，价格永远以库内为准。
type CheckoutRequest struct {
	TotalAmount int64          `json:"totalAmount"`
	TotalItem   int            `json:"totalItem"`
	Items       []CheckoutItem `json:"items"`
}

// BuildOrder 纯计算：按库内价格构建订单聚合并完成数量/金额校验。
// 不做任何 I/O，products 为调用方一次性查出的商品表。
// 同一商品出现多行时按独立订单项处理，不合并。
func BuildOrder(req *CheckoutRequest, products map[string]*product.Product, createdBy string) (*order.Order, []*order.Item, error) {
	if len(req.Items) == 0 {
		return nil, nil, ErrNoItems
	}

	o := &order.Order{
		TotalAmount: 0,
		OrderStatus: order.StatusSuccess,
	}
	o.ID = base.NewID()
	o.CreatedBy = createdBy
	o.Status = true

	items := make([]*order.Item, 0, len(req.Items))
	totalQuantity := 0
	var totalAmount int64

	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, nil, &InvalidQuantityError{ProductID: line.ProductID, Quantity: line.Quantity}
		}
		p, ok := products[line.ProductID]
		if !ok {
			return nil, nil, &ProductNotFoundError{ProductID: line.ProductID}
		}

		item := &order.Item{
			OrderID:   o.ID,
			ProductID: p.ID,
			Quantity:  line.Quantity,
			UnitPrice: p.Price, // 价格快照，后续改价不影响本单
		}
		item.ID = base.NewID()
		item.CreatedBy = createdBy
		item.Status = true

		items = append(items, item)
		totalQuantity += line.Quantity
		totalAmount += int64(line.Quantity) * p.Price
	}

	if totalQuantity != req.TotalItem {
		return nil, nil, &QuantityMismatchError{Claimed: req.TotalItem, Actual: totalQuantity}
	}
	if totalAmount != req.TotalAmount {
		return nil, nil, &AmountMismatchError{Claimed: req.TotalAmount, Actual: totalAmount}
	}

	o.TotalAmount = totalAmount
	return o, items, nil
}
