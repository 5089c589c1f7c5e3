package service

import (
	"errors"
	"fmt"
)

// ErrNoItems 订单必须至少包含一个订单项
var ErrNoItems = errors.New("订单不能为空")

// ProductNotFoundError 请求中的商品 ID 在目录中不存在
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("商品不存在: %s", e.ProductID)
}

// InvalidQuantityError 订单项数量必须为正整数
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("商品 %s 的数量无效: %d", e.ProductID, e.Quantity)
}

// QuantityMismatchError 客户端声明的总数量与服务端重算结果不一致
type QuantityMismatchError struct {
	Claimed int
	Actual  int
}

func (e *QuantityMismatchError) Error() string {
	return fmt.Sprintf("订单数量有误: 声明 %d, 实际 %d", e.Claimed, e.Actual)
}

// AmountMismatchError 客户端声明的总金额与服务端重算结果不一致
type AmountMismatchError struct {
	Claimed int64
	Actual  int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("订单金额有误: 声明 %d, 实际 %d", e.Claimed, e.Actual)
}

// IsValidationError 判断是否为客户端可修正的校验错误（对应 HTTP 400）
func IsValidationError(err error) bool {
	var pnf *ProductNotFoundError
	var iq *InvalidQuantityError
	var qm *QuantityMismatchError
	var am *AmountMismatchError
	return errors.Is(err, ErrNoItems) ||
		errors.As(err, &pnf) ||
		errors.As(err, &iq) ||
		errors.As(err, &qm) ||
		errors.As(err, &am)
}
