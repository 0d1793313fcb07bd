package models

// 客户端订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusFailed    = "failed"
)

// 支付方式常量
const (
	PaymentMethodCard           = "card"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

// OrderItem 订单项快照（提交时从购物车复制，价格冻结）
type OrderItem struct {
	ProductID uint  `json:"productId"` // 商品ID
	Quantity  int   `json:"quantity"`  // 数量
	UnitPrice Money `json:"unitPrice"` // 冻结单价
}

// Order 订单
type Order struct {
	ID              string      `json:"id"`              // 订单标识
	Status          string      `json:"status"`          // 订单状态
	Items           []OrderItem `json:"orderDetails"`    // 订单项快照
	ShippingAddress Address     `json:"shippingAddress"` // 收货地址快照
	PaymentMethod   string      `json:"paymentMethod"`   // 支付方式
	Subtotal        Money       `json:"subtotal"`        // 商品小计
	Shipping        Money       `json:"shipping"`        // 运费
	Tax             Money       `json:"tax"`             // 税费
	Total           Money       `json:"total"`           // 应付总额
}
