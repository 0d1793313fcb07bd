package api

import (
	"context"
	"net/http"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/models"
)

// CreateOrderRequest 订单创建请求体
type CreateOrderRequest struct {
	ShippingAddress models.Address     `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	OrderDetails    []models.OrderItem `json:"orderDetails"`
}

// OrderClient 订单客户端
type OrderClient struct {
	transport *Transport
}

// NewOrderClient 创建订单客户端
func NewOrderClient(transport *Transport) *OrderClient {
	return &OrderClient{transport: transport}
}

// Create 提交订单
// 业务冲突（如下单时库存不足）原样透出，不做重试
func (c *OrderClient) Create(ctx context.Context, request CreateOrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.transport.Do(ctx, http.MethodPost, "/orders", request, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
