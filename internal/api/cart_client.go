package api

import (
	"context"
	"net/http"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/models"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/pricing"
)

// RemoteCartItem 服务端购物车项
type RemoteCartItem struct {
	ProductID uint         `json:"productId"`
	Quantity  int          `json:"quantity"`
	Price     models.Money `json:"price"`
}

// RemoteCart 服务端购物车资源
type RemoteCart struct {
	UserID uint             `json:"userId"`
	Items  []RemoteCartItem `json:"items"`
	Total  models.Money     `json:"total"`
}

// CartClient 服务端购物车客户端
type CartClient struct {
	transport *Transport
}

// NewCartClient 创建购物车客户端
func NewCartClient(transport *Transport) *CartClient {
	return &CartClient{transport: transport}
}

// Fetch 拉取当前会话的服务端购物车
func (c *CartClient) Fetch(ctx context.Context) (*models.Cart, error) {
	var remote RemoteCart
	if err := c.transport.Do(ctx, http.MethodGet, "/cart", nil, &remote); err != nil {
		return nil, err
	}
	return remote.ToCart(), nil
}

// replaceCartRequest 整单替换请求体
type replaceCartRequest struct {
	Items []RemoteCartItem `json:"items"`
}

// Replace 以期望的行项整单替换服务端购物车
// 单价不由客户端上送，服务端按自己的目录重新计价
func (c *CartClient) Replace(ctx context.Context, lines []models.PersistedCartLine) (*models.Cart, error) {
	items := make([]RemoteCartItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, RemoteCartItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     models.ZeroMoney(),
		})
	}
	var remote RemoteCart
	if err := c.transport.Do(ctx, http.MethodPut, "/cart", replaceCartRequest{Items: items}, &remote); err != nil {
		return nil, err
	}
	return remote.ToCart(), nil
}

// Clear 清空服务端购物车
func (c *CartClient) Clear(ctx context.Context) error {
	return c.transport.Do(ctx, http.MethodDelete, "/cart", nil, nil)
}

// ToCart 转为通用购物车聚合（汇总字段以服务端响应重算）
func (r *RemoteCart) ToCart() *models.Cart {
	lines := make([]models.CartLine, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, models.CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
			LineTotal: pricing.LineTotal(item.Price, item.Quantity),
		})
	}
	itemCount, total := pricing.Aggregate(lines)
	return &models.Cart{
		Realm:     models.CartRealmRemote,
		Lines:     lines,
		ItemCount: itemCount,
		Total:     total,
	}
}
