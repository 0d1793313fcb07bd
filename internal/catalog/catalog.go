package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/api"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/models"
)

// ErrProductNotFound 商品不存在
var ErrProductNotFound = errors.New("catalog: product not found")

// Catalog 商品目录查询接口
// 购物车持久化只保存精简行项，展示字段在加载时据此回填
type Catalog interface {
	GetByID(ctx context.Context, productID uint) (*models.Product, error)
}

// Client 基于远端目录接口的实现
type Client struct {
	transport *api.Transport
}

// NewClient 创建目录客户端
func NewClient(transport *api.Transport) *Client {
	return &Client{transport: transport}
}

// GetByID 按ID查询商品
func (c *Client) GetByID(ctx context.Context, productID uint) (*models.Product, error) {
	var product models.Product
	err := c.transport.Do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", productID), nil, &product)
	if err != nil {
		if api.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Static 内存目录（测试与离线场景）
type Static struct {
	mu       sync.RWMutex
	products map[uint]models.Product
}

// NewStatic 创建内存目录
func NewStatic(products ...models.Product) *Static {
	s := &Static{products: make(map[uint]models.Product, len(products))}
	for _, product := range products {
		s.products[product.ID] = product
	}
	return s
}

// Put 写入或覆盖商品
func (s *Static) Put(product models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = product
}

// Remove 下架商品
func (s *Static) Remove(productID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, productID)
}

// GetByID 按ID查询商品
func (s *Static) GetByID(_ context.Context, productID uint) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	copied := product
	return &copied, nil
}
