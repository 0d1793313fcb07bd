package provider

import (
	"github.com/shopspring/decimal"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/address"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/api"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/cart"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/catalog"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/checkout"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/config"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/storage"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/token"
)

// Container 依赖注入容器
// 在应用引导时构建一次并向下传递；测试可构建隔离实例，
// 取代源实现里的模块级全局状态
type Container struct {
	Config *config.Config

	Storage storage.KV
	Catalog catalog.Catalog
	Tokens  *token.Manager

	CartStore    *cart.Store
	CartClient   *api.CartClient
	OrderClient  *api.OrderClient
	Synchronizer *cart.Synchronizer
	CartManager  *cart.Manager

	CheckoutFlow *checkout.Flow
	AddressBook  *address.Book
}

// NewContainer 按配置组装依赖图
func NewContainer(cfg *config.Config) (*Container, error) {
	kv, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	// 匿名传输：令牌换发与商品目录查询不带鉴权头
	anonymousTransport, err := api.NewTransport(api.TransportOptions{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout(),
		Attempts:    cfg.API.RetryAttempts,
		BackoffStep: cfg.API.Backoff(),
	})
	if err != nil {
		return nil, err
	}
	tokens := token.NewManager(kv, anonymousTransport)

	authedTransport, err := api.NewTransport(api.TransportOptions{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout(),
		Attempts:    cfg.API.RetryAttempts,
		BackoffStep: cfg.API.Backoff(),
		Tokens:      tokens,
	})
	if err != nil {
		return nil, err
	}

	productCatalog := catalog.NewClient(anonymousTransport)
	cartClient := api.NewCartClient(authedTransport)
	orderClient := api.NewOrderClient(authedTransport)

	cartStore := cart.NewStore(kv)
	synchronizer := cart.NewSynchronizer(cartStore, cartClient)
	cartManager := cart.NewManager(cartStore, cartClient, synchronizer, tokens)

	taxRate := decimal.NewFromFloat(cfg.Checkout.TaxRate)
	checkoutFlow := checkout.NewFlow(cartManager, orderClient, taxRate)

	return &Container{
		Config:       cfg,
		Storage:      kv,
		Catalog:      productCatalog,
		Tokens:       tokens,
		CartStore:    cartStore,
		CartClient:   cartClient,
		OrderClient:  orderClient,
		Synchronizer: synchronizer,
		CartManager:  cartManager,
		CheckoutFlow: checkoutFlow,
		AddressBook:  address.NewBook(kv),
	}, nil
}

func openStorage(cfg *config.Config) (storage.KV, error) {
	if cfg.Storage.InMemory {
		return storage.NewMemoryKV(), nil
	}
	return storage.OpenGormKV(cfg.Storage.DSN)
}
