package storage

// KV 客户端持久化键值存储
// 每个键只允许一个归属模块写入：购物车键归购物车存储、
// 令牌键归令牌管理器、地址键归地址簿
type KV interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// 持久化键名常量
const (
	KeyCart      = "storefront_cart"
	KeyTokens    = "storefront_tokens"
	KeyAddresses = "storefront_addresses"
)
