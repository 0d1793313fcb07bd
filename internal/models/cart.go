package models

// 购物车归属域
const (
	CartRealmLocal  = "local"  // 本地游客购物车
	CartRealmRemote = "remote" // 服务端购物车
)

// CartLine 购物车行项
type CartLine struct {
	ProductID uint   `json:"productId"`       // 商品ID（行项唯一键）
	Quantity  int    `json:"quantity"`        // 数量（始终 >= 1）
	UnitPrice Money  `json:"unitPrice"`       // 加入时的单价快照
	LineTotal Money  `json:"lineTotal"`       // 行小计（由数量与单价派生）
	Name      string `json:"name,omitempty"`  // 展示用商品名
	Image     string `json:"image,omitempty"` // 展示用图片
	Slug      string `json:"slug,omitempty"`  // 展示用链接标识
}

// Cart 购物车聚合
type Cart struct {
	Realm     string     `json:"realm"`     // 归属域（local/remote）
	Lines     []CartLine `json:"items"`     // 行项（保持插入顺序）
	ItemCount int        `json:"itemCount"` // 数量汇总（派生）
	Total     Money      `json:"total"`     // 金额汇总（派生）
}

// PersistedCartLine 持久化的精简行项（展示字段从目录回填，不落盘）
type PersistedCartLine struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}
