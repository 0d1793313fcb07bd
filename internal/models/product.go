package models

// Product 商品目录条目
type Product struct {
	ID       uint   `json:"id"`       // 商品ID
	Slug     string `json:"slug"`     // 链接标识
	Name     string `json:"name"`     // 商品名称
	Image    string `json:"image"`    // 商品图片
	Price    Money  `json:"price"`    // 当前售价
	IsActive bool   `json:"isActive"` // 是否在售
}
