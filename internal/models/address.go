package models

// Address 收货地址
type Address struct {
	ID         string `json:"id"`              // 地址ID（创建时分配）
	FullName   string `json:"fullName"`        // 收件人姓名
	Address    string `json:"address"`         // 街道地址
	City       string `json:"city"`            // 城市
	PostalCode string `json:"postalCode"`      // 邮编
	Phone      string `json:"phone,omitempty"` // 联系电话（可选）
	IsDefault  bool   `json:"isDefault"`       // 是否默认地址
}
