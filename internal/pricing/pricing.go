package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/models"
)

// DefaultTaxRate 默认税率
var DefaultTaxRate = decimal.NewFromFloat(0.19)

// LineTotal 计算行小计（单价 × 数量）
// 数量必须为正整数，由调用方先行校验
func LineTotal(unitPrice models.Money, quantity int) models.Money {
	return unitPrice.MulQuantity(quantity)
}

// Aggregate 汇总购物车行项的数量与金额
// 空集合返回 {0, 0}
func Aggregate(lines []models.CartLine) (int, models.Money) {
	itemCount := 0
	total := models.ZeroMoney()
	for _, line := range lines {
		itemCount += line.Quantity
		total = total.AddMoney(LineTotal(line.UnitPrice, line.Quantity))
	}
	return itemCount, total
}

// OrderTotals 订单金额明细
type OrderTotals struct {
	Subtotal models.Money // 商品小计
	Shipping models.Money // 运费（当前免运费）
	Tax      models.Money // 税费
	Total    models.Money // 应付总额
}

// ComputeOrderTotals 计算订单金额
// 税费 = 小计 × 税率，四舍五入到最小整数货币单位；运费恒为 0
// 购物车展示与订单创建共用此实现，避免口径漂移
func ComputeOrderTotals(subtotal models.Money, taxRate decimal.Decimal) OrderTotals {
	tax := models.NewMoneyFromDecimal(subtotal.Decimal.Mul(taxRate).Round(0))
	shipping := models.ZeroMoney()
	total := subtotal.AddMoney(shipping).AddMoney(tax)
	return OrderTotals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    total,
	}
}
