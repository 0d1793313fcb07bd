package pricing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/models"
)

// FormatCurrency 按区域格式化金额展示文案
// 仅用于展示，不参与任何金额运算
func FormatCurrency(amount models.Money, locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	value, _ := amount.Decimal.Round(2).Float64()
	printer := message.NewPrinter(tag)
	return printer.Sprintf("%v", number.Decimal(value, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
