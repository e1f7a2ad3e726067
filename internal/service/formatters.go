package service

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/locvowork/employee_management_sample/reportgateway/pkg/excelmap"
)

// FormatterMoney renders amounts with thousands separators and two decimals.
const FormatterMoney = "money"

// NewFormatters returns the excelmap registry used by every export.
func NewFormatters() *excelmap.Formatters {
	return excelmap.NewFormatters().
		Register(FormatterMoney, excelmap.NewFormatter(excelmap.FormatText, formatMoney)).
		Register("decimal.Decimal", excelmap.NewFormatter(excelmap.FormatDecimal, func(v interface{}) (string, error) {
			d, ok := v.(decimal.Decimal)
			if !ok {
				return "", fmt.Errorf("expected decimal.Decimal, got %T", v)
			}
			return d.StringFixed(2), nil
		}))
}

func formatMoney(v interface{}) (string, error) {
	var f float64
	switch n := v.(type) {
	case decimal.Decimal:
		f = n.Round(2).InexactFloat64()
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return "", fmt.Errorf("expected an amount, got %T", v)
	}
	return humanize.FormatFloat("#,###.##", f), nil
}
