package utils

import (
	"github.com/shopspring/decimal"
)

// RoundMoney rounds a currency amount half away from zero to 2 decimal places.
func RoundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// ToMinorUnits converts rupees to paise for gateway calls.
func ToMinorUnits(v float64) int64 {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FormatMoney renders an amount the way responses show it.
func FormatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
