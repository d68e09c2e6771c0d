// internal/core/domain/money.go
package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// FormatCLP renders a peso amount with dot thousands separators, e.g. $4.500
func FormatCLP(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i])
	}
	return sign + "$" + string(out)
}

// PesosFromDecimal converts a NUMERIC column value to whole pesos.
// Fractions are rounded half away from zero.
func PesosFromDecimal(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// PesosToDecimal converts whole pesos to the NUMERIC representation
func PesosToDecimal(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount)
}
