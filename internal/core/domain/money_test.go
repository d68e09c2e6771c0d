// internal/core/domain/money_test.go
package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
)

func TestFormatCLP(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{amount: 0, want: "$0"},
		{amount: 800, want: "$800"},
		{amount: 4500, want: "$4.500"},
		{amount: 12990, want: "$12.990"},
		{amount: 1000000, want: "$1.000.000"},
		{amount: -2500, want: "-$2.500"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.FormatCLP(tt.amount))
		})
	}
}

func TestPesosFromDecimal(t *testing.T) {
	assert.Equal(t, int64(1500), domain.PesosFromDecimal(decimal.RequireFromString("1500.00")))
	assert.Equal(t, int64(1501), domain.PesosFromDecimal(decimal.RequireFromString("1500.50")))
	assert.Equal(t, int64(1500), domain.PesosFromDecimal(decimal.RequireFromString("1500.49")))
	assert.True(t, domain.PesosToDecimal(2500).Equal(decimal.NewFromInt(2500)))
}
