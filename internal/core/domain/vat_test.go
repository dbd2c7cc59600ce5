package domain_test

import (
	"testing"

	"github.com/govalues/decimal"
	"github.com/mzylinski/vatworker/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeVAT(t *testing.T) {
	tests := []struct {
		amount   string
		expVAT   string
		expTotal string
	}{
		{amount: "10.90", expVAT: "2.51", expTotal: "13.41"},
		{amount: "10.87", expVAT: "2.50", expTotal: "13.37"},
		{amount: "4.34", expVAT: "1.00", expTotal: "5.34"},
		{amount: "4.35", expVAT: "1.00", expTotal: "5.35"},
		{amount: "0.00", expVAT: "0.00", expTotal: "0.00"},
		{amount: "200.00", expVAT: "46.00", expTotal: "246.00"},
		{amount: "100.00", expVAT: "23.00", expTotal: "123.00"},
		// 1.50 * 0.23 = 0.3450: a half-up tie, must not round half-to-even
		{amount: "1.50", expVAT: "0.35", expTotal: "1.85"},
		// integer amount without explicit scale
		{amount: "200", expVAT: "46.00", expTotal: "246.00"},
	}

	for _, test := range tests {
		t.Run(test.amount, func(t *testing.T) {
			vat, total, err := domain.ComputeVAT(decimal.MustParse(test.amount))

			require.NoError(t, err)
			assert.Equal(t, test.expVAT, vat.String())
			assert.Equal(t, test.expTotal, total.String())
		})
	}
}

func TestComputeVAT_Deterministic(t *testing.T) {
	amount := decimal.MustParse("10.90")

	vat1, total1, err := domain.ComputeVAT(amount)
	require.NoError(t, err)
	vat2, total2, err := domain.ComputeVAT(amount)
	require.NoError(t, err)

	assert.Equal(t, vat1, vat2)
	assert.Equal(t, total1, total2)
}
