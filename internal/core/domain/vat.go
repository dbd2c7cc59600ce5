package domain

import (
	"fmt"

	"github.com/govalues/decimal"
)

// VATRate is the fixed rate applied to every order amount.
var VATRate = decimal.MustParse("0.23")

var halfCent = decimal.MustParse("0.005")

// ComputeVAT returns the VAT for amount, rounded half-up to 2 decimal
// digits, and the total as amount + vat. Both results carry scale 2.
//
// decimal rounds half-to-even, while the tax rule is half-up: for a
// non-negative x, half-up at 2 digits equals trunc(x + 0.005, 2).
func ComputeVAT(amount decimal.Decimal) (vat, total decimal.Decimal, err error) {
	raw, err := amount.Mul(VATRate)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("vat multiply: %w", err)
	}
	shifted, err := raw.Add(halfCent)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("vat round: %w", err)
	}
	vat = shifted.Trunc(2).Pad(2)

	total, err = amount.Add(vat)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("vat total: %w", err)
	}
	return vat, total.Pad(2), nil
}
