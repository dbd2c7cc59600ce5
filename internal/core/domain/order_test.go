package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/mzylinski/vatworker/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		amount   string
		currency string
		expError error
	}{
		{name: "good order", amount: "10.90", currency: "PLN", expError: nil},
		{name: "zero amount", amount: "0.00", currency: "EUR", expError: nil},
		{name: "negative amount", amount: "-10.00", currency: "PLN", expError: domain.ErrNegativeAmount},
		{name: "short currency", amount: "10.00", currency: "PL", expError: domain.ErrInvalidCurrency},
		{name: "long currency", amount: "10.00", currency: "ZLOTY", expError: domain.ErrInvalidCurrency},
		{name: "empty currency", amount: "10.00", currency: "", expError: domain.ErrInvalidCurrency},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			order, err := domain.NewOrder(id, decimal.MustParse(test.amount), test.currency)

			if test.expError != nil {
				assert.ErrorIs(t, err, test.expError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, order.ID)
			assert.Equal(t, test.currency, order.Currency)
		})
	}
}

func TestNewOrder_NegativeAmountMessage(t *testing.T) {
	_, err := domain.NewOrder(uuid.New(), decimal.MustParse("-10.00"), "PLN")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be negative")
}

func TestNewProcessedOrder(t *testing.T) {
	order, err := domain.NewOrder(uuid.New(), decimal.MustParse("200.00"), "PLN")
	require.NoError(t, err)

	processed, err := domain.NewProcessedOrder(order)
	require.NoError(t, err)

	assert.Equal(t, order.ID, processed.ID)
	assert.Equal(t, "200.00", processed.OriginalAmount.String())
	assert.Equal(t, "PLN", processed.Currency)
	assert.Equal(t, "46.00", processed.VATAmount.String())
	assert.Equal(t, "246.00", processed.TotalAmount.String())
}

func TestProcessedOrder_JSONKeepsScale(t *testing.T) {
	order, err := domain.NewOrder(uuid.New(), decimal.MustParse("200.00"), "PLN")
	require.NoError(t, err)
	processed, err := domain.NewProcessedOrder(order)
	require.NoError(t, err)

	body, err := json.Marshal(processed)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, order.ID.String(), decoded["id"])
	assert.Equal(t, "PLN", decoded["currency"])

	var roundTrip domain.ProcessedOrder
	require.NoError(t, json.Unmarshal(body, &roundTrip))
	assert.Equal(t, "46.00", roundTrip.VATAmount.String())
	assert.Equal(t, "246.00", roundTrip.TotalAmount.String())
	assert.Equal(t, "200.00", roundTrip.OriginalAmount.String())
}

func TestStoredOrder_Processed(t *testing.T) {
	order, err := domain.NewOrder(uuid.New(), decimal.MustParse("10.00"), "PLN")
	require.NoError(t, err)

	stored := domain.StoredOrder{Order: order}
	assert.False(t, stored.Processed())

	stored.VATAmount = decimal.NullDecimal{Decimal: decimal.MustParse("2.30"), Valid: true}
	stored.TotalAmount = decimal.NullDecimal{Decimal: decimal.MustParse("12.30"), Valid: true}
	assert.True(t, stored.Processed())
}
