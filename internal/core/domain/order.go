package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

// Order is an inbox row before processing. Read-only to the pipeline.
type Order struct {
	ID       uuid.UUID
	Amount   decimal.Decimal
	Currency string
}

func NewOrder(id uuid.UUID, amount decimal.Decimal, currency string) (Order, error) {
	if amount.IsNeg() {
		return Order{}, fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	if len(currency) != 3 {
		return Order{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	return Order{ID: id, Amount: amount, Currency: currency}, nil
}

// ProcessedOrder is the result of applying VAT to an Order. Serialized as-is
// to the queue; decimals keep their 2-digit scale through the text form.
type ProcessedOrder struct {
	ID             uuid.UUID       `json:"id"`
	OriginalAmount decimal.Decimal `json:"originalAmount"`
	Currency       string          `json:"currency"`
	VATAmount      decimal.Decimal `json:"vatAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
}

func NewProcessedOrder(order Order) (ProcessedOrder, error) {
	vat, total, err := ComputeVAT(order.Amount)
	if err != nil {
		return ProcessedOrder{}, err
	}
	return ProcessedOrder{
		ID:             order.ID,
		OriginalAmount: order.Amount,
		Currency:       order.Currency,
		VATAmount:      vat,
		TotalAmount:    total,
	}, nil
}

// StoredOrder is a row snapshot regardless of processing state. VAT and total
// stay unset until the worker marks the row.
type StoredOrder struct {
	Order
	VATAmount   decimal.NullDecimal
	TotalAmount decimal.NullDecimal
}

func (o *StoredOrder) Processed() bool {
	return o.VATAmount.Valid
}
