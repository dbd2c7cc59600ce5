package domain

import (
	"errors"
)

var (
	// * Data errors.
	ErrDataNotFound    = errors.New("data not found")
	ErrConflictingData = errors.New("data conflicts with existing data in unique column")

	// * Validation errors.
	ErrNegativeAmount  = errors.New("order amount cannot be negative")
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")

	// * Delivery errors.
	ErrDeliveryFailure = errors.New("message not delivered after all publish attempts")
	ErrQueueTimeout    = errors.New("no message received before timeout")
)
