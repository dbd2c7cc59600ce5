package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/mzylinski/vatworker/internal/core/domain"
)

// OrderRepository is the relational inbox. "Unprocessed" means the row's
// vat_amount is still unset; that predicate is the worker's only claim
// primitive, so alternate backends can substitute a leased variant behind
// the same interface.
type OrderRepository interface {
	// Order ingestion
	CreateOrder(ctx context.Context, order domain.Order) error

	// Worker loop
	FindUnprocessed(ctx context.Context, limit int) ([]domain.Order, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, vat decimal.Decimal, total decimal.Decimal) error

	// Lookups
	FindOrderByID(ctx context.Context, id uuid.UUID) (*domain.StoredOrder, error)
	CountUnprocessed(ctx context.Context) (int64, error)

	// Test and maintenance helpers
	DeleteOrders(ctx context.Context, ids []uuid.UUID) error
	TruncateOrders(ctx context.Context) error
}
