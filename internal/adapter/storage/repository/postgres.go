package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mzylinski/vatworker/internal/adapter/storage"
	"github.com/mzylinski/vatworker/internal/core/domain"
)

type Repository struct {
	db *storage.DB
}

func NewRepository(db *storage.DB) (*Repository, error) {
	return &Repository{db: db}, nil
}

func (r *Repository) CreateOrder(ctx context.Context, order domain.Order) error {
	statement := r.db.QueryBuilder.Insert("orders").
		Columns("id", "amount", "currency").
		Values(order.ID, order.Amount, order.Currency)

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrConflictingData
		}
		return err
	}
	return nil
}

func (r *Repository) FindUnprocessed(ctx context.Context, limit int) ([]domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select("id", "amount", "currency").
		From("orders").
		Where(sq.Expr("vat_amount IS NULL")).
		OrderBy("id").
		Limit(uint64(limit))

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]domain.Order, 0)
	for rows.Next() {
		order := domain.Order{}
		err := rows.Scan(
			&order.ID,
			&order.Amount,
			&order.Currency,
		)
		if err != nil {
			return nil, err
		}
		list = append(list, order)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return list, nil
}

func (r *Repository) FindOrderByID(ctx context.Context, id uuid.UUID) (*domain.StoredOrder, error) {
	statement := r.db.QueryBuilder.
		Select("id", "amount", "currency", "vat_amount", "total_amount").
		From("orders").
		Where(sq.Eq{"id": id})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	order := domain.StoredOrder{}

	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&order.ID,
		&order.Amount,
		&order.Currency,
		&order.VATAmount,
		&order.TotalAmount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &order, nil
}

// MarkProcessed sets the VAT columns with a single atomic update guarded on
// the unprocessed sentinel. A second call for the same id is a no-op: the
// predicate no longer matches and the stored values are already the
// deterministic result for that amount.
func (r *Repository) MarkProcessed(ctx context.Context, id uuid.UUID, vat decimal.Decimal, total decimal.Decimal) error {
	statement := r.db.QueryBuilder.
		Update("orders").
		Set("vat_amount", vat).
		Set("total_amount", total).
		Where(sq.Eq{"id": id}).
		Where(sq.Expr("vat_amount IS NULL"))

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}

	if ct.RowsAffected() == 0 {
		// row already marked, or missing entirely
		if _, err := r.FindOrderByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) CountUnprocessed(ctx context.Context) (int64, error) {
	statement := r.db.QueryBuilder.
		Select("count(*)").
		From("orders").
		Where(sq.Expr("vat_amount IS NULL"))

	sql, args, err := statement.ToSql()
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) DeleteOrders(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	statement := r.db.QueryBuilder.
		Delete("orders").
		Where(sq.Eq{"id": ids})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Pool.Exec(ctx, sql, args...)
	return err
}

func (r *Repository) TruncateOrders(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, "TRUNCATE TABLE orders")
	return err
}
