package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/mzylinski/vatworker/internal/adapter/config"
	"github.com/mzylinski/vatworker/internal/adapter/storage"
	"github.com/mzylinski/vatworker/internal/adapter/storage/repository"
	"github.com/mzylinski/vatworker/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests below need a live Postgres (docker-compose.yml) and are skipped
// unless TEST_DATABASE_URI is set.
func newTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URI not set")
	}

	ctx := context.Background()
	db, err := storage.NewDBStorage(ctx, &config.Database{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.RunMigrations())

	repo, err := repository.NewRepository(db)
	require.NoError(t, err)
	require.NoError(t, repo.TruncateOrders(ctx))

	return repo
}

func mustOrder(t *testing.T, amount string) domain.Order {
	t.Helper()

	order, err := domain.NewOrder(uuid.New(), decimal.MustParse(amount), "PLN")
	require.NoError(t, err)
	return order
}

func TestRepository_CreateAndFind(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	order := mustOrder(t, "10.90")
	require.NoError(t, repo.CreateOrder(ctx, order))

	stored, err := repo.FindOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
	assert.Equal(t, "10.90", stored.Amount.String())
	assert.Equal(t, "PLN", stored.Currency)
	assert.False(t, stored.Processed())
}

func TestRepository_CreateConflict(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	order := mustOrder(t, "10.90")
	require.NoError(t, repo.CreateOrder(ctx, order))

	err := repo.CreateOrder(ctx, order)
	assert.ErrorIs(t, err, domain.ErrConflictingData)
}

func TestRepository_FindByIDNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.FindOrderByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrDataNotFound)
}

func TestRepository_FindUnprocessedExcludesMarked(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := mustOrder(t, "10.90")
	second := mustOrder(t, "4.35")
	require.NoError(t, repo.CreateOrder(ctx, first))
	require.NoError(t, repo.CreateOrder(ctx, second))

	unprocessed, err := repo.FindUnprocessed(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, unprocessed, 2)

	vat := decimal.MustParse("2.51")
	total := decimal.MustParse("13.41")
	require.NoError(t, repo.MarkProcessed(ctx, first.ID, vat, total))

	unprocessed, err = repo.FindUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unprocessed, 1)
	assert.Equal(t, second.ID, unprocessed[0].ID)

	count, err := repo.CountUnprocessed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_FindUnprocessedLimit(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateOrder(ctx, mustOrder(t, "1.00")))
	}

	unprocessed, err := repo.FindUnprocessed(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, unprocessed, 3)
}

func TestRepository_MarkProcessedIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	order := mustOrder(t, "10.90")
	require.NoError(t, repo.CreateOrder(ctx, order))

	vat := decimal.MustParse("2.51")
	total := decimal.MustParse("13.41")

	require.NoError(t, repo.MarkProcessed(ctx, order.ID, vat, total))
	require.NoError(t, repo.MarkProcessed(ctx, order.ID, vat, total))

	stored, err := repo.FindOrderByID(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, stored.Processed())
	assert.Equal(t, "2.51", stored.VATAmount.Decimal.String())
	assert.Equal(t, "13.41", stored.TotalAmount.Decimal.String())
}

func TestRepository_MarkProcessedMissingRow(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.MarkProcessed(context.Background(), uuid.New(),
		decimal.MustParse("1.00"), decimal.MustParse("2.00"))
	assert.ErrorIs(t, err, domain.ErrDataNotFound)
}

func TestRepository_DeleteOrders(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	keep := mustOrder(t, "1.00")
	drop := mustOrder(t, "2.00")
	require.NoError(t, repo.CreateOrder(ctx, keep))
	require.NoError(t, repo.CreateOrder(ctx, drop))

	require.NoError(t, repo.DeleteOrders(ctx, nil))
	require.NoError(t, repo.DeleteOrders(ctx, []uuid.UUID{drop.ID}))

	_, err := repo.FindOrderByID(ctx, drop.ID)
	assert.ErrorIs(t, err, domain.ErrDataNotFound)

	_, err = repo.FindOrderByID(ctx, keep.ID)
	assert.NoError(t, err)
}
