package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yerzhan/wallet/internal/database"
)

func TestCurrencyRepository(t *testing.T) {
	db, _, ctx := setupRepositoryTest(t)
	repo := NewCurrencyRepository(db)

	t.Run("lists seeded currencies", func(t *testing.T) {
		currencies, err := repo.List(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, currencies)
	})

	t.Run("gets a currency by code", func(t *testing.T) {
		cur, err := repo.GetByCode(ctx, "EUR")
		require.NoError(t, err)
		require.Equal(t, "EUR", cur.Code)
		require.NotEmpty(t, cur.Name)
	})

	t.Run("unknown code errors", func(t *testing.T) {
		_, err := repo.GetByCode(ctx, "XXX")
		require.Error(t, err)
	})

	t.Run("upsert overwrites the stored rate", func(t *testing.T) {
		require.NoError(t, repo.UpsertRate(ctx, "EUR", decimal.RequireFromString("0.91")))
		require.NoError(t, repo.UpsertRate(ctx, "EUR", decimal.RequireFromString("0.93")))

		rate, err := repo.GetRate(ctx, "EUR")
		require.NoError(t, err)
		require.True(t, rate.Rate.Equal(decimal.RequireFromString("0.93")))
	})

	t.Run("base currency is seeded at rate one", func(t *testing.T) {
		rate, err := repo.GetRate(ctx, database.TestBaseCurrency)
		require.NoError(t, err)
		require.True(t, rate.Rate.Equal(decimal.NewFromInt(1)))
	})

	t.Run("loads the whole rate table", func(t *testing.T) {
		require.NoError(t, repo.UpsertRate(ctx, "KZT", decimal.RequireFromString("450")))

		rates, err := repo.LoadRates(ctx)
		require.NoError(t, err)
		require.True(t, rates[database.TestBaseCurrency].Equal(decimal.NewFromInt(1)))
		require.True(t, rates["KZT"].Equal(decimal.RequireFromString("450")))
	})
}
