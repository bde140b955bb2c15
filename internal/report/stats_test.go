package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yerzhan/wallet/internal/models"
)

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// A small taxonomy: Food (1) with children Groceries (2) and Dining Out (3),
// plus a root income category Salary (10).
func testCategories() []models.Category {
	return []models.Category{
		{ID: 1, Name: "Food", Type: models.Expense},
		{ID: 2, Name: "Groceries", ParentID: ptr(int64(1)), Type: models.Expense},
		{ID: 3, Name: "Dining Out", ParentID: ptr(int64(1)), Type: models.Expense},
		{ID: 10, Name: "Salary", Type: models.Income},
	}
}

func TestCategoryStats(t *testing.T) {
	t.Parallel()

	categories := testCategories()

	t.Run("root level rolls subtrees up", func(t *testing.T) {
		transactions := []models.Transaction{
			{Amount: dec("50"), CategoryID: ptr(int64(2)), Type: models.Expense},
			{Amount: dec("30"), CategoryID: ptr(int64(3)), Type: models.Expense},
			{Amount: dec("20"), CategoryID: ptr(int64(1)), Type: models.Expense},
		}

		stats := CategoryStats(transactions, categories, models.Expense, nil)
		require.Len(t, stats, 1)
		require.True(t, stats["Food"].Sum.Equal(dec("100")))
		require.Equal(t, int64(1), stats["Food"].ID)
	})

	t.Run("drill-down shows children and the parent's own spend", func(t *testing.T) {
		transactions := []models.Transaction{
			{Amount: dec("50"), CategoryID: ptr(int64(2)), Type: models.Expense},
			{Amount: dec("30"), CategoryID: ptr(int64(3)), Type: models.Expense},
			{Amount: dec("20"), CategoryID: ptr(int64(1)), Type: models.Expense},
		}

		stats := CategoryStats(transactions, categories, models.Expense, ptr(int64(1)))
		require.True(t, stats["Groceries"].Sum.Equal(dec("50")))
		require.True(t, stats["Dining Out"].Sum.Equal(dec("30")))
		// The parent row carries its whole subtree, including direct spend.
		require.True(t, stats["Food"].Sum.Equal(dec("100")))
	})

	t.Run("empty categories are omitted", func(t *testing.T) {
		transactions := []models.Transaction{
			{Amount: dec("50"), CategoryID: ptr(int64(2)), Type: models.Expense},
		}

		stats := CategoryStats(transactions, categories, models.Expense, ptr(int64(1)))
		require.Contains(t, stats, "Groceries")
		require.NotContains(t, stats, "Dining Out")
	})

	t.Run("uncategorized transactions are ignored", func(t *testing.T) {
		transactions := []models.Transaction{
			{Amount: dec("50"), Type: models.Expense},
		}

		stats := CategoryStats(transactions, categories, models.Expense, nil)
		require.Len(t, stats, 1)
		require.Contains(t, stats, models.NoDataLabel)
	})

	t.Run("no matches yields the sentinel row", func(t *testing.T) {
		stats := CategoryStats(nil, categories, models.Income, nil)
		require.Len(t, stats, 1)
		require.True(t, stats[models.NoDataLabel].Sum.IsZero())
	})
}

func TestMultiCurrencyCategoryStats(t *testing.T) {
	t.Parallel()

	categories := testCategories()
	rates := Rates{
		"USD": decimal.NewFromInt(1),
		"EUR": dec("0.5"),
	}
	transactions := []models.Transaction{
		{Amount: dec("50"), CategoryID: ptr(int64(2)), Type: models.Expense, CurrencyCode: "USD"},
		{Amount: dec("25"), CategoryID: ptr(int64(3)), Type: models.Expense, CurrencyCode: "EUR"},
	}

	t.Run("converts before summing", func(t *testing.T) {
		stats, err := MultiCurrencyCategoryStats(transactions, categories, models.Expense, nil, rates, "USD")
		require.NoError(t, err)
		// 50 USD + 25 EUR at 0.5 EUR/USD = 50 + 50.
		require.True(t, stats["Food"].Sum.Equal(dec("100")))
	})

	t.Run("missing rate surfaces as error", func(t *testing.T) {
		broken := []models.Transaction{
			{Amount: dec("10"), CategoryID: ptr(int64(2)), Type: models.Expense, CurrencyCode: "GBP"},
		}
		_, err := MultiCurrencyCategoryStats(broken, categories, models.Expense, nil, rates, "USD")
		require.Error(t, err)
	})
}

func TestInsOutsReport(t *testing.T) {
	t.Parallel()

	rates := Rates{
		"USD": decimal.NewFromInt(1),
		"EUR": dec("0.5"),
	}
	transactions := []models.Transaction{
		{Amount: dec("100"), Type: models.Expense, CurrencyCode: "USD"},
		{Amount: dec("300"), Type: models.Income, CurrencyCode: "USD"},
		{Amount: dec("50"), Type: models.Expense, CurrencyCode: "EUR"},
	}

	report, total, err := InsOutsReport(transactions, rates, "USD")
	require.NoError(t, err)
	require.Len(t, report, 2)

	require.Equal(t, "EUR", report[0].Currency)
	require.True(t, report[0].Expense.Equal(dec("50")))
	require.True(t, report[0].Balance.Equal(dec("-50")))

	require.Equal(t, "USD", report[1].Currency)
	require.True(t, report[1].Income.Equal(dec("300")))
	require.True(t, report[1].Balance.Equal(dec("200")))

	// 50 EUR at 0.5 EUR/USD converts to 100 USD.
	require.Equal(t, "USD", total.Currency)
	require.True(t, total.Expense.Equal(dec("200")))
	require.True(t, total.Income.Equal(dec("300")))
	require.True(t, total.Balance.Equal(dec("100")))
}

func TestComparisonStats(t *testing.T) {
	t.Parallel()

	expense := map[string]CategoryStat{
		"Food":    {Sum: dec("100")},
		"Housing": {Sum: dec("1200")},
	}
	income := map[string]CategoryStat{
		"Salary": {Sum: dec("4000")},
	}

	got := ComparisonStats(expense, income)
	require.True(t, got["Expense"].Equal(dec("1300")))
	require.True(t, got["Income"].Equal(dec("4000")))
}

func TestStats(t *testing.T) {
	t.Parallel()

	t.Run("positive growth", func(t *testing.T) {
		transactions := []models.Transaction{
			{Amount: dec("300"), Type: models.Income},
			{Amount: dec("100"), Type: models.Expense},
		}

		got := Stats(transactions, dec("1200"))
		require.True(t, got.Diff.Equal(dec("200")))
		require.Equal(t, "20%", got.Rate)
	})

	t.Run("zero opening balance yields no rate", func(t *testing.T) {
		transactions := []models.Transaction{
			{Amount: dec("100"), Type: models.Income},
		}

		got := Stats(transactions, dec("100"))
		require.True(t, got.Diff.Equal(dec("100")))
		require.Empty(t, got.Rate)
	})
}
