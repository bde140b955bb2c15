package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gitlab.com/yerzhan/wallet/internal/models"
)

// CategoryStat is one aggregated row of a category breakdown.
type CategoryStat struct {
	Sum decimal.Decimal
	ID  int64
}

// subtreeIDs collects a category's descendant ids (including itself) from
// the parent-edge list.
func subtreeIDs(categories []models.Category, rootID int64) map[int64]bool {
	children := make(map[int64][]int64)
	for _, cat := range categories {
		if cat.ParentID != nil {
			children[*cat.ParentID] = append(children[*cat.ParentID], cat.ID)
		}
	}

	ids := map[int64]bool{rootID: true}
	queue := []int64{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if !ids[child] {
				ids[child] = true
				queue = append(queue, child)
			}
		}
	}
	return ids
}

// statCandidates returns the categories a breakdown reports on: the direct
// children of parent matching the type (roots when parent is nil), plus the
// parent itself so its own direct transactions are not lost.
func statCandidates(categories []models.Category, typ models.TransactionType, parentID *int64) []models.Category {
	var candidates []models.Category
	for _, cat := range categories {
		switch {
		case parentID == nil:
			if cat.ParentID == nil && cat.Type == typ {
				candidates = append(candidates, cat)
			}
		case cat.ParentID != nil && *cat.ParentID == *parentID && cat.Type == typ:
			candidates = append(candidates, cat)
		case cat.ID == *parentID:
			candidates = append(candidates, cat)
		}
	}
	return candidates
}

// CategoryStats aggregates transaction amounts per category with subtree
// rollup: a category's sum covers its own transactions and every
// descendant's. Categories with nothing to show are omitted; an empty
// result collapses to the "No data available" sentinel row.
func CategoryStats(
	transactions []models.Transaction,
	categories []models.Category,
	typ models.TransactionType,
	parentID *int64,
) map[string]CategoryStat {
	stats := make(map[string]CategoryStat)
	for _, cat := range statCandidates(categories, typ, parentID) {
		subtree := subtreeIDs(categories, cat.ID)
		sum := decimal.Zero
		matched := false
		for _, t := range transactions {
			if t.CategoryID != nil && subtree[*t.CategoryID] {
				sum = sum.Add(t.Amount)
				matched = true
			}
		}
		if !matched || sum.IsZero() {
			continue
		}
		stats[cat.Name] = CategoryStat{Sum: sum, ID: cat.ID}
	}

	if len(stats) == 0 {
		stats[models.NoDataLabel] = CategoryStat{Sum: decimal.Zero, ID: 0}
	}
	return stats
}

// MultiCurrencyCategoryStats is CategoryStats with every transaction amount
// converted from its asset's currency into the target currency before
// summing, so accounts of different currencies mix in one breakdown.
func MultiCurrencyCategoryStats(
	transactions []models.Transaction,
	categories []models.Category,
	typ models.TransactionType,
	parentID *int64,
	rates Rates,
	targetCurrency string,
) (map[string]CategoryStat, error) {
	converted := make([]models.Transaction, 0, len(transactions))
	for _, t := range transactions {
		amount, err := rates.Convert(t.Amount, t.CurrencyCode, targetCurrency)
		if err != nil {
			return nil, fmt.Errorf("converting transaction %d: %w", t.ID, err)
		}
		t.Amount = amount
		t.CurrencyCode = targetCurrency
		converted = append(converted, t)
	}
	return CategoryStats(converted, categories, typ, parentID), nil
}

// InsOutsRow is one currency's income/expense/balance line of the report.
type InsOutsRow struct {
	Currency string
	Expense  decimal.Decimal
	Income   decimal.Decimal
	Balance  decimal.Decimal
}

// InsOutsReport totals income and expense per currency across the given
// transactions and produces one converted grand-total row in the target
// currency. Currencies with no activity are omitted.
func InsOutsReport(
	transactions []models.Transaction,
	rates Rates,
	targetCurrency string,
) ([]InsOutsRow, InsOutsRow, error) {
	byCurrency := make(map[string]*InsOutsRow)
	for _, t := range transactions {
		row, ok := byCurrency[t.CurrencyCode]
		if !ok {
			row = &InsOutsRow{Currency: t.CurrencyCode}
			byCurrency[t.CurrencyCode] = row
		}
		switch t.Type {
		case models.Expense:
			row.Expense = row.Expense.Add(t.Amount)
		case models.Income:
			row.Income = row.Income.Add(t.Amount)
		}
	}

	codes := make([]string, 0, len(byCurrency))
	for code := range byCurrency {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var report []InsOutsRow
	total := InsOutsRow{Currency: targetCurrency}
	for _, code := range codes {
		row := byCurrency[code]
		row.Balance = row.Income.Sub(row.Expense)
		report = append(report, *row)

		rate, err := rates.ConversionRate(code, targetCurrency)
		if err != nil {
			return nil, InsOutsRow{}, err
		}
		total.Expense = total.Expense.Add(row.Expense.Mul(rate).Round(2))
		total.Income = total.Income.Add(row.Income.Mul(rate).Round(2))
		total.Balance = total.Balance.Add(row.Balance.Mul(rate).Round(2))
	}

	return report, total, nil
}

// ComparisonStats collapses expense and income breakdowns into the two
// headline totals.
func ComparisonStats(expenseStats, incomeStats map[string]CategoryStat) map[string]decimal.Decimal {
	comparison := map[string]decimal.Decimal{
		"Expense": decimal.Zero,
		"Income":  decimal.Zero,
	}
	for _, stat := range expenseStats {
		comparison["Expense"] = comparison["Expense"].Add(stat.Sum)
	}
	for _, stat := range incomeStats {
		comparison["Income"] = comparison["Income"].Add(stat.Sum)
	}
	return comparison
}

// PeriodStats summarizes a time window: net change and its share of the
// balance at the window's start.
type PeriodStats struct {
	Diff decimal.Decimal
	Rate string
}

// Stats computes the income/expense difference over the given transactions
// and relates it to the asset balance the window ended with.
func Stats(transactions []models.Transaction, balance decimal.Decimal) PeriodStats {
	diff := decimal.Zero
	for _, t := range transactions {
		diff = diff.Add(t.SignedAmount())
	}

	stats := PeriodStats{Diff: diff}
	opening := balance.Sub(diff)
	if !opening.IsZero() {
		stats.Rate = diff.Div(opening).Mul(decimal.NewFromInt(100)).Round(2).String() + "%"
	}
	return stats
}
