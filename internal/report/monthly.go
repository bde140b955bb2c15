package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yerzhan/wallet/internal/models"
)

const monthKey = "2006-01"

// AssetHistory is one asset together with its full transaction history,
// the input for balance-over-time series.
type AssetHistory struct {
	Asset        models.Asset
	Transactions []models.Transaction
}

// MonthlyAssetBalance replays an asset's history into end-of-month
// balances keyed by "YYYY-MM". The series opens at the asset's creation
// month with the initial balance and carries a running balance forward
// through each month that saw activity.
func MonthlyAssetBalance(history AssetHistory) map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal)
	for _, t := range history.Transactions {
		key := t.Date.Format(monthKey)
		deltas[key] = deltas[key].Add(t.SignedAmount())
	}

	months := make([]string, 0, len(deltas)+1)
	created := history.Asset.CreatedAt.Format(monthKey)
	months = append(months, created)
	for key := range deltas {
		if key != created {
			months = append(months, key)
		}
	}
	sort.Strings(months)

	balances := make(map[string]decimal.Decimal, len(months))
	running := history.Asset.Initial
	for _, key := range months {
		running = running.Add(deltas[key])
		balances[key] = running
	}
	return balances
}

// FillMissingMonthlyData carries each month's balance forward through the
// gaps up to the given end month, so a quiet asset still charts a flat
// line instead of vanishing. Months past the end month stay in the series,
// so future-dated activity is never dropped.
func FillMissingMonthlyData(balances map[string]decimal.Decimal, until time.Time) map[string]decimal.Decimal {
	if len(balances) == 0 {
		return balances
	}

	months := make([]string, 0, len(balances))
	for key := range balances {
		months = append(months, key)
	}
	sort.Strings(months)

	first, err := time.Parse(monthKey, months[0])
	if err != nil {
		return balances
	}
	last := time.Date(until.Year(), until.Month(), 1, 0, 0, 0, 0, time.UTC)
	if newest, err := time.Parse(monthKey, months[len(months)-1]); err == nil && newest.After(last) {
		last = newest
	}

	filled := make(map[string]decimal.Decimal)
	running := balances[months[0]]
	for cursor := first; !cursor.After(last); cursor = cursor.AddDate(0, 1, 0) {
		key := cursor.Format(monthKey)
		if value, ok := balances[key]; ok {
			running = value
		}
		filled[key] = running
	}
	return filled
}

// MonthPoint is one month of a balance series.
type MonthPoint struct {
	Month   string
	Balance decimal.Decimal
}

// MonthlyCurrencyBalance sums the filled monthly series of every asset in
// one currency into a single sorted timeline.
func MonthlyCurrencyBalance(histories []AssetHistory, until time.Time) []MonthPoint {
	totals := make(map[string]decimal.Decimal)
	for _, history := range histories {
		filled := FillMissingMonthlyData(MonthlyAssetBalance(history), until)
		for key, balance := range filled {
			totals[key] = totals[key].Add(balance)
		}
	}

	points := make([]MonthPoint, 0, len(totals))
	for key, balance := range totals {
		points = append(points, MonthPoint{Month: key, Balance: balance})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Month < points[j].Month })
	return points
}

// LoanProgress reports how much of a loan has been repaid as a percentage
// of its initial principal. Balances are stored negative, so a loan taken
// at -1000 and paid down to -250 is 75% done.
func LoanProgress(loan models.Asset) decimal.Decimal {
	initial := loan.Initial.Abs()
	if initial.IsZero() {
		return decimal.Zero
	}
	remaining := loan.Balance.Abs()
	return initial.Sub(remaining).Div(initial).Mul(decimal.NewFromInt(100)).Round(2)
}

// LoanPaymentSeries replays a loan's payments into outstanding-debt points
// over time: the absolute balance after each transaction, oldest first.
func LoanPaymentSeries(history AssetHistory) []MonthPoint {
	transactions := make([]models.Transaction, len(history.Transactions))
	copy(transactions, history.Transactions)
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].Date.Before(transactions[j].Date)
	})

	points := make([]MonthPoint, 0, len(transactions))
	running := history.Asset.Initial
	for _, t := range transactions {
		running = running.Add(t.SignedAmount())
		points = append(points, MonthPoint{
			Month:   t.Date.Format("2006-01-02"),
			Balance: running.Abs(),
		})
	}
	return points
}
