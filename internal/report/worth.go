package report

import (
	"sort"

	"github.com/shopspring/decimal"
	"gitlab.com/yerzhan/wallet/internal/models"
)

// NetWorthByCurrency sums active asset balances per currency. Debt assets
// carry negative balances, so loans and credit cards subtract naturally.
func NetWorthByCurrency(assets []models.Asset) map[string]decimal.Decimal {
	worth := make(map[string]decimal.Decimal)
	for _, asset := range assets {
		if !asset.IsActive {
			continue
		}
		worth[asset.CurrencyCode] = worth[asset.CurrencyCode].Add(asset.Balance)
	}
	return worth
}

// CurrencyDetail breaks one currency's net worth down per asset.
type CurrencyDetail struct {
	Assets map[string]decimal.Decimal
	Total  decimal.Decimal
}

// CurrencyDetails maps each currency to its per-asset balances and total.
func CurrencyDetails(assets []models.Asset) map[string]CurrencyDetail {
	details := make(map[string]CurrencyDetail)
	for _, asset := range assets {
		if !asset.IsActive {
			continue
		}
		detail, ok := details[asset.CurrencyCode]
		if !ok {
			detail = CurrencyDetail{Assets: make(map[string]decimal.Decimal)}
		}
		detail.Assets[asset.Name] = detail.Assets[asset.Name].Add(asset.Balance)
		detail.Total = detail.Total.Add(asset.Balance)
		details[asset.CurrencyCode] = detail
	}
	return details
}

// UserNetWorths groups assets by owner and computes each owner's
// per-currency net worth.
func UserNetWorths(assets []models.Asset) map[int64]map[string]decimal.Decimal {
	byUser := make(map[int64][]models.Asset)
	for _, asset := range assets {
		byUser[asset.UserID] = append(byUser[asset.UserID], asset)
	}

	worths := make(map[int64]map[string]decimal.Decimal)
	for userID, userAssets := range byUser {
		worths[userID] = NetWorthByCurrency(userAssets)
	}
	return worths
}

// GrandTotal converts a per-currency net worth into one figure in the
// target currency, rounded to cents.
func GrandTotal(worth map[string]decimal.Decimal, rates Rates, targetCurrency string) (decimal.Decimal, error) {
	codes := make([]string, 0, len(worth))
	for code := range worth {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	total := decimal.Zero
	for _, code := range codes {
		converted, err := rates.Convert(worth[code], code, targetCurrency)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(converted)
	}
	return total.Round(2), nil
}

// UsersGrandTotal totals every user's converted net worth in one pass.
func UsersGrandTotal(assets []models.Asset, rates Rates, targetCurrency string) (map[int64]decimal.Decimal, error) {
	totals := make(map[int64]decimal.Decimal)
	for userID, worth := range UserNetWorths(assets) {
		total, err := GrandTotal(worth, rates, targetCurrency)
		if err != nil {
			return nil, err
		}
		totals[userID] = total
	}
	return totals, nil
}

// WorthStats pairs the per-currency breakdown with the converted grand
// total for one user's active assets.
type WorthStats struct {
	ByCurrency map[string]CurrencyDetail
	Total      decimal.Decimal
	Currency   string
}

// ComputeWorthStats assembles the net worth view for a set of assets.
func ComputeWorthStats(assets []models.Asset, rates Rates, targetCurrency string) (WorthStats, error) {
	total, err := GrandTotal(NetWorthByCurrency(assets), rates, targetCurrency)
	if err != nil {
		return WorthStats{}, err
	}
	return WorthStats{
		ByCurrency: CurrencyDetails(assets),
		Total:      total,
		Currency:   targetCurrency,
	}, nil
}
