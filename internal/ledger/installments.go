package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yerzhan/wallet/internal/models"
)

// dayOfMonth builds a date in the given month, clamping an out-of-range day
// to the month's last day (payment day 31 in February bills on the 28th/29th).
func dayOfMonth(year int, month time.Month, day int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NextPaymentDate returns the first billing cutoff strictly after the given
// date for a card billed on paymentDay.
func NextPaymentDate(paymentDay int, after time.Time) time.Time {
	candidate := dayOfMonth(after.Year(), after.Month(), paymentDay)
	if candidate.After(after) {
		return candidate
	}
	next := time.Date(after.Year(), after.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return dayOfMonth(next.Year(), next.Month(), paymentDay)
}

// PreviousPaymentDate returns the billing cutoff one cycle before the given
// payment date.
func PreviousPaymentDate(paymentDay int, from time.Time) time.Time {
	prev := time.Date(from.Year(), from.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	return dayOfMonth(prev.Year(), prev.Month(), paymentDay)
}

// InstallmentDueDate derives the final due date of a multi-period charge:
// the billing cutoff after the purchase, moved forward by the number of
// installment cycles, snapped to the card's payment day.
//
// payment day 5, purchase 1999-12-13, 5 installments -> 2000-05-05.
func InstallmentDueDate(purchaseDate time.Time, installments, paymentDay int) time.Time {
	next := NextPaymentDate(paymentDay, purchaseDate)
	firstOfMonth := time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, time.UTC)
	later := firstOfMonth.AddDate(0, installments-1, 0)
	return NextPaymentDate(paymentDay, later)
}

// PaymentDue is one upcoming billing-cycle total of a credit card.
type PaymentDue struct {
	Date   string
	Amount decimal.Decimal
}

// PaymentPlan buckets a card's outstanding charges by due date. A charge
// with n installments contributes amount/n to each of its remaining cycles,
// walking backward from its final due date down to the card's next cutoff;
// single-period charges land on their due date whole. The plan is sorted
// chronologically with dates serialized as YYYY-MM-DD.
func PaymentPlan(card *models.Asset, charges []models.Transaction, today time.Time) []PaymentDue {
	nextPayment := NextPaymentDate(card.PaymentDay, today)

	plan := make(map[string]decimal.Decimal)
	for _, charge := range charges {
		if charge.DueDate == nil {
			continue
		}
		if charge.Installments != nil && *charge.Installments > 0 {
			per := charge.Amount.Div(decimal.NewFromInt(int64(*charge.Installments))).Round(2)
			current := *charge.DueDate
			for !current.Before(nextPayment) {
				key := current.Format("2006-01-02")
				plan[key] = plan[key].Add(per)
				current = PreviousPaymentDate(card.PaymentDay, current)
			}
		} else {
			key := charge.DueDate.Format("2006-01-02")
			plan[key] = plan[key].Add(charge.Amount)
		}
	}

	dues := make([]PaymentDue, 0, len(plan))
	for date, amount := range plan {
		dues = append(dues, PaymentDue{Date: date, Amount: amount})
	}
	sort.Slice(dues, func(i, j int) bool { return dues[i].Date < dues[j].Date })
	return dues
}
