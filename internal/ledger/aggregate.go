package ledger

import (
	"github.com/NicolasBispo/personal-finances-app/internal/models"
)

// SumByType adds up AmountCents for records of the given type.
func SumByType(txs []models.Transaction, t models.TransactionType) int64 {
	var sum int64
	for i := range txs {
		if txs[i].Type == t {
			sum += txs[i].AmountCents
		}
	}
	return sum
}

// Progress returns how far through its set an installment is, in percent,
// bounded to [0, 100]. Records without installment fields report 0.
func Progress(t *models.Transaction) float64 {
	if t.InstallmentNumber == nil || t.TotalInstallments == nil || *t.TotalInstallments <= 0 {
		return 0
	}
	p := float64(*t.InstallmentNumber) / float64(*t.TotalInstallments) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// TotalAmount is the full committed amount: installments multiply the
// per-part amount by the part count, everything else is the amount itself.
func TotalAmount(t *models.Transaction) int64 {
	if t.Type == models.TypeInstallment && t.TotalInstallments != nil {
		return int64(*t.TotalInstallments) * t.AmountCents
	}
	return t.AmountCents
}

// RemainingInstallments counts the parts still ahead of this one, floored
// at zero.
func RemainingInstallments(t *models.Transaction) int {
	if t.InstallmentNumber == nil || t.TotalInstallments == nil {
		return 0
	}
	r := *t.TotalInstallments - *t.InstallmentNumber
	if r < 0 {
		return 0
	}
	return r
}

// DailyTotal aggregates one day of a monthly summary.
type DailyTotal struct {
	Date         string `json:"date"` // YYYY-MM-DD
	IncomeCents  int64  `json:"incomeInCents"`
	ExpenseCents int64  `json:"expenseInCents"`
	BalanceCents int64  `json:"balanceInCents"`
}

// MonthlySummary is the aggregate view a planner month window displays.
type MonthlySummary struct {
	Month        string       `json:"month"` // YYYY-MM
	IncomeCents  int64        `json:"totalIncomeInCents"`
	ExpenseCents int64        `json:"totalExpenseInCents"`
	BalanceCents int64        `json:"balanceInCents"`
	Daily        []DailyTotal `json:"daily"`
}

// Summarize groups the window's records into per-day and overall totals.
// INCOME counts as income; EXPENSE and INSTALLMENT children count as
// expense. Transfers, recurring templates and installment anchors carry no
// balance weight of their own.
func Summarize(month string, txs []models.Transaction) MonthlySummary {
	sum := MonthlySummary{Month: month}
	byDay := make(map[string]*DailyTotal)
	var order []string

	for i := range txs {
		t := &txs[i]

		var income, expense int64
		switch {
		case t.Type == models.TypeIncome:
			income = t.AmountCents
		case t.Type == models.TypeExpense:
			expense = t.AmountCents
		case t.Type == models.TypeInstallment && t.InstallmentNumber != nil:
			expense = t.AmountCents
		default:
			continue
		}

		key := t.Date.UTC().Format(DateLayout)
		d, ok := byDay[key]
		if !ok {
			d = &DailyTotal{Date: key}
			byDay[key] = d
			order = append(order, key)
		}
		d.IncomeCents += income
		d.ExpenseCents += expense
		sum.IncomeCents += income
		sum.ExpenseCents += expense
	}

	for _, key := range order {
		d := byDay[key]
		d.BalanceCents = d.IncomeCents - d.ExpenseCents
		sum.Daily = append(sum.Daily, *d)
	}
	sum.BalanceCents = sum.IncomeCents - sum.ExpenseCents
	return sum
}
