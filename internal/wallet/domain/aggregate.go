package domain

import (
	"github.com/shopspring/decimal"
)

const monthKeyLayout = "2006-01"

// TypeStats counts and sums transactions of one type.
type TypeStats struct {
	Count int   `json:"count"`
	Total int64 `json:"total"`
}

// MonthStats is the cash flow of one calendar month.
type MonthStats struct {
	Count   int   `json:"count"`
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
}

// TransactionSummary aggregates a transaction history.
type TransactionSummary struct {
	Count         int                           `json:"count"`
	TotalIncome   int64                         `json:"total_income"`
	TotalExpense  int64                         `json:"total_expense"`
	NetAmount     int64                         `json:"net_amount"`
	AverageAmount decimal.Decimal               `json:"average_amount"`
	ByType        map[TransactionType]TypeStats `json:"by_type"`
	ByMonth       map[string]MonthStats         `json:"by_month"`
}

// AggregateTransactions folds txs into totals and per-type and per-month
// breakdowns. Expenses are reported as positive numbers. AverageAmount is the
// mean absolute amount to two places. An empty list yields a zero summary.
func AggregateTransactions(txs []Transaction) TransactionSummary {
	s := TransactionSummary{
		AverageAmount: decimal.Zero,
		ByType:        make(map[TransactionType]TypeStats),
		ByMonth:       make(map[string]MonthStats),
	}
	var absTotal int64
	for _, tx := range txs {
		s.Count++
		s.NetAmount += tx.Amount

		abs := tx.Amount
		if abs < 0 {
			abs = -abs
		}
		absTotal += abs

		byType := s.ByType[tx.Type]
		byType.Count++
		byType.Total += tx.Amount
		s.ByType[tx.Type] = byType

		key := tx.Date.Format(monthKeyLayout)
		month := s.ByMonth[key]
		month.Count++
		if tx.Amount >= 0 {
			s.TotalIncome += tx.Amount
			month.Income += tx.Amount
		} else {
			s.TotalExpense += abs
			month.Expense += abs
		}
		s.ByMonth[key] = month
	}
	if s.Count > 0 {
		s.AverageAmount = decimal.NewFromInt(absTotal).Div(decimal.NewFromInt(int64(s.Count))).Round(2)
	}
	return s
}

// EcoContributionSummary aggregates donations.
type EcoContributionSummary struct {
	Count         int                   `json:"count"`
	TotalAmount   int64                 `json:"total_amount"`
	AverageAmount decimal.Decimal       `json:"average_amount"`
	ByCategory    map[EcoCategory]int64 `json:"by_category"`
	ByMonth       map[string]int64      `json:"by_month"`
	Impact        EcoImpact             `json:"impact"`
}

// AggregateEcoContributions folds contributions into totals and per-category
// and per-month breakdowns, with the combined impact of the total amount.
func AggregateEcoContributions(contributions []EcoContribution) EcoContributionSummary {
	s := EcoContributionSummary{
		AverageAmount: decimal.Zero,
		ByCategory:    make(map[EcoCategory]int64),
		ByMonth:       make(map[string]int64),
	}
	for _, c := range contributions {
		s.Count++
		s.TotalAmount += c.Amount
		s.ByCategory[c.Category] += c.Amount
		s.ByMonth[c.Date.Format(monthKeyLayout)] += c.Amount
	}
	if s.Count > 0 {
		s.AverageAmount = decimal.NewFromInt(s.TotalAmount).Div(decimal.NewFromInt(int64(s.Count))).Round(2)
		s.Impact = CalculateEcoImpact(s.TotalAmount)
	}
	return s
}

// EcoContributions extracts the contributions attached to txs.
func EcoContributions(txs []Transaction) []EcoContribution {
	out := make([]EcoContribution, 0)
	for _, tx := range txs {
		if tx.EcoContribution != nil {
			out = append(out, *tx.EcoContribution)
		}
	}
	return out
}
