package core

import (
	"math"
	"strconv"
)

// SpendingVsBudget is one row of /budgets/spending_vs_budget/.
type SpendingVsBudget struct {
	Category    string  `json:"category"`
	Spending    Money   `json:"spending"`
	BudgetLimit Money   `json:"budget_limit"`
	Percentage  float64 `json:"percentage"`
	OverBudget  bool    `json:"over_budget"`
}

// Normalize fills percentage and over-budget flags the server left out.
func (s SpendingVsBudget) Normalize() SpendingVsBudget {
	if s.Percentage == 0 && s.BudgetLimit.Cents > 0 {
		s.Percentage = math.Round(Percentage(s.Spending, s.BudgetLimit)*10) / 10
	}
	if s.BudgetLimit.Cents > 0 && s.Spending.Cents > s.BudgetLimit.Cents {
		s.OverBudget = true
	}
	return s
}

type InsightType string

const (
	InsightDanger  InsightType = "danger"
	InsightWarning InsightType = "warning"
	InsightSuccess InsightType = "success"
	InsightInfo    InsightType = "info"
)

type Insight struct {
	Type    InsightType `json:"type"`
	Message string      `json:"message"`
}

type ProgressStatus string

const (
	ProgressOK      ProgressStatus = "ok"
	ProgressWarning ProgressStatus = "warning"
	ProgressOver    ProgressStatus = "over"
)

// Thresholds shared by budget progress bars and insights.
const (
	WarningPercent = 75
	MaxInsights    = 3
)

// StatusForPercent maps a usage percentage to a progress status.
func StatusForPercent(pct float64) ProgressStatus {
	switch {
	case pct > 100:
		return ProgressOver
	case pct > WarningPercent:
		return ProgressWarning
	default:
		return ProgressOK
	}
}

// MoneyFormatter renders an amount for display, e.g. currency.Preferences.Format.
type MoneyFormatter func(Money) string

// BudgetSummary holds the derived metrics of the Budgets page.
type BudgetSummary struct {
	TotalLimit Money
	TotalSpent Money
	Remaining  Money
	OverallPct int
	Status     ProgressStatus
	Insights   []Insight
}

// SummarizeBudgets reduces the budget list and spending rows into totals and
// at most MaxInsights insights.
func SummarizeBudgets(budgets []Budget, spending []SpendingVsBudget, format MoneyFormatter) BudgetSummary {
	var s BudgetSummary
	for _, b := range budgets {
		s.TotalLimit = s.TotalLimit.Add(b.LimitAmount)
	}
	for _, row := range spending {
		s.TotalSpent = s.TotalSpent.Add(row.Spending)
	}
	s.Remaining = s.TotalLimit.Sub(s.TotalSpent)
	if s.TotalLimit.Cents > 0 {
		s.OverallPct = int(math.Round(Percentage(s.TotalSpent, s.TotalLimit)))
	}
	s.Status = StatusForPercent(float64(s.OverallPct))
	s.Insights = budgetInsights(s, spending, format)
	return s
}

func budgetInsights(s BudgetSummary, spending []SpendingVsBudget, format MoneyFormatter) []Insight {
	var insights []Insight
	for _, row := range spending {
		row = row.Normalize()
		name := CategoryName(row.Category)
		switch {
		case row.OverBudget:
			insights = append(insights, Insight{
				Type:    InsightDanger,
				Message: "Over budget on " + name + " by " + format(row.BudgetLimit.Sub(row.Spending).Abs()),
			})
		case row.Percentage > WarningPercent:
			insights = append(insights, Insight{
				Type:    InsightWarning,
				Message: name + " is at " + strconv.FormatFloat(row.Percentage, 'f', -1, 64) + "% of budget",
			})
		}
	}

	// 3/4 of the total limit, compared in cents
	if s.TotalSpent.Cents*100 < s.TotalLimit.Cents*WarningPercent {
		insights = append(insights, Insight{
			Type:    InsightSuccess,
			Message: "Great job! " + format(s.Remaining) + " remaining in total budget",
		})
	}

	if len(insights) > MaxInsights {
		insights = insights[:MaxInsights]
	}
	return insights
}

// TransactionTotals is the income/expense reduction of a transaction list.
type TransactionTotals struct {
	Count    int
	Income   Money
	Expenses Money
	Net      Money
}

func SumTransactions(txs []Transaction) TransactionTotals {
	var t TransactionTotals
	for _, tx := range txs {
		t.Count++
		switch tx.Type {
		case Income:
			t.Income = t.Income.Add(tx.Amount)
		case Expense:
			t.Expenses = t.Expenses.Add(tx.Amount)
		}
	}
	t.Net = t.Income.Sub(t.Expenses)
	return t
}
