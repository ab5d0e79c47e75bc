package core

import (
	"fmt"
	"math"
)

// Overview is the /dashboard/overview/ payload.
type Overview struct {
	TotalExpenses     Money              `json:"total_expenses"`
	TotalIncome       Money              `json:"total_income"`
	NetBalance        Money              `json:"net_balance"`
	ThisMonthSpending Money              `json:"this_month_spending"`
	BudgetProgress    []SpendingVsBudget `json:"budget_progress"`
}

// MonthlyBudget is the dashboard's "spent / limit" card.
type MonthlyBudget struct {
	Limit     Money
	Spent     Money
	Remaining Money
	Pct       int
	Status    ProgressStatus
}

// MonthlyBudget derives the monthly budget card from the overview.
func (o Overview) MonthlyBudget() MonthlyBudget {
	var mb MonthlyBudget
	for _, p := range o.BudgetProgress {
		mb.Limit = mb.Limit.Add(p.BudgetLimit)
	}
	mb.Spent = o.ThisMonthSpending
	mb.Remaining = mb.Limit.Sub(mb.Spent)
	if mb.Limit.Cents > 0 {
		mb.Pct = int(math.Round(Percentage(mb.Spent, mb.Limit)))
	}
	mb.Status = StatusForPercent(float64(mb.Pct))
	return mb
}

// CategorySpending is one row of /dashboard/spending_breakdown/.
type CategorySpending struct {
	Category    string  `json:"category"`
	Amount      Money   `json:"amount"`
	Percentage  float64 `json:"percentage"`
	BudgetLimit *Money  `json:"budget_limit"`
}

// FillShares computes each row's share of the total when the server sent no
// percentages at all.
func FillShares(rows []CategorySpending) []CategorySpending {
	var total Money
	for _, r := range rows {
		if r.Percentage != 0 {
			return rows
		}
		total = total.Add(r.Amount)
	}
	out := make([]CategorySpending, len(rows))
	for i, r := range rows {
		r.Percentage = math.Round(Percentage(r.Amount, total)*10) / 10
		out[i] = r
	}
	return out
}

// TrendPoint is one sample of a spending series.
type TrendPoint struct {
	Date   string `json:"date"`
	Amount Money  `json:"amount"`
}

// Period selects the time window of report endpoints.
type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// ParsePeriod validates a period name; empty means month.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodMonth, nil
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return p, nil
	default:
		return "", fieldError("period", fmt.Errorf("unknown period %q", s))
	}
}

// ReportOverview is the /reports/overview/ payload.
type ReportOverview struct {
	Period           Period  `json:"period"`
	TotalIncome      Money   `json:"total_income"`
	TotalExpenses    Money   `json:"total_expenses"`
	NetSavings       Money   `json:"net_savings"`
	SavingsRate      float64 `json:"savings_rate"`
	TransactionCount int     `json:"transaction_count"`
}
