package devserver

import (
	"fmt"
	"math"
	"sort"
	"time"

	"finstudent/internal/core"
	"finstudent/internal/currency"
)

// trendDays is the length of the dashboard spending trend.
const trendDays = 7

// periodStart returns the first day included in period p ending today.
func periodStart(p core.Period, today core.Date) core.Date {
	y, m, _ := today.Date()
	switch p {
	case core.PeriodWeek:
		return core.Date{Time: today.AddDate(0, 0, -6)}
	case core.PeriodQuarter:
		q := (int(m)-1)/3*3 + 1
		return core.NewDate(y, q, 1)
	case core.PeriodYear:
		return core.NewDate(y, 1, 1)
	default:
		return core.NewDate(y, int(m), 1)
	}
}

func monthRange(today core.Date) TransactionQuery {
	return TransactionQuery{From: periodStart(core.PeriodMonth, today), To: today}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// spendingByCategory sums expenses per category.
func spendingByCategory(txs []core.Transaction) map[string]core.Money {
	out := make(map[string]core.Money)
	for _, tx := range txs {
		if tx.Type == core.Expense {
			out[tx.Category] = out[tx.Category].Add(tx.Amount)
		}
	}
	return out
}

// spendingVsBudget compares this month's spending with every budget.
func spendingVsBudget(budgets []core.Budget, monthTxs []core.Transaction) []core.SpendingVsBudget {
	spent := spendingByCategory(monthTxs)
	out := make([]core.SpendingVsBudget, 0, len(budgets))
	for _, b := range budgets {
		row := core.SpendingVsBudget{
			Category:    b.Category,
			Spending:    spent[b.Category],
			BudgetLimit: b.LimitAmount,
		}
		if b.LimitAmount.Cents > 0 {
			row.Percentage = round1(core.Percentage(row.Spending, row.BudgetLimit))
		}
		row.OverBudget = row.Spending.Cents > row.BudgetLimit.Cents
		out = append(out, row)
	}
	return out
}

func overview(all, month []core.Transaction, budgets []core.Budget) core.Overview {
	totals := core.SumTransactions(all)
	return core.Overview{
		TotalExpenses:     totals.Expenses,
		TotalIncome:       totals.Income,
		NetBalance:        totals.Net,
		ThisMonthSpending: core.SumTransactions(month).Expenses,
		BudgetProgress:    spendingVsBudget(budgets, month),
	}
}

// spendingBreakdown lists this month's expenses per category, largest first.
func spendingBreakdown(month []core.Transaction, budgets []core.Budget) []core.CategorySpending {
	spent := spendingByCategory(month)
	var total core.Money
	for _, m := range spent {
		total = total.Add(m)
	}
	limits := make(map[string]core.Money, len(budgets))
	for _, b := range budgets {
		limits[b.Category] = b.LimitAmount
	}

	out := make([]core.CategorySpending, 0, len(spent))
	for cat, amt := range spent {
		row := core.CategorySpending{
			Category:   cat,
			Amount:     amt,
			Percentage: round1(core.Percentage(amt, total)),
		}
		if l, ok := limits[cat]; ok {
			row.BudgetLimit = &l
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// dailySpending returns one point per day from from to to inclusive.
func dailySpending(txs []core.Transaction, from, to core.Date) []core.TrendPoint {
	byDay := make(map[string]core.Money)
	for _, tx := range txs {
		if tx.Type == core.Expense {
			byDay[tx.Date.String()] = byDay[tx.Date.String()].Add(tx.Amount)
		}
	}
	var out []core.TrendPoint
	for d := from.Time; !d.After(to.Time); d = d.AddDate(0, 0, 1) {
		key := d.Format(core.DateLayout)
		out = append(out, core.TrendPoint{Date: key, Amount: byDay[key]})
	}
	return out
}

// monthlySpending returns one point per month ("2006-01") from from to to.
func monthlySpending(txs []core.Transaction, from, to core.Date) []core.TrendPoint {
	const layout = "2006-01"
	byMonth := make(map[string]core.Money)
	for _, tx := range txs {
		if tx.Type == core.Expense {
			k := tx.Date.Format(layout)
			byMonth[k] = byMonth[k].Add(tx.Amount)
		}
	}
	var out []core.TrendPoint
	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	for d := start; !d.After(to.Time); d = d.AddDate(0, 1, 0) {
		k := d.Format(layout)
		out = append(out, core.TrendPoint{Date: k, Amount: byMonth[k]})
	}
	return out
}

func spendingOverTime(p core.Period, txs []core.Transaction, today core.Date) []core.TrendPoint {
	from := periodStart(p, today)
	if p == core.PeriodQuarter || p == core.PeriodYear {
		return monthlySpending(txs, from, today)
	}
	return dailySpending(txs, from, today)
}

func reportOverview(p core.Period, txs []core.Transaction) core.ReportOverview {
	totals := core.SumTransactions(txs)
	o := core.ReportOverview{
		Period:           p,
		TotalIncome:      totals.Income,
		TotalExpenses:    totals.Expenses,
		NetSavings:       totals.Net,
		TransactionCount: totals.Count,
	}
	if totals.Income.Cents > 0 {
		o.SavingsRate = round1(core.Percentage(totals.Net, totals.Income))
	}
	return o
}

// reportInsights derives advice for the period, most severe first.
func reportInsights(txs []core.Transaction, vsBudget []core.SpendingVsBudget) []core.Insight {
	format := func(m core.Money) string { return currency.Format(m, currency.DefaultCode) }
	totals := core.SumTransactions(txs)
	var out []core.Insight

	for _, row := range vsBudget {
		if row.OverBudget {
			out = append(out, core.Insight{
				Type:    core.InsightDanger,
				Message: fmt.Sprintf("Over budget on %s by %s", core.CategoryName(row.Category), format(row.Spending.Sub(row.BudgetLimit))),
			})
		}
	}

	switch {
	case totals.Count == 0:
		out = append(out, core.Insight{Type: core.InsightInfo, Message: "No transactions recorded in this period"})
	case totals.Net.IsNegative():
		out = append(out, core.Insight{
			Type:    core.InsightWarning,
			Message: fmt.Sprintf("You spent %s more than you earned", format(totals.Net.Abs())),
		})
	case totals.Income.Cents > 0 && core.Percentage(totals.Net, totals.Income) >= 20:
		out = append(out, core.Insight{
			Type:    core.InsightSuccess,
			Message: fmt.Sprintf("You saved %.0f%% of your income", core.Percentage(totals.Net, totals.Income)),
		})
	}

	if top := topCategory(txs); top != "" && totals.Expenses.Cents > 0 {
		share := core.Percentage(spendingByCategory(txs)[top], totals.Expenses)
		out = append(out, core.Insight{
			Type:    core.InsightInfo,
			Message: fmt.Sprintf("%s is your largest expense (%.0f%% of spending)", core.CategoryName(top), share),
		})
	}
	return out
}

func topCategory(txs []core.Transaction) string {
	var (
		top  string
		best int64
	)
	for cat, m := range spendingByCategory(txs) {
		if m.Cents > best || (m.Cents == best && cat < top) {
			top, best = cat, m.Cents
		}
	}
	return top
}
