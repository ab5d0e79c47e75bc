package pages

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"finstudent/internal/core"
)

type BudgetsPage struct {
	source   BudgetSource
	currency Currency
	format   core.MoneyFormatter

	Budgets  []core.Budget
	Spending []core.SpendingVsBudget
	Summary  core.BudgetSummary
	Notice   string
	Error    string
}

func NewBudgetsPage(source BudgetSource, currency Currency) *BudgetsPage {
	return &BudgetsPage{source: source, currency: currency}
}

// Load fetches budgets and this month's spending and derives the summary.
// Spending is optional: when it fails the budgets still show, unspent.
func (p *BudgetsPage) Load(ctx context.Context) error {
	p.format = p.currency.Formatter(ctx)

	budgets, err := p.source.List(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		p.Error = errorText(err)
		return err
	}
	spending, spendErr := p.source.SpendingVsBudget(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	p.Error = ""
	if spendErr != nil {
		p.Error = errorText(spendErr)
		spending = nil
	}
	p.Budgets = budgets
	p.Spending = spending
	p.Summary = core.SummarizeBudgets(budgets, spending, p.format)
	return nil
}

func (p *BudgetsPage) Add(ctx context.Context, form core.BudgetForm) error {
	b, err := form.Parse()
	if err != nil {
		p.Error = errorText(err)
		return err
	}
	created, err := p.source.Create(ctx, b)
	if err != nil {
		p.Error = errorText(err)
		return err
	}
	return p.reloadWith(ctx, "Budget added for "+core.CategoryName(created.Category))
}

func (p *BudgetsPage) Edit(ctx context.Context, id int64, form core.BudgetForm) error {
	b, err := form.Parse()
	if err != nil {
		p.Error = errorText(err)
		return err
	}
	if _, err := p.source.Update(ctx, id, b); err != nil {
		p.Error = errorText(err)
		return err
	}
	return p.reloadWith(ctx, fmt.Sprintf("Budget %d updated", id))
}

func (p *BudgetsPage) Delete(ctx context.Context, id int64) error {
	if err := p.source.Delete(ctx, id); err != nil {
		p.Error = errorText(err)
		return err
	}
	return p.reloadWith(ctx, fmt.Sprintf("Budget %d deleted", id))
}

func (p *BudgetsPage) reloadWith(ctx context.Context, notice string) error {
	if err := p.Load(ctx); err != nil {
		return err
	}
	p.Notice = notice
	return nil
}

// spentFor returns the spending row of category, if any.
func (p *BudgetsPage) spentFor(category string) core.Money {
	for _, s := range p.Spending {
		if s.Category == category {
			return s.Spending
		}
	}
	return core.Money{}
}

func (p *BudgetsPage) Render(w io.Writer) error {
	t := newTheme(w)
	format := p.format
	if format == nil {
		format = p.currency.Formatter(context.Background())
	}

	var out page
	out.line(t.title.Render("Budgets"))
	if p.Error != "" {
		out.line(t.banner(p.Error))
	}
	if p.Notice != "" {
		out.line(t.success.Render(p.Notice))
	}

	s := p.Summary
	out.line(t.field("Total budget", format(s.TotalLimit)),
		t.field("Spent", format(s.TotalSpent)),
		t.field("Remaining", format(s.Remaining)))
	out.line(t.progress(s.OverallPct, s.Status))

	if len(p.Budgets) == 0 {
		out.line(t.muted.Render("No budgets yet."))
	}
	for _, b := range p.Budgets {
		spent := p.spentFor(b.Category)
		pct := 0
		if b.LimitAmount.Cents > 0 {
			pct = int(core.Percentage(spent, b.LimitAmount) + 0.5)
		}
		out.line(t.heading.Render("#" + strconv.FormatInt(b.ID, 10) + " " + core.CategoryName(b.Category)))
		out.line(t.label.Render(format(spent) + " of " + format(b.LimitAmount)))
		out.line(t.progress(pct, core.StatusForPercent(float64(pct))))
	}

	if len(s.Insights) > 0 {
		out.line(t.heading.Render("Insights"))
		for _, in := range s.Insights {
			out.line(t.insight(in))
		}
	}
	return out.writeTo(w)
}
