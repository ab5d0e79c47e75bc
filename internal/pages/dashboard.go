package pages

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"finstudent/internal/core"
	"finstudent/internal/resources"
)

// Dashboard sections, in render order.
const (
	SectionOverview  = "overview"
	SectionBreakdown = "spending breakdown"
	SectionTrend     = "spending trend"
	SectionRecent    = "recent transactions"
)

type DashboardPage struct {
	source   DashboardSource
	currency Currency
	format   core.MoneyFormatter

	Overview  core.Overview
	Budget    core.MonthlyBudget
	Breakdown []core.CategorySpending
	Trend     []core.TrendPoint
	Recent    []core.Transaction
	Sections  []Section
}

func NewDashboardPage(source DashboardSource, currency Currency) *DashboardPage {
	return &DashboardPage{source: source, currency: currency}
}

// Load fetches every section concurrently and waits for all of them. A
// failed section keeps its error and the others still render. Nothing is
// applied once ctx is done.
func (p *DashboardPage) Load(ctx context.Context) error {
	format := p.currency.Formatter(ctx)

	var (
		overview  core.Overview
		breakdown []core.CategorySpending
		trend     []core.TrendPoint
		recent    []core.Transaction
		errs      [4]error
	)

	var g errgroup.Group
	g.Go(func() error {
		overview, errs[0] = p.source.Overview(ctx)
		return nil
	})
	g.Go(func() error {
		breakdown, errs[1] = p.source.SpendingBreakdown(ctx)
		return nil
	})
	g.Go(func() error {
		trend, errs[2] = p.source.SpendingTrend(ctx)
		return nil
	})
	g.Go(func() error {
		recent, errs[3] = p.source.RecentTransactions(ctx, resources.DefaultRecentLimit)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	p.format = format
	p.Overview = overview
	p.Budget = overview.MonthlyBudget()
	p.Breakdown = breakdown
	p.Trend = trend
	p.Recent = recent
	p.Sections = []Section{
		{Name: SectionOverview, Err: errs[0]},
		{Name: SectionBreakdown, Err: errs[1]},
		{Name: SectionTrend, Err: errs[2]},
		{Name: SectionRecent, Err: errs[3]},
	}
	return settle(p.Sections)
}

func (p *DashboardPage) sectionErr(name string) error {
	for _, s := range p.Sections {
		if s.Name == name {
			return s.Err
		}
	}
	return nil
}

func (p *DashboardPage) Render(w io.Writer) error {
	t := newTheme(w)
	format := p.format
	if format == nil {
		format = p.currency.Formatter(context.Background())
	}

	var out page
	out.line(t.title.Render("Dashboard"))

	out.line(t.heading.Render("Overview"))
	if err := p.sectionErr(SectionOverview); err != nil {
		out.line(t.banner(errorText(err)))
	} else {
		out.line(t.field("Total income", format(p.Overview.TotalIncome)))
		out.line(t.field("Total expenses", format(p.Overview.TotalExpenses)))
		out.line(t.field("Net balance", format(p.Overview.NetBalance)))
		out.line(t.field("Monthly budget", format(p.Budget.Spent)+" of "+format(p.Budget.Limit)))
		out.line(t.progress(p.Budget.Pct, p.Budget.Status))
		out.line(t.field("Remaining", format(p.Budget.Remaining)))
	}

	out.line(t.heading.Render("Spending by category"))
	if err := p.sectionErr(SectionBreakdown); err != nil {
		out.line(t.banner(errorText(err)))
	} else if len(p.Breakdown) == 0 {
		out.line(t.muted.Render("No spending yet."))
	} else {
		rows := make([][]string, 0, len(p.Breakdown))
		for _, c := range p.Breakdown {
			limit := "-"
			if c.BudgetLimit != nil {
				limit = format(*c.BudgetLimit)
			}
			rows = append(rows, []string{core.CategoryName(c.Category), format(c.Amount), formatPct(c.Percentage), limit})
		}
		out.line(t.table([]string{"Category", "Spent", "Share", "Budget"}, rows))
	}

	out.line(t.heading.Render("Spending trend"))
	if err := p.sectionErr(SectionTrend); err != nil {
		out.line(t.banner(errorText(err)))
	} else {
		for _, pt := range p.Trend {
			out.line(t.label.Render(pt.Date), format(pt.Amount))
		}
	}

	out.line(t.heading.Render("Recent transactions"))
	if err := p.sectionErr(SectionRecent); err != nil {
		out.line(t.banner(errorText(err)))
	} else if len(p.Recent) == 0 {
		out.line(t.muted.Render("No transactions yet."))
	} else {
		out.line(t.table(transactionHeaders, transactionRows(p.Recent, format)))
	}
	return out.writeTo(w)
}
