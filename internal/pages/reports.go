package pages

import (
	"context"
	"io"
	"strconv"

	"golang.org/x/sync/errgroup"

	"finstudent/internal/core"
)

const (
	SectionReportOverview = "overview"
	SectionOverTime       = "spending over time"
	SectionInsights       = "insights"
	SectionTransactions   = "transactions"
)

type ReportsPage struct {
	source   ReportSource
	currency Currency
	format   core.MoneyFormatter

	Period       core.Period
	Overview     core.ReportOverview
	OverTime     []core.TrendPoint
	Insights     []core.Insight
	Transactions []core.Transaction
	Sections     []Section
}

func NewReportsPage(source ReportSource, currency Currency) *ReportsPage {
	return &ReportsPage{source: source, currency: currency}
}

// Load fetches the four report sections for period concurrently. An empty
// period means month.
func (p *ReportsPage) Load(ctx context.Context, period core.Period) error {
	if period == "" {
		period = core.PeriodMonth
	}
	format := p.currency.Formatter(ctx)

	var (
		overview core.ReportOverview
		overTime []core.TrendPoint
		insights []core.Insight
		txs      []core.Transaction
		errs     [4]error
	)

	var g errgroup.Group
	g.Go(func() error {
		overview, errs[0] = p.source.Overview(ctx, period)
		return nil
	})
	g.Go(func() error {
		overTime, errs[1] = p.source.SpendingOverTime(ctx, period)
		return nil
	})
	g.Go(func() error {
		insights, errs[2] = p.source.Insights(ctx, period)
		return nil
	})
	g.Go(func() error {
		txs, errs[3] = p.source.Transactions(ctx, period)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	p.format = format
	p.Period = period
	p.Overview = overview
	p.OverTime = overTime
	p.Insights = insights
	p.Transactions = txs
	p.Sections = []Section{
		{Name: SectionReportOverview, Err: errs[0]},
		{Name: SectionOverTime, Err: errs[1]},
		{Name: SectionInsights, Err: errs[2]},
		{Name: SectionTransactions, Err: errs[3]},
	}
	return settle(p.Sections)
}

func (p *ReportsPage) sectionErr(name string) error {
	for _, s := range p.Sections {
		if s.Name == name {
			return s.Err
		}
	}
	return nil
}

func (p *ReportsPage) Render(w io.Writer) error {
	t := newTheme(w)
	format := p.format
	if format == nil {
		format = p.currency.Formatter(context.Background())
	}

	var out page
	out.line(t.title.Render("Reports"), t.muted.Render("("+string(p.Period)+")"))

	out.line(t.heading.Render("Summary"))
	if err := p.sectionErr(SectionReportOverview); err != nil {
		out.line(t.banner(errorText(err)))
	} else {
		out.line(t.field("Income", format(p.Overview.TotalIncome)))
		out.line(t.field("Expenses", format(p.Overview.TotalExpenses)))
		out.line(t.field("Net savings", format(p.Overview.NetSavings)))
		out.line(t.field("Savings rate", formatPct(p.Overview.SavingsRate)))
		out.line(t.field("Transactions", strconv.Itoa(p.Overview.TransactionCount)))
	}

	out.line(t.heading.Render("Spending over time"))
	if err := p.sectionErr(SectionOverTime); err != nil {
		out.line(t.banner(errorText(err)))
	} else {
		for _, pt := range p.OverTime {
			out.line(t.label.Render(pt.Date), format(pt.Amount))
		}
	}

	out.line(t.heading.Render("Insights"))
	if err := p.sectionErr(SectionInsights); err != nil {
		out.line(t.banner(errorText(err)))
	} else if len(p.Insights) == 0 {
		out.line(t.muted.Render("Nothing to report."))
	} else {
		for _, in := range p.Insights {
			out.line(t.insight(in))
		}
	}

	out.line(t.heading.Render("Transactions"))
	if err := p.sectionErr(SectionTransactions); err != nil {
		out.line(t.banner(errorText(err)))
	} else if len(p.Transactions) == 0 {
		out.line(t.muted.Render("No transactions in this period."))
	} else {
		out.line(t.table(transactionHeaders, transactionRows(p.Transactions, format)))
	}
	return out.writeTo(w)
}
