package pages

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"finstudent/internal/api"
	"finstudent/internal/core"
	"finstudent/internal/resources"
)

type TransactionsPage struct {
	source   TransactionSource
	currency Currency
	format   core.MoneyFormatter

	Filter       resources.TransactionFilter
	Transactions []core.Transaction
	Meta         *api.Meta
	Totals       core.TransactionTotals
	Notice       string
	Error        string
}

func NewTransactionsPage(source TransactionSource, currency Currency) *TransactionsPage {
	return &TransactionsPage{source: source, currency: currency}
}

// Load lists transactions matching filter and recomputes the totals.
func (p *TransactionsPage) Load(ctx context.Context, filter resources.TransactionFilter) error {
	p.Filter = filter
	p.format = p.currency.Formatter(ctx)

	txs, meta, err := p.source.List(ctx, filter)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		p.Error = errorText(err)
		return err
	}
	p.Error = ""
	p.Transactions = txs
	p.Meta = meta
	p.Totals = core.SumTransactions(txs)
	return nil
}

// Edit replaces transaction id with the form contents and reloads.
func (p *TransactionsPage) Edit(ctx context.Context, id int64, form core.TransactionForm) error {
	tx, err := form.Parse()
	if err != nil {
		p.Error = errorText(err)
		return err
	}
	if _, err := p.source.Update(ctx, id, tx); err != nil {
		p.Error = errorText(err)
		return err
	}
	if err := p.Load(ctx, p.Filter); err != nil {
		return err
	}
	p.Notice = fmt.Sprintf("Transaction %d updated", id)
	return nil
}

func (p *TransactionsPage) Delete(ctx context.Context, id int64) error {
	if err := p.source.Delete(ctx, id); err != nil {
		p.Error = errorText(err)
		return err
	}
	if err := p.Load(ctx, p.Filter); err != nil {
		return err
	}
	p.Notice = fmt.Sprintf("Transaction %d deleted", id)
	return nil
}

func (p *TransactionsPage) Render(w io.Writer) error {
	t := newTheme(w)
	format := p.format
	if format == nil {
		format = p.currency.Formatter(context.Background())
	}

	var out page
	out.line(t.title.Render("Transactions"))
	if p.Error != "" {
		out.line(t.banner(p.Error))
	}
	if p.Notice != "" {
		out.line(t.success.Render(p.Notice))
	}
	out.line(t.field("Income", format(p.Totals.Income)),
		t.field("Expenses", format(p.Totals.Expenses)),
		t.field("Net", format(p.Totals.Net)))

	if len(p.Transactions) == 0 {
		out.line(t.muted.Render("No transactions found."))
	} else {
		out.line(t.table(transactionHeaders, transactionRows(p.Transactions, format)))
	}
	if p.Meta != nil {
		pageNo := p.Filter.Page
		if pageNo < 1 {
			pageNo = 1
		}
		footer := "Page " + strconv.Itoa(pageNo) + " · " + strconv.Itoa(p.Meta.Count) + " total"
		if p.Meta.HasNext() {
			footer += " · more with --page " + strconv.Itoa(pageNo+1)
		}
		out.line(t.muted.Render(footer))
	}
	return out.writeTo(w)
}
