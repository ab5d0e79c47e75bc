package pages

import (
	"context"
	"io"

	"finstudent/internal/core"
)

// AddTransactionPage backs both Add Expense and Add Income.
type AddTransactionPage struct {
	kind       core.TransactionType
	creator    TransactionCreator
	categories CategorySource
	currency   Currency

	Categories []core.Category
	Created    *core.Transaction
	Error      string
}

// NewAddExpensePage creates expenses through creator and, when categories
// is non-nil, offers the server's category list.
func NewAddExpensePage(creator TransactionCreator, categories CategorySource, currency Currency) *AddTransactionPage {
	return &AddTransactionPage{kind: core.Expense, creator: creator, categories: categories, currency: currency}
}

func NewAddIncomePage(creator TransactionCreator, currency Currency) *AddTransactionPage {
	return &AddTransactionPage{kind: core.Income, creator: creator, currency: currency}
}

func (p *AddTransactionPage) Kind() core.TransactionType { return p.kind }

// Load fills the category choices, falling back to the built-in set when the
// server list is unavailable.
func (p *AddTransactionPage) Load(ctx context.Context) {
	p.Categories = core.CategoriesFor(p.kind)
	if p.categories == nil {
		return
	}
	cats, err := p.categories.Categories(ctx)
	if err != nil || len(cats) == 0 || ctx.Err() != nil {
		return
	}
	p.Categories = cats
}

// Submit validates the form locally and only then creates the transaction.
func (p *AddTransactionPage) Submit(ctx context.Context, form core.TransactionForm) error {
	p.Created = nil
	p.Error = ""

	form.Type = p.kind
	tx, err := form.Parse()
	if err != nil {
		p.Error = errorText(err)
		return err
	}
	created, err := p.creator.Create(ctx, tx)
	if err != nil {
		p.Error = errorText(err)
		return err
	}
	p.Created = &created
	return nil
}

func (p *AddTransactionPage) Render(w io.Writer) error {
	t := newTheme(w)
	var out page
	if p.kind == core.Income {
		out.line(t.title.Render("Log Income"))
	} else {
		out.line(t.title.Render("Log a New Expense"))
	}
	if p.Error != "" {
		out.line(t.banner(p.Error))
	}
	if p.Created != nil {
		format := p.currency.Formatter(context.Background())
		out.line(t.success.Render("Saved " + p.Created.Description + " (" + format(p.Created.Amount) + ") on " + p.Created.Date.String()))
	}
	if len(p.Categories) > 0 {
		out.line(t.heading.Render("Categories"))
		for _, c := range p.Categories {
			out.line(t.label.Render(c.Key), c.Name)
		}
	}
	return out.writeTo(w)
}
