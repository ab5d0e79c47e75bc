package resources

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finstudent/internal/api"
	"finstudent/internal/core"
)

const pathTransactions = "/transactions/"

// TransactionFilter narrows the transaction list. Zero values are omitted.
type TransactionFilter struct {
	Type     core.TransactionType
	Category string
	From     core.Date
	To       core.Date
	Search   string
	Page     int
}

func (f TransactionFilter) Values() url.Values {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		q.Set("category", strings.ToLower(c))
	}
	if !f.From.IsZero() {
		q.Set("start_date", f.From.String())
	}
	if !f.To.IsZero() {
		q.Set("end_date", f.To.String())
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

type Transactions struct {
	doer Doer
}

// List returns one page of transactions. Meta is nil when the server does
// not paginate.
func (t *Transactions) List(ctx context.Context, filter TransactionFilter) ([]core.Transaction, *api.Meta, error) {
	return doList[core.Transaction](ctx, t.doer, api.Request{Path: pathTransactions, Query: filter.Values()})
}

func (t *Transactions) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return do[core.Transaction](ctx, t.doer, api.Request{Path: itemPath(pathTransactions, id)})
}

func (t *Transactions) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = 0
	return do[core.Transaction](ctx, t.doer, api.Request{Method: http.MethodPost, Path: pathTransactions, Body: tx})
}

// Update replaces the transaction with id.
func (t *Transactions) Update(ctx context.Context, id int64, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = id
	return do[core.Transaction](ctx, t.doer, api.Request{Method: http.MethodPut, Path: itemPath(pathTransactions, id), Body: tx})
}

func (t *Transactions) Delete(ctx context.Context, id int64) error {
	return t.doer.Do(ctx, api.Request{Method: http.MethodDelete, Path: itemPath(pathTransactions, id)}).Err()
}
