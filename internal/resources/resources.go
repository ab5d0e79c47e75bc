// Package resources binds the FinStudent REST endpoints to typed Go calls.
// Failed calls return *api.Error; invalid input is rejected with a
// *core.ValidationError before any request is made.
package resources

import (
	"context"
	"strconv"

	"finstudent/internal/api"
)

// Doer is the part of *api.Client the resource clients need.
type Doer interface {
	Do(ctx context.Context, req api.Request) *api.Result
}

// Clients groups every resource client over one API client.
type Clients struct {
	Auth         *Auth
	Transactions *Transactions
	Budgets      *Budgets
	Dashboard    *Dashboard
	Reports      *Reports
	Expenses     *Expenses
}

func New(doer Doer) *Clients {
	return &Clients{
		Auth:         &Auth{doer: doer},
		Transactions: &Transactions{doer: doer},
		Budgets:      &Budgets{doer: doer},
		Dashboard:    &Dashboard{doer: doer},
		Reports:      &Reports{doer: doer},
		Expenses:     &Expenses{doer: doer},
	}
}

func itemPath(collection string, id int64) string {
	return collection + strconv.FormatInt(id, 10) + "/"
}

func do[T any](ctx context.Context, doer Doer, req api.Request) (T, error) {
	return api.Decode[T](doer.Do(ctx, req))
}

func doList[T any](ctx context.Context, doer Doer, req api.Request) ([]T, *api.Meta, error) {
	res := doer.Do(ctx, req)
	items, err := api.Decode[[]T](res)
	if err != nil {
		return nil, nil, err
	}
	return items, res.Meta, nil
}
