package resources

import (
	"context"
	"net/http"

	"finstudent/internal/api"
	"finstudent/internal/core"
)

const (
	pathBudgets          = "/budgets/"
	pathSpendingVsBudget = "/budgets/spending_vs_budget/"
)

type Budgets struct {
	doer Doer
}

func (b *Budgets) List(ctx context.Context) ([]core.Budget, error) {
	items, _, err := doList[core.Budget](ctx, b.doer, api.Request{Path: pathBudgets})
	return items, err
}

func (b *Budgets) Get(ctx context.Context, id int64) (core.Budget, error) {
	return do[core.Budget](ctx, b.doer, api.Request{Path: itemPath(pathBudgets, id)})
}

func (b *Budgets) Create(ctx context.Context, budget core.Budget) (core.Budget, error) {
	if err := budget.Validate(); err != nil {
		return core.Budget{}, err
	}
	budget.ID = 0
	return do[core.Budget](ctx, b.doer, api.Request{Method: http.MethodPost, Path: pathBudgets, Body: budget})
}

func (b *Budgets) Update(ctx context.Context, id int64, budget core.Budget) (core.Budget, error) {
	if err := budget.Validate(); err != nil {
		return core.Budget{}, err
	}
	budget.ID = id
	return do[core.Budget](ctx, b.doer, api.Request{Method: http.MethodPut, Path: itemPath(pathBudgets, id), Body: budget})
}

func (b *Budgets) Delete(ctx context.Context, id int64) error {
	return b.doer.Do(ctx, api.Request{Method: http.MethodDelete, Path: itemPath(pathBudgets, id)}).Err()
}

// SpendingVsBudget returns this month's spending per budgeted category.
func (b *Budgets) SpendingVsBudget(ctx context.Context) ([]core.SpendingVsBudget, error) {
	rows, _, err := doList[core.SpendingVsBudget](ctx, b.doer, api.Request{Path: pathSpendingVsBudget})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i] = rows[i].Normalize()
	}
	return rows, nil
}
