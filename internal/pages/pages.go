// Package pages implements the FinStudent screens as controllers: each one
// loads through the resource clients, keeps its view state, derives the
// display metrics and renders to a writer.
package pages

import (
	"context"
	"errors"

	"finstudent/internal/api"
	"finstudent/internal/core"
	"finstudent/internal/resources"
)

// Currency supplies the money formatter for the stored preference.
type Currency interface {
	Formatter(ctx context.Context) core.MoneyFormatter
}

// Session is the part of the session store the auth pages write to.
type Session interface {
	Login(ctx context.Context, user core.User, access, refresh string) error
}

// Identity reports the signed-in user.
type Identity interface {
	User() (core.User, bool)
}

type DashboardSource interface {
	Overview(ctx context.Context) (core.Overview, error)
	SpendingBreakdown(ctx context.Context) ([]core.CategorySpending, error)
	SpendingTrend(ctx context.Context) ([]core.TrendPoint, error)
	RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
}

type TransactionSource interface {
	List(ctx context.Context, filter resources.TransactionFilter) ([]core.Transaction, *api.Meta, error)
	Update(ctx context.Context, id int64, tx core.Transaction) (core.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

// TransactionCreator creates one transaction; implemented by both the
// transactions and the expenses resources.
type TransactionCreator interface {
	Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
}

type CategorySource interface {
	Categories(ctx context.Context) ([]core.Category, error)
}

type BudgetSource interface {
	List(ctx context.Context) ([]core.Budget, error)
	Create(ctx context.Context, b core.Budget) (core.Budget, error)
	Update(ctx context.Context, id int64, b core.Budget) (core.Budget, error)
	Delete(ctx context.Context, id int64) error
	SpendingVsBudget(ctx context.Context) ([]core.SpendingVsBudget, error)
}

type ReportSource interface {
	Overview(ctx context.Context, p core.Period) (core.ReportOverview, error)
	SpendingOverTime(ctx context.Context, p core.Period) ([]core.TrendPoint, error)
	Insights(ctx context.Context, p core.Period) ([]core.Insight, error)
	Transactions(ctx context.Context, p core.Period) ([]core.Transaction, error)
}

// Section records the outcome of one independently loaded part of a page.
type Section struct {
	Name string
	Err  error
}

// settle returns nil when at least one section loaded, and the first error
// when every section failed.
func settle(sections []Section) error {
	var first error
	for _, s := range sections {
		if s.Err == nil {
			return nil
		}
		if first == nil {
			first = s.Err
		}
	}
	return first
}

// errorText is what the page shows in its error banner.
func errorText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}
