package resources

import (
	"context"
	"net/url"
	"strconv"

	"finstudent/internal/api"
	"finstudent/internal/core"
)

const (
	pathOverview           = "/dashboard/overview/"
	pathSpendingBreakdown  = "/dashboard/spending_breakdown/"
	pathSpendingTrend      = "/dashboard/spending_trend/"
	pathRecentTransactions = "/dashboard/recent_transactions/"

	DefaultRecentLimit = 10
)

type Dashboard struct {
	doer Doer
}

func (d *Dashboard) Overview(ctx context.Context) (core.Overview, error) {
	return do[core.Overview](ctx, d.doer, api.Request{Path: pathOverview})
}

func (d *Dashboard) SpendingBreakdown(ctx context.Context) ([]core.CategorySpending, error) {
	rows, _, err := doList[core.CategorySpending](ctx, d.doer, api.Request{Path: pathSpendingBreakdown})
	if err != nil {
		return nil, err
	}
	return core.FillShares(rows), nil
}

func (d *Dashboard) SpendingTrend(ctx context.Context) ([]core.TrendPoint, error) {
	points, _, err := doList[core.TrendPoint](ctx, d.doer, api.Request{Path: pathSpendingTrend})
	return points, err
}

// RecentTransactions returns the latest transactions; limit <= 0 uses
// DefaultRecentLimit.
func (d *Dashboard) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	txs, _, err := doList[core.Transaction](ctx, d.doer, api.Request{
		Path:  pathRecentTransactions,
		Query: url.Values{"limit": {strconv.Itoa(limit)}},
	})
	return txs, err
}
