package resources

import (
	"context"
	"net/url"

	"finstudent/internal/api"
	"finstudent/internal/core"
)

const (
	pathReportOverview     = "/reports/overview/"
	pathSpendingOverTime   = "/reports/spending_over_time/"
	pathReportInsights     = "/reports/insights/"
	pathReportTransactions = "/reports/transactions/"
)

type Reports struct {
	doer Doer
}

func periodQuery(p core.Period) url.Values {
	if p == "" {
		p = core.PeriodMonth
	}
	return url.Values{"period": {string(p)}}
}

func (r *Reports) Overview(ctx context.Context, p core.Period) (core.ReportOverview, error) {
	return do[core.ReportOverview](ctx, r.doer, api.Request{Path: pathReportOverview, Query: periodQuery(p)})
}

func (r *Reports) SpendingOverTime(ctx context.Context, p core.Period) ([]core.TrendPoint, error) {
	points, _, err := doList[core.TrendPoint](ctx, r.doer, api.Request{Path: pathSpendingOverTime, Query: periodQuery(p)})
	return points, err
}

func (r *Reports) Insights(ctx context.Context, p core.Period) ([]core.Insight, error) {
	insights, _, err := doList[core.Insight](ctx, r.doer, api.Request{Path: pathReportInsights, Query: periodQuery(p)})
	return insights, err
}

func (r *Reports) Transactions(ctx context.Context, p core.Period) ([]core.Transaction, error) {
	txs, _, err := doList[core.Transaction](ctx, r.doer, api.Request{Path: pathReportTransactions, Query: periodQuery(p)})
	return txs, err
}
