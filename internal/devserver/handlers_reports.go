package devserver

import (
	"net/http"
	"strconv"

	"finstudent/internal/core"
)

const maxRecentLimit = 100

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request, user core.User) {
	all := s.store.Transactions(user.ID, TransactionQuery{})
	o := overview(all, s.monthTransactions(user.ID), s.store.Budgets(user.ID))
	NewResponse().JSON(o).Write(w)
}

func (s *Server) handleSpendingBreakdown(w http.ResponseWriter, r *http.Request, user core.User) {
	writeList(w, spendingBreakdown(s.monthTransactions(user.ID), s.store.Budgets(user.ID)))
}

func (s *Server) handleSpendingTrend(w http.ResponseWriter, r *http.Request, user core.User) {
	today := s.store.Today()
	from := core.Date{Time: today.AddDate(0, 0, -(trendDays - 1))}
	txs := s.store.Transactions(user.ID, TransactionQuery{Type: core.Expense, From: from, To: today})
	writeList(w, dailySpending(txs, from, today))
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fieldError("limit", "A valid integer is required.").Write(w)
			return
		}
		limit = min(n, maxRecentLimit)
	}
	txs := s.store.Transactions(user.ID, TransactionQuery{})
	if len(txs) > limit {
		txs = txs[:limit]
	}
	writeList(w, txs)
}

// periodTransactions resolves the period query. On failure the response
// has been written and ok is false.
func (s *Server) periodTransactions(w http.ResponseWriter, r *http.Request, user core.User) (core.Period, []core.Transaction, bool) {
	p, err := core.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		fieldError("period", "Select a valid choice. Expected week, month, quarter or year.").Write(w)
		return "", nil, false
	}
	today := s.store.Today()
	txs := s.store.Transactions(user.ID, TransactionQuery{From: periodStart(p, today), To: today})
	return p, txs, true
}

func (s *Server) handleReportOverview(w http.ResponseWriter, r *http.Request, user core.User) {
	p, txs, ok := s.periodTransactions(w, r, user)
	if !ok {
		return
	}
	NewResponse().JSON(reportOverview(p, txs)).Write(w)
}

func (s *Server) handleSpendingOverTime(w http.ResponseWriter, r *http.Request, user core.User) {
	p, txs, ok := s.periodTransactions(w, r, user)
	if !ok {
		return
	}
	writeList(w, spendingOverTime(p, txs, s.store.Today()))
}

func (s *Server) handleReportInsights(w http.ResponseWriter, r *http.Request, user core.User) {
	_, txs, ok := s.periodTransactions(w, r, user)
	if !ok {
		return
	}
	vs := spendingVsBudget(s.store.Budgets(user.ID), s.monthTransactions(user.ID))
	writeList(w, reportInsights(txs, vs))
}

func (s *Server) handleReportTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	_, txs, ok := s.periodTransactions(w, r, user)
	if !ok {
		return
	}
	writeList(w, txs)
}
