package pages

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"finstudent/internal/api"
	"finstudent/internal/core"
	"finstudent/internal/currency"
	"finstudent/internal/resources"
	"finstudent/internal/storage/memory"
)

type usd struct{}

func (usd) Formatter(context.Context) core.MoneyFormatter {
	return func(m core.Money) string { return currency.Format(m, "USD") }
}

func output(t *testing.T, render func(*bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

// --- auth ---

type fakeAuth struct {
	resp     resources.AuthResponse
	err      error
	calls    int
	register resources.RegisterRequest
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (resources.AuthResponse, error) {
	f.calls++
	return f.resp, f.err
}

func (f *fakeAuth) Register(_ context.Context, req resources.RegisterRequest) (resources.AuthResponse, error) {
	f.calls++
	f.register = req
	return f.resp, f.err
}

type fakeSession struct {
	user    core.User
	access  string
	refresh string
}

func (f *fakeSession) Login(_ context.Context, u core.User, access, refresh string) error {
	f.user, f.access, f.refresh = u, access, refresh
	return nil
}

func TestLoginPage(t *testing.T) {
	auth := &fakeAuth{resp: resources.AuthResponse{User: core.User{ID: 1, Email: "a@b.com", FirstName: "Alex"}, Access: "acc", Refresh: "ref"}}
	sess := &fakeSession{}
	p := NewLoginPage(auth, sess)

	if err := p.Submit(context.Background(), core.LoginForm{Email: "a@b.com", Password: "pw"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sess.access != "acc" || sess.refresh != "ref" || sess.user.ID != 1 {
		t.Errorf("session = %+v", sess)
	}
	assertContains(t, output(t, func(b *bytes.Buffer) error { return p.Render(b) }), "Welcome back, Alex!")
}

func TestLoginPageErrors(t *testing.T) {
	auth := &fakeAuth{err: &api.Error{Status: 401, Message: "Invalid credentials"}}
	p := NewLoginPage(auth, &fakeSession{})

	if err := p.Submit(context.Background(), core.LoginForm{}); err == nil {
		t.Fatal("expected validation error")
	}
	if auth.calls != 0 {
		t.Fatal("empty form reached the server")
	}

	if err := p.Submit(context.Background(), core.LoginForm{Email: "a@b.com", Password: "bad"}); err == nil {
		t.Fatal("expected server error")
	}
	if p.Error != "Invalid credentials" {
		t.Errorf("page error = %q", p.Error)
	}
	assertContains(t, output(t, func(b *bytes.Buffer) error { return p.Render(b) }), "Error: Invalid credentials")
}

func TestRegisterPage(t *testing.T) {
	auth := &fakeAuth{resp: resources.AuthResponse{User: core.User{ID: 2, Email: "n@u.edu"}, Access: "a"}}
	sess := &fakeSession{}
	p := NewRegisterPage(auth, sess)

	bad := core.RegisterForm{FullName: "Ngozi Obi", Email: "n@u.edu", Password: "short", ConfirmPassword: "short", AcceptTerms: true}
	if err := p.Submit(context.Background(), bad); !errors.Is(err, core.ErrPasswordTooShort) {
		t.Fatalf("err = %v", err)
	}
	if p.Strength != core.PasswordMedium || auth.calls != 0 {
		t.Errorf("strength = %s calls = %d", p.Strength, auth.calls)
	}

	good := bad
	good.Password, good.ConfirmPassword = "longenough", "longenough"
	if err := p.Submit(context.Background(), good); err != nil {
		t.Fatal(err)
	}
	if auth.register.FirstName != "Ngozi" || auth.register.LastName != "Obi" || sess.access != "a" {
		t.Errorf("register = %+v session = %+v", auth.register, sess)
	}
	assertContains(t, output(t, func(b *bytes.Buffer) error { return p.Render(b) }), "Signed in as n@u.edu", "strong")
}

// --- dashboard ---

type fakeDashboard struct {
	mu        sync.Mutex
	overview  core.Overview
	breakdown []core.CategorySpending
	failTrend error
	limit     int
	block     chan struct{}
}

func (f *fakeDashboard) wait() {
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeDashboard) Overview(context.Context) (core.Overview, error) {
	f.wait()
	return f.overview, nil
}

func (f *fakeDashboard) SpendingBreakdown(context.Context) ([]core.CategorySpending, error) {
	f.wait()
	return f.breakdown, nil
}

func (f *fakeDashboard) SpendingTrend(context.Context) ([]core.TrendPoint, error) {
	f.wait()
	return nil, f.failTrend
}

func (f *fakeDashboard) RecentTransactions(_ context.Context, limit int) ([]core.Transaction, error) {
	f.wait()
	f.mu.Lock()
	f.limit = limit
	f.mu.Unlock()
	return []core.Transaction{{ID: 5, Type: core.Expense, Category: "food", Amount: core.NewMoney(850), Description: "Campus Cafeteria", Date: core.NewDate(2025, 1, 3)}}, nil
}

func TestDashboardPartialFailure(t *testing.T) {
	limit := core.NewMoney(200000)
	src := &fakeDashboard{
		overview: core.Overview{
			TotalIncome:       core.NewMoney(250000),
			TotalExpenses:     core.NewMoney(130000),
			NetBalance:        core.NewMoney(120000),
			ThisMonthSpending: core.NewMoney(130000),
			BudgetProgress:    []core.SpendingVsBudget{{Category: "food", BudgetLimit: limit}},
		},
		breakdown: []core.CategorySpending{{Category: "food", Amount: core.NewMoney(130000), Percentage: 100}},
		failTrend: &api.Error{Status: 500, Message: "API Error: 500"},
	}
	p := NewDashboardPage(src, usd{})

	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("partial failure should not fail the page: %v", err)
	}
	if p.Budget.Pct != 65 || p.Budget.Remaining.Cents != 70000 {
		t.Errorf("budget = %+v", p.Budget)
	}
	if src.limit != resources.DefaultRecentLimit {
		t.Errorf("limit = %d", src.limit)
	}

	out := output(t, func(b *bytes.Buffer) error { return p.Render(b) })
	assertContains(t, out, "$2,500.00", "$1,300.00 of $2,000.00", "65%", "Food & Groceries", "Campus Cafeteria", "-$8.50", "Error: API Error: 500")
}

func TestDashboardAllFailed(t *testing.T) {
	p := NewDashboardPage(failingDashboard{}, usd{})
	if err := p.Load(context.Background()); err == nil {
		t.Fatal("expected error when every section fails")
	}
}

type failingDashboard struct{}

var errDown = &api.Error{Message: "connection refused"}

func (failingDashboard) Overview(context.Context) (core.Overview, error) { return core.Overview{}, errDown }
func (failingDashboard) SpendingBreakdown(context.Context) ([]core.CategorySpending, error) {
	return nil, errDown
}
func (failingDashboard) SpendingTrend(context.Context) ([]core.TrendPoint, error) { return nil, errDown }
func (failingDashboard) RecentTransactions(context.Context, int) ([]core.Transaction, error) {
	return nil, errDown
}

func TestDashboardCanceledDoesNotApply(t *testing.T) {
	src := &fakeDashboard{
		overview: core.Overview{TotalIncome: core.NewMoney(100)},
		block:    make(chan struct{}),
	}
	p := NewDashboardPage(src, usd{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Load(ctx) }()
	cancel()
	close(src.block)

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Load = %v, want context.Canceled", err)
	}
	if p.Overview.TotalIncome.Cents != 0 || p.Recent != nil {
		t.Error("late results were applied after cancellation")
	}
}

// --- transactions ---

type fakeTransactions struct {
	items   []core.Transaction
	updated core.Transaction
	deleted int64
	lists   int
}

func (f *fakeTransactions) List(_ context.Context, _ resources.TransactionFilter) ([]core.Transaction, *api.Meta, error) {
	f.lists++
	return f.items, &api.Meta{Count: len(f.items)}, nil
}

func (f *fakeTransactions) Update(_ context.Context, id int64, tx core.Transaction) (core.Transaction, error) {
	tx.ID = id
	f.updated = tx
	return tx, nil
}

func (f *fakeTransactions) Delete(_ context.Context, id int64) error {
	f.deleted = id
	return nil
}

func (f *fakeTransactions) Create(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = 99
	f.items = append(f.items, tx)
	return tx, nil
}

func TestTransactionsPage(t *testing.T) {
	src := &fakeTransactions{items: []core.Transaction{
		{ID: 1, Type: core.Income, Category: "salary", Amount: core.NewMoney(100000), Description: "Part-time pay", Date: core.NewDate(2025, 1, 1)},
		{ID: 2, Type: core.Expense, Category: "food", Amount: core.NewMoney(2500), Description: "Groceries", Date: core.NewDate(2025, 1, 2)},
	}}
	p := NewTransactionsPage(src, usd{})
	ctx := context.Background()

	if err := p.Load(ctx, resources.TransactionFilter{}); err != nil {
		t.Fatal(err)
	}
	if p.Totals.Net.Cents != 97500 {
		t.Errorf("totals = %+v", p.Totals)
	}

	err := p.Edit(ctx, 2, core.TransactionForm{Type: core.Expense, Description: "Groceries", Amount: "-5", Date: "2025-01-02", Category: "food"})
	if !errors.Is(err, core.ErrInvalidAmount) || src.updated.ID != 0 {
		t.Fatalf("negative edit = %v, updated %+v", err, src.updated)
	}

	if err := p.Edit(ctx, 2, core.TransactionForm{Type: core.Expense, Description: "Groceries", Amount: "30", Date: "2025-01-02", Category: "food"}); err != nil {
		t.Fatal(err)
	}
	if src.updated.Amount.Cents != 3000 || src.updated.ID != 2 {
		t.Errorf("updated = %+v", src.updated)
	}
	if err := p.Delete(ctx, 1); err != nil || src.deleted != 1 {
		t.Fatalf("delete = %v (%d)", err, src.deleted)
	}

	out := output(t, func(b *bytes.Buffer) error { return p.Render(b) })
	assertContains(t, out, "Transaction 1 deleted", "$975.00", "Part-time pay", "+$1,000.00", "2 total")
}

// --- add expense / income ---

type fakeCategories struct {
	cats []core.Category
	err  error
}

func (f fakeCategories) Categories(context.Context) ([]core.Category, error) { return f.cats, f.err }

func TestAddExpenseRejectsBeforeNetwork(t *testing.T) {
	src := &fakeTransactions{}
	p := NewAddExpensePage(src, fakeCategories{err: errDown}, usd{})
	ctx := context.Background()

	p.Load(ctx)
	if len(p.Categories) != len(core.ExpenseCategories) {
		t.Errorf("fallback categories = %d", len(p.Categories))
	}

	err := p.Submit(ctx, core.TransactionForm{Description: "Snack", Amount: "-5", Date: "2025-01-01", Category: "food"})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v", err)
	}
	if len(src.items) != 0 {
		t.Fatal("invalid expense was sent")
	}
	assertContains(t, output(t, func(b *bytes.Buffer) error { return p.Render(b) }), "amount must be greater than 0")

	if err := p.Submit(ctx, core.TransactionForm{Description: "Snack", Amount: "2.5", Date: "2025-01-01", Category: "Food"}); err != nil {
		t.Fatal(err)
	}
	if src.items[0].Type != core.Expense || src.items[0].Category != "food" {
		t.Errorf("created = %+v", src.items[0])
	}
	assertContains(t, output(t, func(b *bytes.Buffer) error { return p.Render(b) }), "Saved Snack ($2.50)")
}

func TestAddIncomeUsesIncomeCategories(t *testing.T) {
	src := &fakeTransactions{}
	p := NewAddIncomePage(src, usd{})
	p.Load(context.Background())

	if p.Kind() != core.Income || p.Categories[0].Key != "salary" {
		t.Fatalf("categories = %+v", p.Categories)
	}
	err := p.Submit(context.Background(), core.TransactionForm{Description: "Lunch", Amount: "5", Date: "2025-01-01", Category: "food"})
	if !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("expense category accepted for income: %v", err)
	}
}

// --- budgets ---

type fakeBudgets struct {
	budgets  []core.Budget
	spending []core.SpendingVsBudget
	created  core.Budget
}

func (f *fakeBudgets) List(context.Context) ([]core.Budget, error) { return f.budgets, nil }
func (f *fakeBudgets) Create(_ context.Context, b core.Budget) (core.Budget, error) {
	b.ID = int64(len(f.budgets) + 1)
	f.created = b
	f.budgets = append(f.budgets, b)
	return b, nil
}
func (f *fakeBudgets) Update(_ context.Context, id int64, b core.Budget) (core.Budget, error) {
	b.ID = id
	return b, nil
}
func (f *fakeBudgets) Delete(context.Context, int64) error { return nil }
func (f *fakeBudgets) SpendingVsBudget(context.Context) ([]core.SpendingVsBudget, error) {
	return f.spending, nil
}

func TestBudgetsPage(t *testing.T) {
	src := &fakeBudgets{
		budgets: []core.Budget{
			{ID: 1, Category: "food", LimitAmount: core.NewMoney(40000)},
			{ID: 2, Category: "transport", LimitAmount: core.NewMoney(20000)},
			{ID: 3, Category: "entertainment", LimitAmount: core.NewMoney(15000)},
		},
		spending: []core.SpendingVsBudget{
			{Category: "food", Spending: core.NewMoney(32000), BudgetLimit: core.NewMoney(40000), Percentage: 80},
			{Category: "transport", Spending: core.NewMoney(21000), BudgetLimit: core.NewMoney(20000), Percentage: 105, OverBudget: true},
			{Category: "entertainment", Spending: core.NewMoney(9000), BudgetLimit: core.NewMoney(15000), Percentage: 60},
		},
	}
	p := NewBudgetsPage(src, usd{})
	if err := p.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.Summary.OverallPct != 83 || len(p.Summary.Insights) != 2 {
		t.Errorf("summary = %+v", p.Summary)
	}

	out := output(t, func(b *bytes.Buffer) error { return p.Render(b) })
	assertContains(t, out, "$750.00", "$620.00", "$130.00", "83%", "Over budget on Transport by $10.00", "Food & Groceries is at 80% of budget", "105%")

	if err := p.Add(context.Background(), core.BudgetForm{Category: "health", LimitAmount: "0"}); err == nil {
		t.Fatal("zero limit accepted")
	}
	if err := p.Add(context.Background(), core.BudgetForm{Category: "health", LimitAmount: "50"}); err != nil {
		t.Fatal(err)
	}
	if src.created.Category != "health" || p.Notice != "Budget added for Health & Medical" {
		t.Errorf("created = %+v notice = %q", src.created, p.Notice)
	}
}

// --- reports ---

type fakeReports struct {
	mu      sync.Mutex
	periods []core.Period
}

func (f *fakeReports) record(p core.Period) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.periods = append(f.periods, p)
}

func (f *fakeReports) Overview(_ context.Context, p core.Period) (core.ReportOverview, error) {
	f.record(p)
	return core.ReportOverview{Period: p, TotalIncome: core.NewMoney(50000), SavingsRate: 20, TransactionCount: 4}, nil
}
func (f *fakeReports) SpendingOverTime(_ context.Context, p core.Period) ([]core.TrendPoint, error) {
	f.record(p)
	return []core.TrendPoint{{Date: "2025-01", Amount: core.NewMoney(40000)}}, nil
}
func (f *fakeReports) Insights(_ context.Context, p core.Period) ([]core.Insight, error) {
	f.record(p)
	return nil, &api.Error{Status: 404, Message: "Not found."}
}
func (f *fakeReports) Transactions(_ context.Context, p core.Period) ([]core.Transaction, error) {
	f.record(p)
	return nil, nil
}

func TestReportsPage(t *testing.T) {
	src := &fakeReports{}
	p := NewReportsPage(src, usd{})
	if err := p.Load(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if p.Period != core.PeriodMonth || len(src.periods) != 4 {
		t.Fatalf("period = %s calls = %v", p.Period, src.periods)
	}
	for _, got := range src.periods {
		if got != core.PeriodMonth {
			t.Errorf("period sent = %s", got)
		}
	}
	out := output(t, func(b *bytes.Buffer) error { return p.Render(b) })
	assertContains(t, out, "(month)", "$500.00", "20.0%", "2025-01", "Error: Not found.", "No transactions in this period.")
}

// --- settings ---

type fakeIdentity struct{ user *core.User }

func (f fakeIdentity) User() (core.User, bool) {
	if f.user == nil {
		return core.User{}, false
	}
	return *f.user, true
}

func TestSettingsPage(t *testing.T) {
	ctx := context.Background()
	prefs := currency.NewPreferences(memory.NewStore(), nil)
	p := NewSettingsPage(prefs, fakeIdentity{user: &core.User{Email: "a@b.com", FirstName: "Alex", LastName: "Doe"}}, "http://localhost:8000/api")
	p.Load(ctx)
	if p.Currency != "USD" {
		t.Errorf("currency = %s", p.Currency)
	}

	if err := p.SetCurrency(ctx, "NGN"); err != nil {
		t.Fatal(err)
	}
	if p.Currency != "NGN" || p.Notice != "Currency set to Nigerian Naira" {
		t.Errorf("currency = %s notice = %q", p.Currency, p.Notice)
	}
	if err := p.SetCurrency(ctx, "BTC"); !errors.Is(err, currency.ErrUnsupportedCurrency) {
		t.Fatalf("err = %v", err)
	}
	if prefs.Currency(ctx) != "NGN" {
		t.Error("rejected code changed the preference")
	}

	out := output(t, func(b *bytes.Buffer) error { return p.Render(b) })
	assertContains(t, out, "Alex Doe", "a@b.com", "Server: http://localhost:8000/api", "● NGN ₦", "unsupported currency")
}
