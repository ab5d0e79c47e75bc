package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"finstudent/internal/cli"
	"finstudent/internal/core"
	"finstudent/internal/pages"
	"finstudent/internal/resources"
)

type env struct {
	app    *cli.App
	prompt *cli.Prompter
	stdout io.Writer
	stderr io.Writer
}

func (e *env) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("finstudent "+name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

type command struct {
	// auth commands need a signed-in session.
	auth bool
	run  func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"register":     {run: runRegister},
	"login":        {run: runLogin},
	"logout":       {run: runLogout},
	"whoami":       {run: runWhoami},
	"dashboard":    {auth: true, run: runDashboard},
	"transactions": {auth: true, run: runTransactions},
	"expense":      {auth: true, run: runAddTransaction(core.Expense)},
	"income":       {auth: true, run: runAddTransaction(core.Income)},
	"budgets":      {auth: true, run: runBudgets},
	"reports":      {auth: true, run: runReports},
	"settings":     {run: runSettings},
}

type renderer interface {
	Render(w io.Writer) error
}

// show renders the page and returns the action error, if any, so the
// process exits non-zero after the error banner is printed.
func show(w io.Writer, p renderer, err error) error {
	if rerr := p.Render(w); rerr != nil && err == nil {
		return rerr
	}
	return err
}

// subcommand splits an optional leading verb from the flags.
func subcommand(args []string, def string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return def, args
}

// parseWithID parses fs and returns the id given before or after the flags.
func parseWithID(fs *flag.FlagSet, args []string) (int64, error) {
	var raw string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		raw, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if raw == "" {
		raw = fs.Arg(0)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s: expected a numeric id, got %q", fs.Name(), raw)
	}
	return id, nil
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func runRegister(ctx context.Context, e *env, args []string) error {
	fs := e.flags("register")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (prompted when omitted)")
	accept := fs.Bool("accept-terms", false, "accept the Terms of Service and Privacy Policy")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *name == "" {
		if *name, err = e.prompt.Line("Full name: "); err != nil {
			return err
		}
	}
	if *email == "" {
		if *email, err = e.prompt.Line("Email: "); err != nil {
			return err
		}
	}
	confirm := *password
	if *password == "" {
		if *password, err = e.prompt.Password("Password: "); err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if confirm, err = e.prompt.Password("Confirm password: "); err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}
	if !*accept {
		answer, err := e.prompt.Line("Accept the Terms of Service and Privacy Policy? [y/N]: ")
		if err != nil {
			return err
		}
		a := strings.ToLower(strings.TrimSpace(answer))
		*accept = a == "y" || a == "yes"
	}

	page := pages.NewRegisterPage(e.app.Resources.Auth, e.app.Session)
	err = page.Submit(ctx, core.RegisterForm{
		FullName:        *name,
		Email:           *email,
		Password:        *password,
		ConfirmPassword: confirm,
		AcceptTerms:     *accept,
	})
	return show(e.stdout, page, err)
}

func runLogin(ctx context.Context, e *env, args []string) error {
	fs := e.flags("login")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *email == "" {
		if *email, err = e.prompt.Line("Email: "); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = e.prompt.Password("Password: "); err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	page := pages.NewLoginPage(e.app.Resources.Auth, e.app.Session)
	err = page.Submit(ctx, core.LoginForm{Email: *email, Password: *password})
	return show(e.stdout, page, err)
}

func runLogout(ctx context.Context, e *env, args []string) error {
	e.app.Session.Logout(ctx)
	fmt.Fprintln(e.stdout, "Signed out.")
	return nil
}

func runWhoami(ctx context.Context, e *env, args []string) error {
	u, ok := e.app.Session.User()
	if !ok {
		fmt.Fprintln(e.stdout, "Not signed in.")
		return nil
	}
	fmt.Fprintf(e.stdout, "%s <%s>\n", u.FullName(), u.Email)
	return nil
}

func runDashboard(ctx context.Context, e *env, args []string) error {
	if err := e.flags("dashboard").Parse(args); err != nil {
		return err
	}
	page := pages.NewDashboardPage(e.app.Resources.Dashboard, e.app.Preferences)
	return show(e.stdout, page, page.Load(ctx))
}

func runTransactions(ctx context.Context, e *env, args []string) error {
	verb, rest := subcommand(args, "list")
	page := pages.NewTransactionsPage(e.app.Resources.Transactions, e.app.Preferences)

	switch verb {
	case "list":
		fs := e.flags("transactions list")
		typ := fs.String("type", "", "expense or income")
		category := fs.String("category", "", "category key")
		from := fs.String("from", "", "first date (YYYY-MM-DD)")
		to := fs.String("to", "", "last date (YYYY-MM-DD)")
		search := fs.String("search", "", "text in description or category")
		pageNum := fs.Int("page", 1, "page number")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		filter := resources.TransactionFilter{
			Type:     core.TransactionType(*typ),
			Category: *category,
			Search:   *search,
			Page:     *pageNum,
		}
		if filter.Type != "" && !filter.Type.IsValid() {
			return fmt.Errorf("-type: %w", core.ErrInvalidType)
		}
		for _, d := range []struct {
			flag string
			raw  string
			dst  *core.Date
		}{{"from", *from, &filter.From}, {"to", *to, &filter.To}} {
			if d.raw == "" {
				continue
			}
			parsed, err := core.ParseDate(d.raw)
			if err != nil {
				return fmt.Errorf("-%s: %w", d.flag, err)
			}
			*d.dst = parsed
		}
		return show(e.stdout, page, page.Load(ctx, filter))

	case "edit":
		fs := e.flags("transactions edit")
		typ := fs.String("type", "", "expense or income")
		category := fs.String("category", "", "category key")
		amount := fs.String("amount", "", "amount, e.g. 12.50")
		date := fs.String("date", "", "date (YYYY-MM-DD)")
		desc := fs.String("description", "", "description")
		id, err := parseWithID(fs, rest)
		if err != nil {
			return err
		}
		current, err := e.app.Resources.Transactions.Get(ctx, id)
		if err != nil {
			return err
		}
		form := core.TransactionForm{
			Type:        current.Type,
			Category:    current.Category,
			Amount:      current.Amount.String(),
			Date:        current.Date.String(),
			Description: current.Description,
		}
		if isSet(fs, "type") {
			form.Type = core.TransactionType(*typ)
		}
		if isSet(fs, "category") {
			form.Category = *category
		}
		if isSet(fs, "amount") {
			form.Amount = *amount
		}
		if isSet(fs, "date") {
			form.Date = *date
		}
		if isSet(fs, "description") {
			form.Description = *desc
		}
		return show(e.stdout, page, page.Edit(ctx, id, form))

	case "delete":
		id, err := parseWithID(e.flags("transactions delete"), rest)
		if err != nil {
			return err
		}
		return show(e.stdout, page, page.Delete(ctx, id))
	}
	return fmt.Errorf("transactions: %w %q", errUsage, verb)
}

func runAddTransaction(kind core.TransactionType) func(context.Context, *env, []string) error {
	return func(ctx context.Context, e *env, args []string) error {
		verb, rest := subcommand(args, "add")
		if verb != "add" {
			return fmt.Errorf("%s: %w %q", kind, errUsage, verb)
		}
		fs := e.flags(string(kind) + " add")
		amount := fs.String("amount", "", "amount, e.g. 12.50")
		category := fs.String("category", "", "category key")
		date := fs.String("date", core.Today().String(), "date (YYYY-MM-DD)")
		desc := fs.String("description", "", "description")
		if err := fs.Parse(rest); err != nil {
			return err
		}

		var page *pages.AddTransactionPage
		if kind == core.Expense {
			page = pages.NewAddExpensePage(e.app.Resources.Expenses, e.app.Resources.Expenses, e.app.Preferences)
		} else {
			page = pages.NewAddIncomePage(e.app.Resources.Transactions, e.app.Preferences)
		}
		page.Load(ctx)
		err := page.Submit(ctx, core.TransactionForm{
			Amount:      *amount,
			Category:    *category,
			Date:        *date,
			Description: *desc,
		})
		return show(e.stdout, page, err)
	}
}

func runBudgets(ctx context.Context, e *env, args []string) error {
	verb, rest := subcommand(args, "list")
	page := pages.NewBudgetsPage(e.app.Resources.Budgets, e.app.Preferences)

	switch verb {
	case "list":
		if err := e.flags("budgets list").Parse(rest); err != nil {
			return err
		}
		return show(e.stdout, page, page.Load(ctx))

	case "add":
		fs := e.flags("budgets add")
		category := fs.String("category", "", "expense category key")
		limit := fs.String("limit", "", "monthly limit, e.g. 250")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return show(e.stdout, page, page.Add(ctx, core.BudgetForm{Category: *category, LimitAmount: *limit}))

	case "edit":
		fs := e.flags("budgets edit")
		category := fs.String("category", "", "expense category key")
		limit := fs.String("limit", "", "monthly limit, e.g. 250")
		id, err := parseWithID(fs, rest)
		if err != nil {
			return err
		}
		current, err := e.app.Resources.Budgets.Get(ctx, id)
		if err != nil {
			return err
		}
		form := core.BudgetForm{Category: current.Category, LimitAmount: current.LimitAmount.String()}
		if isSet(fs, "category") {
			form.Category = *category
		}
		if isSet(fs, "limit") {
			form.LimitAmount = *limit
		}
		return show(e.stdout, page, page.Edit(ctx, id, form))

	case "delete":
		id, err := parseWithID(e.flags("budgets delete"), rest)
		if err != nil {
			return err
		}
		return show(e.stdout, page, page.Delete(ctx, id))
	}
	return fmt.Errorf("budgets: %w %q", errUsage, verb)
}

func runReports(ctx context.Context, e *env, args []string) error {
	fs := e.flags("reports")
	period := fs.String("period", string(core.PeriodMonth), "week, month, quarter or year")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := core.ParsePeriod(*period)
	if err != nil {
		return err
	}
	page := pages.NewReportsPage(e.app.Resources.Reports, e.app.Preferences)
	return show(e.stdout, page, page.Load(ctx, p))
}

func runSettings(ctx context.Context, e *env, args []string) error {
	page := pages.NewSettingsPage(e.app.Preferences, e.app.Session, e.app.Client.BaseURL())
	page.Load(ctx)

	verb, rest := subcommand(args, "show")
	switch verb {
	case "show":
		return show(e.stdout, page, nil)
	case "currency":
		if len(rest) != 1 {
			return errors.New("settings currency: expected one currency code")
		}
		return show(e.stdout, page, page.SetCurrency(ctx, strings.ToUpper(rest[0])))
	}
	return fmt.Errorf("settings: %w %q", errUsage, verb)
}
