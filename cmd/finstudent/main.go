package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"finstudent/internal/cli"
	"finstudent/internal/log"
)

const usage = `Usage: finstudent <command> [flags]

Account:
  register                  create an account and sign in
  login                     sign in
  logout                    sign out and forget the stored tokens
  whoami                    show the signed-in user

Money:
  dashboard                 totals, monthly budget, breakdown and recent activity
  transactions [list]       list transactions (-type -category -from -to -search -page)
  transactions edit <id>    replace a transaction (unset flags keep their value)
  transactions delete <id>  delete a transaction
  expense add               record an expense
  income add                record income
  budgets [list]            budgets with spending and insights
  budgets add|edit|delete   manage budgets
  reports [-period P]       week, month, quarter or year (default month)

Settings:
  settings                  show the currency preference
  settings currency <CODE>  set the currency (USD, EUR, GBP, CAD, NGN)
`

var errUsage = errors.New("unknown command")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(stdout, usage)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("%w %q", errUsage, args[0])
	}

	if err := cli.LoadEnvFile(); err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel, stderr)

	store, err := cli.OpenStateStore(logger, cfg.StateDBPath)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	app, err := cli.NewApp(ctx, cfg, store, logger)
	if err != nil {
		store.Close()
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("Failed to close application", log.FieldError, err)
		}
	}()

	env := &env{
		app:    app,
		prompt: cli.NewPrompter(stdin, stdout),
		stdout: stdout,
		stderr: stderr,
	}
	if cmd.auth && !app.Session.IsAuthenticated() {
		return errors.New("not signed in: run `finstudent login` first")
	}
	return cmd.run(ctx, env, args[1:])
}
