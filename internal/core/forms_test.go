package core

import (
	"errors"
	"testing"
)

func TestTransactionForm_Parse(t *testing.T) {
	tx, err := TransactionForm{
		Type:        Income,
		Description: " Monthly stipend ",
		Amount:      "250,50",
		Date:        "2025-02-01",
		Category:    "Scholarship",
	}.Parse()
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if tx.Amount.Cents != 25050 || tx.Category != "scholarship" || tx.Description != "Monthly stipend" {
		t.Errorf("unexpected transaction: %+v", tx)
	}
	if tx.Date.String() != "2025-02-01" {
		t.Errorf("date = %s", tx.Date)
	}
}

func TestTransactionForm_ParseRejects(t *testing.T) {
	base := TransactionForm{Type: Expense, Description: "Metro Pass", Amount: "2.75", Date: "2025-01-10", Category: "transport"}

	tests := []struct {
		name   string
		mutate func(f *TransactionForm)
		field  string
		err    error
	}{
		{"negative amount", func(f *TransactionForm) { f.Amount = "-5" }, "amount", ErrInvalidAmount},
		{"zero amount", func(f *TransactionForm) { f.Amount = "0" }, "amount", ErrInvalidAmount},
		{"missing amount", func(f *TransactionForm) { f.Amount = " " }, "amount", ErrRequired},
		{"missing description", func(f *TransactionForm) { f.Description = "" }, "description", ErrRequired},
		{"missing date", func(f *TransactionForm) { f.Date = "" }, "date", ErrRequired},
		{"bad date", func(f *TransactionForm) { f.Date = "10/01/2025" }, "date", ErrInvalidDate},
		{"missing category", func(f *TransactionForm) { f.Category = "" }, "category", ErrEmptyCategory},
		{"wrong category set", func(f *TransactionForm) { f.Category = "bonus" }, "category", ErrUnknownCategory},
		{"bad type", func(f *TransactionForm) { f.Type = "" }, "type", ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			tt.mutate(&f)
			_, err := f.Parse()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field || !errors.Is(err, tt.err) {
				t.Errorf("got %v (field %q), want field %q err %v", err, ve.Field, tt.field, tt.err)
			}
		})
	}
}

func TestBudgetForm_Parse(t *testing.T) {
	b, err := BudgetForm{Category: "Food", LimitAmount: "400"}.Parse()
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if b.Category != "food" || b.LimitAmount.Cents != 40000 {
		t.Errorf("unexpected budget: %+v", b)
	}
	if _, err := (BudgetForm{Category: "food", LimitAmount: "0"}).Parse(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestLoginForm_Validate(t *testing.T) {
	if err := (LoginForm{Email: "a@b.com", Password: "x"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (LoginForm{Password: "x"}).Validate(); !errors.Is(err, ErrRequired) {
		t.Errorf("expected ErrRequired, got %v", err)
	}
	if err := (LoginForm{Email: "a@b.com"}).Validate(); !errors.Is(err, ErrRequired) {
		t.Errorf("expected ErrRequired, got %v", err)
	}
}

func TestRegisterForm_Validate(t *testing.T) {
	good := RegisterForm{
		FullName:        "Alex Van Doe",
		Email:           "alex@uni.edu",
		Password:        "correcthorse",
		ConfirmPassword: "correcthorse",
		AcceptTerms:     true,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, last := good.Names()
	if first != "Alex" || last != "Van Doe" {
		t.Errorf("Names() = %q, %q", first, last)
	}

	tests := []struct {
		name   string
		mutate func(f *RegisterForm)
		err    error
	}{
		{"mismatch", func(f *RegisterForm) { f.ConfirmPassword = "different1" }, ErrPasswordMismatch},
		{"too short", func(f *RegisterForm) { f.Password, f.ConfirmPassword = "short", "short" }, ErrPasswordTooShort},
		{"terms", func(f *RegisterForm) { f.AcceptTerms = false }, ErrTermsNotAccepted},
		{"email", func(f *RegisterForm) { f.Email = "not-an-email" }, ErrInvalidEmail},
		{"missing email", func(f *RegisterForm) { f.Email = "" }, ErrRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := good
			tt.mutate(&f)
			if err := f.Validate(); !errors.Is(err, tt.err) {
				t.Errorf("Validate() = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestStrengthOf(t *testing.T) {
	cases := map[string]PasswordStrength{
		"":         PasswordWeak,
		"abc":      PasswordWeak,
		"abcd":     PasswordMedium,
		"abcdefg":  PasswordMedium,
		"abcdefgh": PasswordStrong,
	}
	for in, want := range cases {
		if got := StrengthOf(in); got != want {
			t.Errorf("StrengthOf(%q) = %s, want %s", in, got, want)
		}
	}
}
