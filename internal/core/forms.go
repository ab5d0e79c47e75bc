package core

import (
	"net/mail"
	"strings"
)

// TransactionForm is raw user input for the Add Expense / Add Income pages
// and for edits.
type TransactionForm struct {
	Type        TransactionType
	Description string
	Amount      string
	Date        string
	Category    string
}

// Parse validates the form and builds the transaction it describes.
// Category input is matched case-insensitively against the category keys.
func (f TransactionForm) Parse() (Transaction, error) {
	if !f.Type.IsValid() {
		return Transaction{}, fieldError("type", ErrInvalidType)
	}
	desc := strings.TrimSpace(f.Description)
	if desc == "" {
		return Transaction{}, fieldError("description", ErrRequired)
	}
	if strings.TrimSpace(f.Amount) == "" {
		return Transaction{}, fieldError("amount", ErrRequired)
	}
	amount, err := ParseMoney(f.Amount)
	if err != nil {
		return Transaction{}, fieldError("amount", err)
	}
	if strings.TrimSpace(f.Date) == "" {
		return Transaction{}, fieldError("date", ErrRequired)
	}
	date, err := ParseDate(f.Date)
	if err != nil {
		return Transaction{}, fieldError("date", err)
	}

	tx := Transaction{
		Type:        f.Type,
		Category:    strings.ToLower(strings.TrimSpace(f.Category)),
		Amount:      amount,
		Description: desc,
		Date:        date,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// BudgetForm is raw user input for adding or editing a budget.
type BudgetForm struct {
	Category    string
	LimitAmount string
}

func (f BudgetForm) Parse() (Budget, error) {
	limit, err := ParseMoney(f.LimitAmount)
	if err != nil {
		return Budget{}, fieldError("limit_amount", err)
	}
	b := Budget{
		Category:    strings.ToLower(strings.TrimSpace(f.Category)),
		LimitAmount: limit,
	}
	if err := b.Validate(); err != nil {
		return Budget{}, err
	}
	return b, nil
}

// LoginForm is the sign-in input.
type LoginForm struct {
	Email    string
	Password string
}

func (f LoginForm) Validate() error {
	if strings.TrimSpace(f.Email) == "" {
		return fieldError("email", ErrRequired)
	}
	if f.Password == "" {
		return fieldError("password", ErrRequired)
	}
	return nil
}

// RegisterForm is the sign-up input.
type RegisterForm struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	AcceptTerms     bool
}

// Validate checks the form in the order the sign-up page reports problems.
func (f RegisterForm) Validate() error {
	email := strings.TrimSpace(f.Email)
	if email == "" {
		return fieldError("email", ErrRequired)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fieldError("email", ErrInvalidEmail)
	}
	if f.Password != f.ConfirmPassword {
		return fieldError("password", ErrPasswordMismatch)
	}
	if len(f.Password) < MinPasswordLength {
		return fieldError("password", ErrPasswordTooShort)
	}
	if !f.AcceptTerms {
		return fieldError("terms", ErrTermsNotAccepted)
	}
	return nil
}

// Names splits the full name into first and last name. Everything after the
// first word is the last name.
func (f RegisterForm) Names() (first, last string) {
	parts := strings.Fields(f.FullName)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

type PasswordStrength string

const (
	PasswordWeak   PasswordStrength = "weak"
	PasswordMedium PasswordStrength = "medium"
	PasswordStrong PasswordStrength = "strong"
)

// StrengthOf grades a password by length only.
func StrengthOf(password string) PasswordStrength {
	switch n := len(password); {
	case n >= MinPasswordLength:
		return PasswordStrong
	case n >= 4:
		return PasswordMedium
	default:
		return PasswordWeak
	}
}
