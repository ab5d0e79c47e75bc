package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of transaction dates.
const DateLayout = "2006-01-02"

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID        int64  `json:"id"`
		Username  string `json:"username,omitempty"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	Transaction struct {
		ID          int64           `json:"id,omitempty"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Amount      Money           `json:"amount"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
	}

	Budget struct {
		ID          int64  `json:"id,omitempty"`
		Category    string `json:"category"`
		LimitAmount Money  `json:"limit_amount"`
	}
)

// IsValid reports whether t is expense or income.
func (t TransactionType) IsValid() bool {
	return t == Expense || t == Income
}

// FullName joins first and last name, falling back to the email.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current UTC date.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode date: %w", err)
	}
	// DRF DateField emits plain dates; tolerate datetimes from other serializers.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("decode date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return fieldError("type", ErrInvalidType)
	}
	if err := ValidateCategory(t.Type, t.Category); err != nil {
		return fieldError("category", err)
	}
	if err := t.Amount.Validate(); err != nil {
		return fieldError("amount", err)
	}
	if len(t.Description) > MaxDescriptionLength {
		return fieldError("description", ErrDescriptionTooLong)
	}
	if err := t.Date.Validate(); err != nil {
		return fieldError("date", err)
	}
	return nil
}

func (b Budget) Validate() error {
	if err := ValidateCategory(Expense, b.Category); err != nil {
		return fieldError("category", err)
	}
	if err := b.LimitAmount.Validate(); err != nil {
		return fieldError("limit_amount", err)
	}
	return nil
}
