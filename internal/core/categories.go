package core

import "strings"

// Category is one entry of the fixed category sets.
type Category struct {
	Key  string
	Name string
}

var (
	// ExpenseCategories are the categories accepted for expenses and budgets.
	ExpenseCategories = []Category{
		{"food", "Food & Groceries"},
		{"transport", "Transport"},
		{"entertainment", "Entertainment"},
		{"utilities", "Utilities"},
		{"education", "Education"},
		{"health", "Health & Medical"},
		{"shopping", "Shopping"},
		{"other", "Other"},
	}

	// IncomeCategories are the categories accepted for income.
	IncomeCategories = []Category{
		{"salary", "Salary"},
		{"freelance", "Freelance"},
		{"scholarship", "Scholarship"},
		{"part-time job", "Part-time Job"},
		{"internship", "Internship"},
		{"bonus", "Bonus"},
		{"investment", "Investment"},
		{"gift", "Gift"},
		{"allowance", "Allowance"},
	}
)

// CategoriesFor returns the category set of a transaction type.
func CategoriesFor(t TransactionType) []Category {
	if t == Income {
		return IncomeCategories
	}
	return ExpenseCategories
}

// ValidateCategory checks that key belongs to the set of t.
func ValidateCategory(t TransactionType, key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyCategory
	}
	for _, c := range CategoriesFor(t) {
		if c.Key == key {
			return nil
		}
	}
	return ErrUnknownCategory
}

// CategoryName returns the display name for a category key, or the key itself.
func CategoryName(key string) string {
	for _, set := range [][]Category{ExpenseCategories, IncomeCategories} {
		for _, c := range set {
			if c.Key == key {
				return c.Name
			}
		}
	}
	return key
}
