package devserver

import (
	"fmt"

	"finstudent/internal/core"
)

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo-password"
)

// SeedDemo registers the demo account with a month of sample data ending
// today.
func (s *Store) SeedDemo() (core.User, error) {
	user, err := s.Register(DemoEmail, DemoPassword, "Demo", "Student")
	if err != nil {
		return core.User{}, fmt.Errorf("seed demo user: %w", err)
	}

	today := s.Today()
	day := func(back int) core.Date { return core.Date{Time: today.AddDate(0, 0, -back)} }
	txs := []core.Transaction{
		{Type: core.Income, Category: "scholarship", Amount: core.NewMoney(120000), Description: "Semester stipend", Date: day(20)},
		{Type: core.Income, Category: "part-time job", Amount: core.NewMoney(35000), Description: "Library shifts", Date: day(6)},
		{Type: core.Expense, Category: "food", Amount: core.NewMoney(4250), Description: "Groceries", Date: day(1)},
		{Type: core.Expense, Category: "food", Amount: core.NewMoney(1880), Description: "Campus cafe", Date: day(3)},
		{Type: core.Expense, Category: "transport", Amount: core.NewMoney(3000), Description: "Bus pass", Date: day(9)},
		{Type: core.Expense, Category: "education", Amount: core.NewMoney(8999), Description: "Textbooks", Date: day(12)},
		{Type: core.Expense, Category: "entertainment", Amount: core.NewMoney(1500), Description: "Cinema", Date: day(4)},
		{Type: core.Expense, Category: "utilities", Amount: core.NewMoney(4500), Description: "Phone plan", Date: day(15)},
	}
	for _, tx := range txs {
		if _, err := s.CreateTransaction(user.ID, tx); err != nil {
			return core.User{}, fmt.Errorf("seed demo transaction: %w", err)
		}
	}

	budgets := []core.Budget{
		{Category: "food", LimitAmount: core.NewMoney(25000)},
		{Category: "transport", LimitAmount: core.NewMoney(5000)},
		{Category: "entertainment", LimitAmount: core.NewMoney(4000)},
	}
	for _, b := range budgets {
		if _, err := s.CreateBudget(user.ID, b); err != nil {
			return core.User{}, fmt.Errorf("seed demo budget: %w", err)
		}
	}
	return user, nil
}
