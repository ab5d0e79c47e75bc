package resources

import (
	"context"
	"encoding/json"
	"net/http"

	"finstudent/internal/api"
	"finstudent/internal/core"
)

const (
	pathExpenses          = "/expenses/"
	pathExpenseCategories = "/expenses/categories/"
)

type Expenses struct {
	doer Doer
}

// Create records an expense through the expense shortcut endpoint.
func (e *Expenses) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Type = core.Expense
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = 0
	return do[core.Transaction](ctx, e.doer, api.Request{Method: http.MethodPost, Path: pathExpenses, Body: tx})
}

// Categories returns the server's expense categories. Entries may be plain
// keys or {value, label} choice objects.
func (e *Expenses) Categories(ctx context.Context) ([]core.Category, error) {
	raw, _, err := doList[json.RawMessage](ctx, e.doer, api.Request{Path: pathExpenseCategories})
	if err != nil {
		return nil, err
	}
	out := make([]core.Category, 0, len(raw))
	for _, item := range raw {
		var key string
		if err := json.Unmarshal(item, &key); err == nil {
			out = append(out, core.Category{Key: key, Name: core.CategoryName(key)})
			continue
		}
		var choice struct {
			Value string `json:"value"`
			Label string `json:"label"`
		}
		if err := json.Unmarshal(item, &choice); err != nil || choice.Value == "" {
			return nil, &api.Error{Message: "unexpected category entry: " + string(item)}
		}
		name := choice.Label
		if name == "" {
			name = core.CategoryName(choice.Value)
		}
		out = append(out, core.Category{Key: choice.Value, Name: name})
	}
	return out, nil
}
