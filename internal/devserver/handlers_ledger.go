package devserver

import (
	"errors"
	"net/http"

	"finstudent/internal/core"
	"finstudent/internal/log"
)

// decodeTransaction reads and validates a transaction body. On failure the
// response has been written and ok is false.
func decodeTransaction(w http.ResponseWriter, r *http.Request, force core.TransactionType) (tx core.Transaction, ok bool) {
	if err := decodeJSON(w, r, &tx); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return tx, false
	}
	if force != "" {
		tx.Type = force
	}
	if err := tx.Validate(); err != nil {
		FieldErrors(validationErrors(err)).Write(w)
		return tx, false
	}
	return tx, true
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		NotFoundError().Write(w)
	case errors.Is(err, ErrDuplicateBudget):
		fieldError("non_field_errors", "The fields user, category must make a unique set.").Write(w)
	default:
		log.FromContext(r.Context()).Error("Store operation failed", log.FieldError, err)
		ErrorResponse(http.StatusInternalServerError, "A server error occurred.").Write(w)
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	q, errs := parseTransactionQuery(r)
	if errs != nil {
		FieldErrors(errs).Write(w)
		return
	}
	writePage(w, r, s.store.Transactions(user.ID, q))
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request, user core.User, force core.TransactionType) {
	tx, ok := decodeTransaction(w, r, force)
	if !ok {
		return
	}
	created, err := s.store.CreateTransaction(user.ID, tx)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	s.createTransaction(w, r, user, "")
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	id, ok := pathID(r)
	if !ok {
		NotFoundError().Write(w)
		return
	}
	tx, err := s.store.Transaction(user.ID, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	NewResponse().JSON(tx).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	id, ok := pathID(r)
	if !ok {
		NotFoundError().Write(w)
		return
	}
	tx, ok := decodeTransaction(w, r, "")
	if !ok {
		return
	}
	updated, err := s.store.UpdateTransaction(user.ID, id, tx)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	NewResponse().JSON(updated).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	id, ok := pathID(r)
	if !ok {
		NotFoundError().Write(w)
		return
	}
	if err := s.store.DeleteTransaction(user.ID, id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, user core.User) {
	q, errs := parseTransactionQuery(r)
	if errs != nil {
		FieldErrors(errs).Write(w)
		return
	}
	q.Type = core.Expense
	writePage(w, r, s.store.Transactions(user.ID, q))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	s.createTransaction(w, r, user, core.Expense)
}

type choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func (s *Server) handleExpenseCategories(w http.ResponseWriter, r *http.Request, user core.User) {
	out := make([]choice, 0, len(core.ExpenseCategories))
	for _, c := range core.ExpenseCategories {
		out = append(out, choice{Value: c.Key, Label: c.Name})
	}
	writeList(w, out)
}

func decodeBudget(w http.ResponseWriter, r *http.Request) (b core.Budget, ok bool) {
	if err := decodeJSON(w, r, &b); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return b, false
	}
	if err := b.Validate(); err != nil {
		FieldErrors(validationErrors(err)).Write(w)
		return b, false
	}
	return b, true
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, user core.User) {
	writePage(w, r, s.store.Budgets(user.ID))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	b, ok := decodeBudget(w, r)
	if !ok {
		return
	}
	created, err := s.store.CreateBudget(user.ID, b)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	id, ok := pathID(r)
	if !ok {
		NotFoundError().Write(w)
		return
	}
	b, err := s.store.Budget(user.ID, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	NewResponse().JSON(b).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	id, ok := pathID(r)
	if !ok {
		NotFoundError().Write(w)
		return
	}
	b, ok := decodeBudget(w, r)
	if !ok {
		return
	}
	updated, err := s.store.UpdateBudget(user.ID, id, b)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	NewResponse().JSON(updated).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	id, ok := pathID(r)
	if !ok {
		NotFoundError().Write(w)
		return
	}
	if err := s.store.DeleteBudget(user.ID, id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) monthTransactions(userID int64) []core.Transaction {
	return s.store.Transactions(userID, monthRange(s.store.Today()))
}

func (s *Server) handleSpendingVsBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	writeList(w, spendingVsBudget(s.store.Budgets(user.ID), s.monthTransactions(user.ID)))
}
