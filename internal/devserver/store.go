package devserver

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"finstudent/internal/core"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateBudget    = errors.New("a budget for this category already exists")
	ErrPasswordTooLong    = errors.New("password longer than 72 bytes")
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

type account struct {
	user core.User
	hash []byte
}

type grant struct {
	userID  int64
	expires time.Time
}

type ledger struct {
	transactions map[int64]core.Transaction
	budgets      map[int64]core.Budget
}

// Store keeps every user's data in memory. All methods are safe for
// concurrent use.
type Store struct {
	mu         sync.RWMutex
	now        func() time.Time
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int

	nextID   int64
	accounts map[int64]*account
	byEmail  map[string]int64
	access   map[string]grant
	refresh  map[string]grant
	ledgers  map[int64]*ledger
}

func NewStore(accessTTL, refreshTTL time.Duration) *Store {
	return &Store{
		now:        time.Now,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		bcryptCost: bcrypt.DefaultCost,
		accounts:   make(map[int64]*account),
		byEmail:    make(map[string]int64),
		access:     make(map[string]grant),
		refresh:    make(map[string]grant),
		ledgers:    make(map[int64]*ledger),
	}
}

// Today is the store clock's current date.
func (s *Store) Today() core.Date {
	now := s.now().UTC()
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) Register(email, password, first, last string) (core.User, error) {
	if len(password) > MaxPasswordBytes {
		return core.User{}, ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return core.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(email)
	if _, ok := s.byEmail[key]; ok {
		return core.User{}, ErrEmailTaken
	}
	u := core.User{
		ID:        s.id(),
		Username:  strings.TrimSpace(email),
		Email:     strings.TrimSpace(email),
		FirstName: first,
		LastName:  last,
	}
	s.accounts[u.ID] = &account{user: u, hash: hash}
	s.byEmail[key] = u.ID
	s.ledgers[u.ID] = &ledger{
		transactions: make(map[int64]core.Transaction),
		budgets:      make(map[int64]core.Budget),
	}
	return u, nil
}

func (s *Store) Authenticate(email, password string) (core.User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[normalizeEmail(email)]
	var acc *account
	if ok {
		acc = s.accounts[id]
	}
	s.mu.RUnlock()

	if acc == nil || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return core.User{}, ErrInvalidCredentials
	}
	return acc.user, nil
}

// IssueTokens creates a fresh access/refresh pair for userID.
func (s *Store) IssueTokens(userID int64) (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	access = uuid.NewString()
	refresh = uuid.NewString()
	s.access[access] = grant{userID: userID, expires: now.Add(s.accessTTL)}
	s.refresh[refresh] = grant{userID: userID, expires: now.Add(s.refreshTTL)}
	return access, refresh
}

// Refresh exchanges a refresh token for a new access token.
func (s *Store) Refresh(refresh string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	g, ok := s.refresh[refresh]
	if !ok || now.After(g.expires) {
		delete(s.refresh, refresh)
		return "", ErrTokenInvalid
	}
	access := uuid.NewString()
	s.access[access] = grant{userID: g.userID, expires: now.Add(s.accessTTL)}
	return access, nil
}

// UserForAccess resolves a bearer token.
func (s *Store) UserForAccess(token string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.access[token]
	if !ok || s.now().After(g.expires) {
		delete(s.access, token)
		return core.User{}, ErrTokenInvalid
	}
	acc, ok := s.accounts[g.userID]
	if !ok {
		return core.User{}, ErrTokenInvalid
	}
	return acc.user, nil
}

// Revoke invalidates an access token and every refresh token of its user.
func (s *Store) Revoke(access string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.access[access]
	if !ok {
		return
	}
	delete(s.access, access)
	for tok, r := range s.refresh {
		if r.userID == g.userID {
			delete(s.refresh, tok)
		}
	}
}

// TransactionQuery mirrors the list filters of /transactions/.
type TransactionQuery struct {
	Type     core.TransactionType
	Category string
	From     core.Date
	To       core.Date
	Search   string
}

func (q TransactionQuery) match(tx core.Transaction) bool {
	if q.Type != "" && tx.Type != q.Type {
		return false
	}
	if q.Category != "" && !strings.EqualFold(tx.Category, q.Category) {
		return false
	}
	if !q.From.IsZero() && tx.Date.Before(q.From.Time) {
		return false
	}
	if !q.To.IsZero() && tx.Date.After(q.To.Time) {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(tx.Description), needle) &&
			!strings.Contains(strings.ToLower(tx.Category), needle) {
			return false
		}
	}
	return true
}

// Transactions returns the user's matching transactions, newest first.
func (s *Store) Transactions(userID int64, q TransactionQuery) []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := s.ledgers[userID]
	if l == nil {
		return nil
	}
	out := make([]core.Transaction, 0, len(l.transactions))
	for _, tx := range l.transactions {
		if q.match(tx) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) Transaction(userID, id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l := s.ledgers[userID]; l != nil {
		if tx, ok := l.transactions[id]; ok {
			return tx, nil
		}
	}
	return core.Transaction{}, ErrNotFound
}

func (s *Store) CreateTransaction(userID int64, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledgers[userID]
	if l == nil {
		return core.Transaction{}, ErrNotFound
	}
	tx.ID = s.id()
	l.transactions[tx.ID] = tx
	return tx, nil
}

func (s *Store) UpdateTransaction(userID, id int64, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledgers[userID]
	if l == nil {
		return core.Transaction{}, ErrNotFound
	}
	if _, ok := l.transactions[id]; !ok {
		return core.Transaction{}, ErrNotFound
	}
	tx.ID = id
	l.transactions[id] = tx
	return tx, nil
}

func (s *Store) DeleteTransaction(userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledgers[userID]
	if l == nil {
		return ErrNotFound
	}
	if _, ok := l.transactions[id]; !ok {
		return ErrNotFound
	}
	delete(l.transactions, id)
	return nil
}

// Budgets returns the user's budgets ordered by category.
func (s *Store) Budgets(userID int64) []core.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := s.ledgers[userID]
	if l == nil {
		return nil
	}
	out := make([]core.Budget, 0, len(l.budgets))
	for _, b := range l.budgets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

func (s *Store) Budget(userID, id int64) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l := s.ledgers[userID]; l != nil {
		if b, ok := l.budgets[id]; ok {
			return b, nil
		}
	}
	return core.Budget{}, ErrNotFound
}

// categoryTaken reports whether another budget of l already uses category.
func (l *ledger) categoryTaken(category string, except int64) bool {
	for id, b := range l.budgets {
		if id != except && b.Category == category {
			return true
		}
	}
	return false
}

func (s *Store) CreateBudget(userID int64, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledgers[userID]
	if l == nil {
		return core.Budget{}, ErrNotFound
	}
	if l.categoryTaken(b.Category, 0) {
		return core.Budget{}, ErrDuplicateBudget
	}
	b.ID = s.id()
	l.budgets[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBudget(userID, id int64, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledgers[userID]
	if l == nil {
		return core.Budget{}, ErrNotFound
	}
	if _, ok := l.budgets[id]; !ok {
		return core.Budget{}, ErrNotFound
	}
	if l.categoryTaken(b.Category, id) {
		return core.Budget{}, ErrDuplicateBudget
	}
	b.ID = id
	l.budgets[id] = b
	return b, nil
}

func (s *Store) DeleteBudget(userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledgers[userID]
	if l == nil {
		return ErrNotFound
	}
	if _, ok := l.budgets[id]; !ok {
		return ErrNotFound
	}
	delete(l.budgets, id)
	return nil
}
