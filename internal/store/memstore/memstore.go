// Package memstore is the default Store implementation: an in-memory,
// mutex-guarded map seeded at startup. It satisfies spec.md §4.6's
// "synchronous, thread-safe" contract without pulling in the SQL
// engine spec.md §1 explicitly scopes out of the core.
package memstore

import (
	"fmt"
	"sync"

	"github.com/ibsim/gateway/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	summary      store.AccountSummary
	username     string
	passwordHash []byte
	accountType  string
}

// Store is a sync.RWMutex-guarded in-memory Store. The zero value is
// not usable; construct with New.
type Store struct {
	mu sync.RWMutex

	accounts  map[string]*account
	positions map[string][]store.Position // accountID -> positions
	orders    map[int64]store.Order
	contracts map[string]store.Contract // symbol|secType -> contract
	nextConID int64
}

// New builds a Store seeded from accounts and symbols, the same
// default-data step the original db_manager performs on first run.
func New(accounts []store.AccountSeed, symbols []string) (*Store, error) {
	s := &Store{
		accounts:  make(map[string]*account),
		positions: make(map[string][]store.Position),
		orders:    make(map[int64]store.Order),
		contracts: make(map[string]store.Contract),
		nextConID: 1000,
	}

	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("memstore: hash password for %s: %w", a.AccountID, err)
		}
		currency := a.BaseCurrency
		if currency == "" {
			currency = "USD"
		}
		s.accounts[a.AccountID] = &account{
			summary: store.AccountSummary{
				AccountID:      a.AccountID,
				NetLiquidation: a.InitialBalance,
				CashBalance:    a.InitialBalance,
				BaseCurrency:   currency,
			},
			username:     a.Username,
			passwordHash: hash,
			accountType:  a.AccountType,
		}
	}

	for _, symbol := range symbols {
		conID := s.nextConID
		s.nextConID++
		s.contracts[key(symbol, "STK")] = store.Contract{
			ConID: conID, Symbol: symbol, SecurityType: "STK",
			Exchange: "SMART", Currency: "USD", LocalSymbol: symbol,
			TradingClass: symbol, Multiplier: 1,
		}
	}

	return s, nil
}

func key(symbol, secType string) string { return symbol + "|" + secType }

func (s *Store) GetAccountSummary(accountID string) (store.AccountSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return store.AccountSummary{}, false, nil
	}
	return a.summary, true, nil
}

func (s *Store) GetPositions(accountID string) ([]store.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Position, len(s.positions[accountID]))
	copy(out, s.positions[accountID])
	return out, nil
}

func (s *Store) GetOpenOrders(accountID string) ([]store.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Order
	for _, o := range s.orders {
		if o.AccountID == accountID && o.Status != "Filled" && o.Status != "Cancelled" {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) GetContractBySymbol(symbol, secType string) (store.Contract, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contracts[key(symbol, secType)]
	return c, ok, nil
}

func (s *Store) CreateOrder(o store.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.OrderID] = o
	return nil
}

func (s *Store) UpdateOrderStatus(orderID int64, status string, filled, remaining, avgFillPrice float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return fmt.Errorf("memstore: unknown order %d", orderID)
	}
	o.Status = status
	o.FilledQty = filled
	s.orders[orderID] = o
	return nil
}

func (s *Store) RecordExecution(store.Execution) error {
	// memstore does not keep executions: the record is accepted and
	// discarded, and nothing reads executions back. boltstore persists
	// them in its executions bucket.
	return nil
}

func (s *Store) UpdateMarketData(conID int64, bid, ask, last float64) error {
	return nil
}

func (s *Store) UpdatePosition(accountID string, p store.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	positions := s.positions[accountID]
	for i, existing := range positions {
		if existing.ConID == p.ConID {
			positions[i] = p
			s.positions[accountID] = positions
			return nil
		}
	}
	s.positions[accountID] = append(positions, p)
	return nil
}

// Authenticate checks username/password against the seeded accounts.
// It corresponds to the original db_manager's authenticate_user; it is
// not part of the store.Store interface and no dispatched message
// calls it.
func (s *Store) Authenticate(username, password string) (accountID string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, a := range s.accounts {
		if a.username != username {
			continue
		}
		if bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) != nil {
			return "", false
		}
		return id, true
	}
	return "", false
}

func (s *Store) Close() error { return nil }
