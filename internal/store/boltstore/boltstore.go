// Package boltstore is the durable Store implementation, backed by
// go.etcd.io/bbolt. It trades memstore's simplicity for a persistence
// file surviving process restarts, selected whenever config.Database.Path
// is set (SPEC_FULL.md §4.6).
package boltstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/ibsim/gateway/internal/store"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/crypto/bcrypt"
)

var (
	bucketAccounts   = []byte("accounts")
	bucketPositions  = []byte("positions")
	bucketOrders     = []byte("orders")
	bucketContracts  = []byte("contracts")
	bucketExecutions = []byte("executions")
)

type accountRecord struct {
	Summary      store.AccountSummary
	Username     string
	PasswordHash []byte
	AccountType  string
}

// Store is a bbolt-backed Store. Construct with Open.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the database file at path and
// seeds it with accounts/symbols on first run, mirroring the original
// db_manager's "_initialize_default_data if tables are empty" check.
func Open(path string, accounts []store.AccountSeed, symbols []string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}
	s := &Store{db: db}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketAccounts, bucketPositions, bucketOrders, bucketContracts, bucketExecutions} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: create buckets: %w", err)
	}

	if err := s.seedIfEmpty(accounts, symbols); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) seedIfEmpty(accounts []store.AccountSeed, symbols []string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		ab := tx.Bucket(bucketAccounts)
		if ab.Stats().KeyN == 0 {
			for _, a := range accounts {
				hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
				if err != nil {
					return fmt.Errorf("hash password for %s: %w", a.AccountID, err)
				}
				currency := a.BaseCurrency
				if currency == "" {
					currency = "USD"
				}
				rec := accountRecord{
					Summary: store.AccountSummary{
						AccountID:      a.AccountID,
						NetLiquidation: a.InitialBalance,
						CashBalance:    a.InitialBalance,
						BaseCurrency:   currency,
					},
					Username:     a.Username,
					PasswordHash: hash,
					AccountType:  a.AccountType,
				}
				if err := putGob(ab, []byte(a.AccountID), rec); err != nil {
					return err
				}
			}
		}

		cb := tx.Bucket(bucketContracts)
		if cb.Stats().KeyN == 0 {
			conID := int64(1000)
			for _, symbol := range symbols {
				c := store.Contract{
					ConID: conID, Symbol: symbol, SecurityType: "STK",
					Exchange: "SMART", Currency: "USD", LocalSymbol: symbol,
					TradingClass: symbol, Multiplier: 1,
				}
				if err := putGob(cb, []byte(contractKey(symbol, "STK")), c); err != nil {
					return err
				}
				conID++
			}
		}
		return nil
	})
}

func contractKey(symbol, secType string) string { return symbol + "|" + secType }

func putGob(b *bolt.Bucket, key []byte, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return b.Put(key, buf.Bytes())
}

func getGob(b *bolt.Bucket, key []byte, v any) (bool, error) {
	raw := b.Get(key)
	if raw == nil {
		return false, nil
	}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(v); err != nil {
		return false, fmt.Errorf("decode: %w", err)
	}
	return true, nil
}

func (s *Store) GetAccountSummary(accountID string) (store.AccountSummary, bool, error) {
	var rec accountRecord
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		found, err = getGob(tx.Bucket(bucketAccounts), []byte(accountID), &rec)
		return err
	})
	if err != nil || !found {
		return store.AccountSummary{}, false, err
	}
	return rec.Summary, true, nil
}

// Authenticate mirrors memstore.Store.Authenticate; like it, it is not
// part of the store.Store interface and no dispatched message calls it.
func (s *Store) Authenticate(username, password string) (accountID string, ok bool) {
	_ = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAccounts).ForEach(func(k, v []byte) error {
			var rec accountRecord
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&rec); err != nil {
				return nil
			}
			if rec.Username != username {
				return nil
			}
			if bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)) == nil {
				accountID, ok = string(k), true
			}
			return nil
		})
	})
	return accountID, ok
}

func (s *Store) GetPositions(accountID string) ([]store.Position, error) {
	var out []store.Position
	err := s.db.View(func(tx *bolt.Tx) error {
		var list []store.Position
		found, err := getGob(tx.Bucket(bucketPositions), []byte(accountID), &list)
		if err != nil || !found {
			return err
		}
		out = list
		return nil
	})
	return out, err
}

func (s *Store) UpdatePosition(accountID string, p store.Position) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPositions)
		var list []store.Position
		if _, err := getGob(b, []byte(accountID), &list); err != nil {
			return err
		}
		replaced := false
		for i, existing := range list {
			if existing.ConID == p.ConID {
				list[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, p)
		}
		return putGob(b, []byte(accountID), list)
	})
}

func (s *Store) GetOpenOrders(accountID string) ([]store.Order, error) {
	var out []store.Order
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOrders).ForEach(func(k, v []byte) error {
			var o store.Order
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&o); err != nil {
				return nil
			}
			if o.AccountID == accountID && o.Status != "Filled" && o.Status != "Cancelled" {
				out = append(out, o)
			}
			return nil
		})
	})
	return out, err
}

func (s *Store) GetContractBySymbol(symbol, secType string) (store.Contract, bool, error) {
	var c store.Contract
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		found, err = getGob(tx.Bucket(bucketContracts), []byte(contractKey(symbol, secType)), &c)
		return err
	})
	return c, found, err
}

func (s *Store) CreateOrder(o store.Order) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putGob(tx.Bucket(bucketOrders), orderKey(o.OrderID), o)
	})
}

func orderKey(orderID int64) []byte { return []byte(fmt.Sprintf("%020d", orderID)) }

func (s *Store) UpdateOrderStatus(orderID int64, status string, filled, remaining, avgFillPrice float64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketOrders)
		var o store.Order
		found, err := getGob(b, orderKey(orderID), &o)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("boltstore: unknown order %d", orderID)
		}
		o.Status = status
		o.FilledQty = filled
		return putGob(b, orderKey(orderID), o)
	})
}

func (s *Store) RecordExecution(e store.Execution) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putGob(tx.Bucket(bucketExecutions), []byte(e.ExecID), e)
	})
}

func (s *Store) UpdateMarketData(conID int64, bid, ask, last float64) error {
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
