package ledger

import (
	"encoding/json"
	"errors"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"
)

// Store is the ledger record store backing the marketplace engine.
// One Execute call is one atomic unit of work: every record read, write and
// custody move inside it either all commit or all have zero observable effect.
// Conflicting operations touching the same records cannot both commit from a
// common prior state (badger's transaction conflict detection).
type Store struct {
	db *badger.DB
}

type Options struct {
	Path string
	// InMemory opens a throwaway store (tests).
	InMemory bool
}

var ErrRecordNotFound = errors.New("ledger: record not found")

// ErrSaltMismatch means a record's stored salt does not match its key
// derivation; the record is treated as corrupt.
var ErrSaltMismatch = errors.New("ledger: record salt mismatch")

func Open(opts Options) (*Store, error) {
	if !opts.InMemory && strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("ledger: path is required")
	}
	bopts := badger.DefaultOptions(opts.Path).
		WithLogger(nil).
		WithInMemory(opts.InMemory)
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Txn is one in-flight atomic operation over the record store.
type Txn struct {
	txn *badger.Txn
}

// Execute runs fn inside a read-write transaction. If fn returns an error the
// transaction is discarded and no mutation is observable.
func (s *Store) Execute(fn func(*Txn) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&Txn{txn: txn})
	})
}

// View runs fn inside a read-only transaction.
func (s *Store) View(fn func(*Txn) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&Txn{txn: txn})
	})
}

// Get loads the JSON-encoded record at key into out.
func (t *Txn) Get(key common.Hash, out any) error {
	item, err := t.txn.Get(key.Bytes())
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

// Has reports whether a record exists at key.
func (t *Txn) Has(key common.Hash) (bool, error) {
	_, err := t.txn.Get(key.Bytes())
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Put stores the JSON encoding of rec at key.
func (t *Txn) Put(key common.Hash, rec any) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return t.txn.Set(key.Bytes(), b)
}

// Delete removes the record at key. Deleting a missing record is not an error;
// deposit-refund accounting is the caller's concern.
func (t *Txn) Delete(key common.Hash) error {
	return t.txn.Delete(key.Bytes())
}
