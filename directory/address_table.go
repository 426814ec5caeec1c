package directory

import (
	stderrors "errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// AddressTable maps the local usernames of a zone to their private address.
// Put overwrites silently: the last registration wins.
type AddressTable interface {
	Put(name, address string) error
	Get(name string) (string, bool, error)
	All() (map[string]string, error)
	Close() error
}

type MemoryAddressTable struct {
	mu        sync.RWMutex
	addresses map[string]string
}

func NewMemoryAddressTable() *MemoryAddressTable {
	return &MemoryAddressTable{addresses: make(map[string]string)}
}

func (t *MemoryAddressTable) Put(name, address string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addresses[name] = address
	return nil
}

func (t *MemoryAddressTable) Get(name string) (string, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	address, ok := t.addresses[name]
	return address, ok, nil
}

func (t *MemoryAddressTable) All() (map[string]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res := make(map[string]string, len(t.addresses))
	for k, v := range t.addresses {
		res[k] = v
	}
	return res, nil
}

func (t *MemoryAddressTable) Close() error { return nil }

const addressKeyPrefix = "address:"

// BadgerAddressTable keeps the table in an in-memory badger instance.
// Nothing reaches the disk: registrations are lost on restart like the map version.
type BadgerAddressTable struct {
	db *badger.DB
}

func NewBadgerAddressTable() (*BadgerAddressTable, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("in-memory badger opening failed: %w", err)
	}
	return &BadgerAddressTable{db: db}, nil
}

func (t *BadgerAddressTable) Put(name, address string) error {
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(addressKey(name), []byte(address))
	})
}

func (t *BadgerAddressTable) Get(name string) (string, bool, error) {
	var address string
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(addressKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			address = string(val)
			return nil
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return address, true, nil
}

func (t *BadgerAddressTable) All() (map[string]string, error) {
	res := make(map[string]string)
	err := t.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(addressKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			name := string(item.Key()[len(prefix):])
			if err := item.Value(func(val []byte) error {
				res[name] = string(val)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return res, err
}

func (t *BadgerAddressTable) Close() error {
	return t.db.Close()
}

func addressKey(name string) []byte {
	return []byte(addressKeyPrefix + name)
}

// SortedNames returns the keys of a table listing in lexical order.
func SortedNames(addresses map[string]string) []string {
	names := lo.Keys(addresses)
	slices.Sort(names)
	return names
}
