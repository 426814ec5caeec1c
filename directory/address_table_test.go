package directory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressTable(t *testing.T) {
	tables := map[string]func() (AddressTable, error){
		"memory": func() (AddressTable, error) { return NewMemoryAddressTable(), nil },
		"badger": func() (AddressTable, error) { return NewBadgerAddressTable() },
	}

	for name, open := range tables {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			table, err := open()
			req.NoError(err)
			defer func() { req.NoError(table.Close()) }()

			// Given an empty table
			_, found, err := table.Get("alice")
			req.NoError(err)
			req.False(found)

			// When two users register, one of them twice
			req.NoError(table.Put("alice", "127.0.0.1:9001"))
			req.NoError(table.Put("bob", "127.0.0.1:9100"))
			req.NoError(table.Put("alice", "127.0.0.1:9002"))

			// Then the last write wins
			address, found, err := table.Get("alice")
			req.NoError(err)
			req.True(found)
			req.Equal("127.0.0.1:9002", address)

			all, err := table.All()
			req.NoError(err)
			req.Equal(map[string]string{
				"alice": "127.0.0.1:9002",
				"bob":   "127.0.0.1:9100",
			}, all)
			req.Equal([]string{"alice", "bob"}, SortedNames(all))
		})
	}
}
