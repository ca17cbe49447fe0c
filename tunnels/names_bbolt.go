package tunnels

import (
	"fmt"

	"go.etcd.io/bbolt"
)

var namesBucket = []byte("custom_names")

// BoltNameStore is a NameStore backed by a BBolt database, so custom
// tunnel names survive server restarts.
type BoltNameStore struct {
	db *bbolt.DB
}

var _ NameStore = (*BoltNameStore)(nil)

// NewBoltNameStore wraps an open BBolt database.
func NewBoltNameStore(db *bbolt.DB) (*BoltNameStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(namesBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating names bucket: %w", err)
	}
	return &BoltNameStore{db: db}, nil
}

// NewBoltNameStoreFromFile opens (or creates) a BBolt database at path.
func NewBoltNameStoreFromFile(path string) (*BoltNameStore, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening names db: %w", err)
	}
	return NewBoltNameStore(db)
}

// Close closes the underlying database.
func (s *BoltNameStore) Close() error {
	return s.db.Close()
}

func (s *BoltNameStore) Get(tunnelID string) (string, bool) {
	var name string
	var ok bool
	_ = s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(namesBucket).Get([]byte(tunnelID))
		if data != nil {
			name, ok = string(data), true
		}
		return nil
	})
	return name, ok
}

func (s *BoltNameStore) Set(tunnelID, name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(namesBucket).Put([]byte(tunnelID), []byte(name))
	})
}
