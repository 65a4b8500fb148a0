// Package store persists serialized account identity records between
// restarts. Only the minimal record is stored, never full account state.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/vedran77/pulsedesk/internal/account"
)

var bucketAccounts = []byte("accounts")

// Store is a single-file bbolt database keyed by account id.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening account store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAccounts)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating accounts bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveAccount writes the record under its account id.
func (s *Store) SaveAccount(rec account.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAccounts).Put([]byte(rec.ID), data)
	})
}

// GetAccount returns the record for id, or nil if absent.
func (s *Store) GetAccount(id string) (*account.Record, error) {
	var rec *account.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketAccounts).Get([]byte(id))
		if data == nil {
			return nil
		}
		rec = &account.Record{}
		return json.Unmarshal(data, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListAccounts returns every stored record in key order.
func (s *Store) ListAccounts() ([]account.Record, error) {
	var recs []account.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAccounts).ForEach(func(_, v []byte) error {
			var rec account.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// DeleteAccount removes the record for id. Deleting an absent record is
// not an error.
func (s *Store) DeleteAccount(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAccounts).Delete([]byte(id))
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
