package notify

import (
	"encoding/json"
	"errors"
	"fmt"

	"workhub-agent/internal/models"

	"github.com/dgraph-io/badger/v3"
)

// Store persists per-recipient notification lists. Implementations must keep
// lists strictly partitioned by user key.
type Store interface {
	Load(userID string) ([]models.Notification, error)
	Save(userID string, list []models.Notification) error
	Delete(userID string) error
	Close() error
}

const storeKeyPrefix = "notifications_"

func storeKey(userID string) []byte {
	return []byte(storeKeyPrefix + userID)
}

// BadgerStore keeps each inbox as a JSON array under notifications_{userId}.
// Badger's directory lock makes the agent the single writer of this state.
type BadgerStore struct {
	db *badger.DB
}

func OpenBadgerStore(dir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open notification store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// OpenInMemoryStore is used by tests and by --ephemeral runs.
func OpenInMemoryStore() (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory notification store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Load(userID string) ([]models.Notification, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(userID))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load notifications for %s: %w", userID, err)
	}

	var list []models.Notification
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode notifications for %s: %w", userID, err)
	}
	return list, nil
}

func (s *BadgerStore) Save(userID string, list []models.Notification) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode notifications for %s: %w", userID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(userID), raw)
	})
	if err != nil {
		return fmt.Errorf("save notifications for %s: %w", userID, err)
	}
	return nil
}

func (s *BadgerStore) Delete(userID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storeKey(userID))
	})
	if err != nil {
		return fmt.Errorf("delete notifications for %s: %w", userID, err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
