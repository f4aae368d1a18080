package receipt

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	receiptsBucket = "receipts"
	tripsBucket    = "trips"
	usersBucket    = "users"
)

// DB defines the interface for database operations
type DB interface {
	// SaveReceipt inserts or replaces a receipt
	SaveReceipt(receipt *Receipt) error

	// GetReceipt retrieves a receipt by ID; missing receipts wrap ErrNotFound
	GetReceipt(id string) (*Receipt, error)

	// ListReceipts returns every receipt owned by userID
	ListReceipts(userID string) ([]*Receipt, error)

	// DeleteReceipt removes a receipt from the database
	DeleteReceipt(id string) error

	SaveTrip(trip *Trip) error
	GetTrip(id string) (*Trip, error)
	ListTrips(userID string) ([]*Trip, error)

	SaveSettings(settings *UserSettings) error
	GetSettings(userID string) (*UserSettings, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB. Records are stored as
// JSON under their ID, one bucket per record type.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens or creates the database at path
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{receiptsBucket, tripsBucket, usersBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func (b *BoltDB) SaveReceipt(receipt *Receipt) error {
	return put(b.db, receiptsBucket, receipt.ID, receipt)
}

func (b *BoltDB) GetReceipt(id string) (*Receipt, error) {
	return get[Receipt](b.db, receiptsBucket, "receipt", id)
}

func (b *BoltDB) ListReceipts(userID string) ([]*Receipt, error) {
	return list(b.db, receiptsBucket, func(r *Receipt) bool { return r.UserID == userID })
}

func (b *BoltDB) DeleteReceipt(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(receiptsBucket)).Delete([]byte(id))
	})
}

func (b *BoltDB) SaveTrip(trip *Trip) error {
	return put(b.db, tripsBucket, trip.ID, trip)
}

func (b *BoltDB) GetTrip(id string) (*Trip, error) {
	return get[Trip](b.db, tripsBucket, "trip", id)
}

func (b *BoltDB) ListTrips(userID string) ([]*Trip, error) {
	return list(b.db, tripsBucket, func(t *Trip) bool { return t.UserID == userID })
}

func (b *BoltDB) SaveSettings(settings *UserSettings) error {
	return put(b.db, usersBucket, settings.UserID, settings)
}

func (b *BoltDB) GetSettings(userID string) (*UserSettings, error) {
	return get[UserSettings](b.db, usersBucket, "settings for user", userID)
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

func put(db *bbolt.DB, bucket, key string, v any) error {
	return db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling %s record: %w", bucket, err)
		}
		return tx.Bucket([]byte(bucket)).Put([]byte(key), data)
	})
}

func get[T any](db *bbolt.DB, bucket, kind, key string) (*T, error) {
	var v T
	err := db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucket)).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s %s: %w", kind, key, ErrNotFound)
		}
		return json.Unmarshal(data, &v)
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func list[T any](db *bbolt.DB, bucket string, keep func(*T) bool) ([]*T, error) {
	items := make([]*T, 0)
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucket)).ForEach(func(k, data []byte) error {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return fmt.Errorf("unmarshaling %s record %s: %w", bucket, k, err)
			}
			if keep(&v) {
				items = append(items, &v)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
