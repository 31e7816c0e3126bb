package ledger

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
)

const (
	metaBucket      = "meta"
	balancesBucket  = "balances"
	transfersBucket = "transfers"

	keyName        = "name"
	keySymbol      = "symbol"
	keyTotalSupply = "totalSupply"
	keyOwner       = "owner"
)

// Store persists a ledger snapshot and its transfer journal in a
// BoltDB database file.
type Store struct {
	db *bolt.DB
}

// Record is one journaled transfer.
type Record struct {
	ID        string
	From      string
	To        string
	Amount    uint64
	Timestamp time.Time
}

// NewRecord builds the journal entry for a successful transfer.
func NewRecord(from, to string, amount uint64) Record {
	return Record{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	}
}

// Serialize converts a record to bytes for storage
func (r Record) Serialize() ([]byte, error) {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(r); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DeserializeRecord converts bytes back into a record
func DeserializeRecord(data []byte) (Record, error) {
	var r Record
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r)
	return r, err
}

// OpenStore opens (creating if necessary) the ledger database.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{metaBucket, balancesBucket, transfersBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close safely closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialized reports whether a ledger snapshot has been saved before.
func (s *Store) Initialized() (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket([]byte(metaBucket)).Get([]byte(keyTotalSupply)) != nil
		return nil
	})
	return found, err
}

// SaveLedger writes the full snapshot in a single transaction, so a
// half-applied transfer can never reach disk.
func (s *Store) SaveLedger(l *Ledger) error {
	balances := l.Balances()

	return s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(metaBucket))
		if err := meta.Put([]byte(keyName), []byte(l.Name())); err != nil {
			return err
		}
		if err := meta.Put([]byte(keySymbol), []byte(l.Symbol())); err != nil {
			return err
		}
		if err := meta.Put([]byte(keyOwner), []byte(l.Owner())); err != nil {
			return err
		}
		if err := meta.Put([]byte(keyTotalSupply), encodeAmount(l.TotalSupply())); err != nil {
			return err
		}

		// Rewrite the balance bucket wholesale, Save does not track
		// which keys changed since the last snapshot.
		if err := tx.DeleteBucket([]byte(balancesBucket)); err != nil {
			return err
		}
		b, err := tx.CreateBucket([]byte(balancesBucket))
		if err != nil {
			return err
		}
		for addr, bal := range balances {
			if err := b.Put([]byte(addr), encodeAmount(bal)); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadLedger rebuilds the ledger from the saved snapshot. The snapshot
// goes through Restore, so state that no longer satisfies conservation
// is rejected instead of silently loaded.
func (s *Store) LoadLedger() (*Ledger, error) {
	var (
		name, symbol, owner string
		totalSupply         uint64
		balances            = make(map[string]uint64)
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(metaBucket))
		rawSupply := meta.Get([]byte(keyTotalSupply))
		if rawSupply == nil {
			return ErrLedgerNotFound
		}
		totalSupply = decodeAmount(rawSupply)
		name = string(meta.Get([]byte(keyName)))
		symbol = string(meta.Get([]byte(keySymbol)))
		owner = string(meta.Get([]byte(keyOwner)))

		return tx.Bucket([]byte(balancesBucket)).ForEach(func(k, v []byte) error {
			balances[string(k)] = decodeAmount(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return Restore(name, symbol, totalSupply, owner, balances)
}

// AppendTransfer journals a successful transfer.
func (s *Store) AppendTransfer(rec Record) error {
	data, err := rec.Serialize()
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(transfersBucket))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(encodeAmount(seq), data)
	})
}

// Transfers returns journal entries in append order. A non-empty
// address keeps only entries where it is sender or recipient; a
// positive limit keeps only the most recent entries.
func (s *Store) Transfers(address string, limit int) ([]Record, error) {
	var records []Record

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(transfersBucket)).ForEach(func(_, v []byte) error {
			rec, err := DeserializeRecord(v)
			if err != nil {
				return err
			}
			if address != "" && rec.From != address && rec.To != address {
				return nil
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}

func encodeAmount(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func decodeAmount(data []byte) uint64 {
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}
