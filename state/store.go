package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rotblauer/tempd/field"
	"github.com/rotblauer/tempd/params"
	"github.com/rotblauer/tempd/source"
	"go.etcd.io/bbolt"
)

// Store persists the inputs of the last committed load in a bbolt
// database. Stacks are deterministic in their inputs, so a restore
// re-rasterizes instead of storing pixels.
type Store struct {
	DB     *bbolt.DB
	logger *slog.Logger
}

// Snapshot is what Store keeps of a commit.
type Snapshot struct {
	Source   string          `json:"source"`
	Gradient string          `json:"gradient"`
	Level    int             `json:"level"`
	Payload  *source.Payload `json:"payload"`
	Summary  field.Summary   `json:"summary"`
	At       time.Time       `json:"at"`
}

func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, err
	}
	// A writable bbolt handle holds an flock, so a second daemon on the
	// same datadir blocks here.
	db, err := bbolt.Open(filepath.Join(dir, params.StateDBName), 0600, &bbolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &Store{DB: db, logger: slog.With("d", "store")}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) storeKV(key []byte, data []byte) error {
	if key == nil {
		return fmt.Errorf("storeKV: nil key")
	}
	if data == nil {
		return fmt.Errorf("storeKV: nil data")
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(params.DisplayBucket)
		if err != nil {
			return err
		}
		return bucket.Put(key, data)
	})
}

func (s *Store) readKV(key []byte) ([]byte, error) {
	buf := bytes.NewBuffer([]byte{})
	err := s.DB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(params.DisplayBucket)
		if bucket == nil {
			return nil
		}
		// Gotcha! The value returned by Get is only valid in the scope of the transaction.
		got := bucket.Get(key)
		if got == nil {
			return nil
		}
		_, err := buf.Write(got)
		return err
	})
	if buf.Len() == 0 {
		return nil, err
	}
	return buf.Bytes(), err
}

func (s *Store) Save(c *Commit) error {
	snap := Snapshot{
		Source:   c.Source,
		Gradient: c.Gradient,
		Level:    c.Stack.Level,
		Payload:  c.Payload,
		Summary:  c.Summary,
		At:       c.At,
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := s.storeKV(params.LastStackKey, b); err != nil {
		s.logger.Error("Failed to store last commit", "error", err)
		return err
	}
	s.logger.Debug("Stored last commit", "source", c.Source, "bytes", len(b))
	return nil
}

// Last returns the last saved snapshot, or nil if there is none.
func (s *Store) Last() (*Snapshot, error) {
	got, err := s.readKV(params.LastStackKey)
	if err != nil || got == nil {
		return nil, err
	}
	snap := &Snapshot{}
	if err := json.Unmarshal(got, snap); err != nil {
		return nil, fmt.Errorf("decode last commit: %w", err)
	}
	return snap, nil
}
