// Package storage keeps an append-only audit log of served predictions.
// It uses BoltDB as the underlying storage engine; records are keyed by
// timestamp so that range queries and "most recent" scans are cursor walks.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"irrigation-predictor/internal/ml"
	"irrigation-predictor/internal/reading"

	"go.etcd.io/bbolt"
)

const (
	predictionsBucket = "predictions" // Bucket name for prediction records
	dbFileName        = "predictions.db"
)

// PredictionRecord is one served prediction.
type PredictionRecord struct {
	Timestamp    time.Time       `json:"timestamp"`
	Reading      reading.Reading `json:"reading"`
	Label        ml.Label        `json:"label"`
	ModelVersion string          `json:"model_version,omitempty"`
	LatencyMs    float64         `json:"latency_ms"`
}

// Store provides persistent storage for prediction records using BoltDB.
type Store struct {
	db  *bbolt.DB
	seq atomic.Uint64
}

// New opens (or creates) the audit database under dataPath.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataPath, dbFileName)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Calling it more than once is safe.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// recordKey orders records by time; seq breaks ties within one nanosecond.
func recordKey(ts time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("%020d_%010d", ts.UnixNano(), seq%1e10))
}

func boundKey(ts time.Time) []byte {
	return []byte(fmt.Sprintf("%020d_", ts.UnixNano()))
}

// StorePrediction appends rec. A zero timestamp is replaced with the current time.
func (s *Store) StorePrediction(rec PredictionRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal prediction: %w", err)
	}
	key := recordKey(rec.Timestamp, s.seq.Add(1))

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(predictionsBucket)).Put(key, data)
	})
}

// GetPredictionsInRange returns records with start <= Timestamp <= end,
// oldest first. Malformed records are skipped.
func (s *Store) GetPredictionsInRange(start, end time.Time) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()

		startKey := boundKey(start)
		// "~" sorts after every digit, so all sequence numbers at end are included
		endKey := append(boundKey(end), '~')

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	records := make([]PredictionRecord, 0, limit)

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(predictionsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}
