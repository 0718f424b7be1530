// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package simstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/urbanpulse/urbanpulse/internal/forecast"
	"github.com/urbanpulse/urbanpulse/internal/logging"
)

// Record is one logged prediction event.
//
// ID is assigned by the store on append and is unique and monotonically
// increasing across the store's lifetime, including restarts and clears.
// Timestamp defaults to the insertion time when not supplied.
type Record struct {
	ID        uint64          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Domain    forecast.Domain `json:"domain"`

	// Predicted is the served model output in domain units.
	Predicted int `json:"predicted"`

	// Observed is the ground-truth value, when known.
	Observed *int `json:"observed,omitempty"`

	// Scenario labels the simulation run that produced the prediction.
	Scenario string `json:"scenario,omitempty"`

	// Metrics carries contextual readings captured with the prediction.
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// Sentinel errors for store operations.
var (
	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("simulation store is closed")

	// ErrInvalidDomain indicates a filter for a domain outside the fixed set.
	ErrInvalidDomain = errors.New("invalid domain filter")
)

// Key prefixes. Records live under rec:, with secondary index entries per
// domain and per timestamp mirroring the primary id so both filters scan a
// contiguous key range.
const (
	prefixRecord = "rec:"
	prefixDomain = "dom:"
	prefixTime   = "ts:"
	sequenceKey  = "seq:simulations"
)

// DefaultQueryLimit caps Query results when the caller passes no limit.
const DefaultQueryLimit = 50

// Store is the BadgerDB-backed simulation log. Safe for concurrent use.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	config Config
	now    func() time.Time

	totalAppends atomic.Int64
	totalReads   atomic.Int64
	totalClears  atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// Stats contains store counters for monitoring.
type Stats struct {
	TotalAppends int64
	TotalReads   int64
	TotalClears  int64
	DBSizeBytes  int64
}

// Open creates or reopens the store at the configured path.
// A failure here means the backing store is unavailable; callers must
// surface it rather than silently dropping records.
func Open(cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	opts.InMemory = cfg.InMemory
	if cfg.InMemory {
		opts.Dir = ""
		opts.ValueDir = ""
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), cfg.SequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open id sequence: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("simulation store opened")

	return &Store{db: db, seq: seq, config: *cfg, now: time.Now}, nil
}

// Append stores a record, assigning its id and, when the caller supplied
// none, its insertion timestamp. Returns the assigned id.
func (s *Store) Append(ctx context.Context, rec Record) (uint64, error) {
	start := time.Now()
	defer func() {
		recordAppendLatency(time.Since(start).Seconds())
	}()

	if err := s.ensureOpen(); err != nil {
		return 0, err
	}
	if !rec.Domain.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDomain, rec.Domain)
	}

	next, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next record id: %w", err)
	}
	rec.ID = next + 1 // ids start at 1

	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}

	payload, err := json.Marshal(&rec)
	if err != nil {
		return 0, fmt.Errorf("marshal record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(rec.ID), payload); err != nil {
			return err
		}
		if err := txn.Set(domainKey(rec.Domain, rec.ID), nil); err != nil {
			return err
		}
		return txn.Set(timeKey(rec.Timestamp, rec.ID), nil)
	})
	if err != nil {
		return 0, fmt.Errorf("append record %d: %w", rec.ID, err)
	}

	s.totalAppends.Add(1)
	recordAppend(string(rec.Domain))
	return rec.ID, nil
}

// Query returns at most limit most-recent records, newest first.
// An empty domain means all domains; limit <= 0 means DefaultQueryLimit.
func (s *Store) Query(ctx context.Context, domain forecast.Domain, limit int) ([]Record, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if domain != "" && !domain.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	prefix := []byte(prefixRecord)
	if domain != "" {
		prefix = []byte(prefixDomain + string(domain) + ":")
	}

	records := make([]Record, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		// Index entries carry no values; records are fetched by id.
		opts.PrefetchValues = domain == ""

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts past the last key in the prefix range.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(records) < limit; it.Next() {
			var (
				rec Record
				err error
			)
			if domain == "" {
				err = it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &rec)
				})
			} else {
				rec, err = fetchRecord(txn, idFromIndexKey(it.Item().Key()))
			}
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	s.totalReads.Add(1)
	recordRead("query")
	return records, nil
}

// QueryRecent returns all records with Timestamp >= now - window, in
// ascending timestamp order. A record stamped exactly at the cutoff is
// included.
func (s *Store) QueryRecent(ctx context.Context, window time.Duration) ([]Record, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-window)
	prefix := []byte(prefixTime)
	seek := []byte(fmt.Sprintf("%s%016x", prefixTime, cutoff.UnixMilli()))

	var records []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			rec, err := fetchRecord(txn, idFromIndexKey(it.Item().Key()))
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query recent records: %w", err)
	}

	s.totalReads.Add(1)
	recordRead("query_recent")
	return records, nil
}

// Clear deletes all records and index entries. The id sequence is not
// reset, so ids stay monotonic across the store's lifetime.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	for _, prefix := range []string{prefixRecord, prefixDomain, prefixTime} {
		if err := s.deletePrefix([]byte(prefix)); err != nil {
			return fmt.Errorf("clear records: %w", err)
		}
	}

	s.totalClears.Add(1)
	recordClear()
	logging.Info().Msg("simulation store cleared")
	return nil
}

// deletePrefix removes every key under the given prefix.
func (s *Store) deletePrefix(prefix []byte) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if err := wb.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return wb.Flush()
}

// RunGC triggers one value-log garbage collection pass. A pass that finds
// nothing to rewrite is not an error.
func (s *Store) RunGC() error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	err := s.db.RunValueLogGC(s.config.GCRatio)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return fmt.Errorf("value log gc: %w", err)
	}
	return nil
}

// Stats returns store counters.
func (s *Store) Stats() Stats {
	var size int64
	s.mu.RLock()
	if !s.closed {
		lsm, vlog := s.db.Size()
		size = lsm + vlog
	}
	s.mu.RUnlock()

	return Stats{
		TotalAppends: s.totalAppends.Load(),
		TotalReads:   s.totalReads.Load(),
		TotalClears:  s.totalClears.Load(),
		DBSizeBytes:  size,
	}
}

// Close releases the id sequence lease and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.seq.Release(); err != nil {
		logging.Warn().Err(err).Msg("release id sequence")
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}

	logging.Info().Msg("simulation store closed")
	return nil
}

// ensureOpen returns ErrStoreClosed once Close has begun.
func (s *Store) ensureOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// fetchRecord loads and decodes the primary record for an id.
func fetchRecord(txn *badger.Txn, id uint64) (Record, error) {
	var rec Record
	item, err := txn.Get(recordKey(id))
	if err != nil {
		return rec, fmt.Errorf("fetch record %d: %w", id, err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return rec, fmt.Errorf("decode record %d: %w", id, err)
	}
	return rec, nil
}

// recordKey builds the primary key for an id. Fixed-width hex keeps
// lexicographic and numeric ordering identical.
func recordKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x", prefixRecord, id))
}

// domainKey builds the per-domain index key for an id.
func domainKey(d forecast.Domain, id uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%016x", prefixDomain, d, id))
}

// timeKey builds the per-timestamp index key for an id. Keys carry
// millisecond precision only; QueryRecent truncates its cutoff the same
// way, so a time-window query can admit records up to 1ms older than
// the exact cutoff instant.
func timeKey(ts time.Time, id uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x:%016x", prefixTime, ts.UnixMilli(), id))
}

// idFromIndexKey extracts the record id from a secondary index key.
// Index keys end in a 16-hex-digit id.
func idFromIndexKey(key []byte) uint64 {
	if len(key) < 16 {
		return 0
	}
	var id uint64
	_, _ = fmt.Sscanf(string(key[len(key)-16:]), "%016x", &id)
	return id
}
