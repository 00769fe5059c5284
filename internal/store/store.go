// Package store provides persistent storage for engine session state,
// so a UCI host's settings and cumulative counters survive process
// restarts.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	keySettings    = "settings"
	keyCounters    = "counters"
	keyFirstLaunch = "first_launch"
)

// Settings holds the last-used UCI configuration, restored on the next
// process launch so a host that doesn't resend setoption still gets
// the previous session's choices.
type Settings struct {
	TTSizeMB int       `json:"tt_size_mb"`
	LastUsed time.Time `json:"last_used"`
}

// DefaultSettings returns the settings used before any session has
// ever run.
func DefaultSettings() *Settings {
	return &Settings{TTSizeMB: 64, LastUsed: time.Now()}
}

// Counters accumulates search statistics across every search this
// process (and prior ones, once restored) has run.
type Counters struct {
	SearchesRun  int64         `json:"searches_run"`
	TotalNodes   uint64        `json:"total_nodes"`
	TotalTime    time.Duration `json:"total_time"`
	PerftRecords []PerftRecord `json:"perft_records"`
}

// PerftRecord is one completed perft benchmark, kept for regression
// comparison across runs.
type PerftRecord struct {
	FEN        string        `json:"fen"`
	Depth      int           `json:"depth"`
	Nodes      uint64        `json:"nodes"`
	Elapsed    time.Duration `json:"elapsed"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters {
	return &Counters{}
}

// Store wraps an embedded BadgerDB instance holding engine session state.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the badger database at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close session store: %w", err)
	}
	return nil
}

// IsFirstLaunch reports whether this is the first time the session
// store has been opened.
func (s *Store) IsFirstLaunch() (bool, error) {
	first := true

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		first = false
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check first launch: %w", err)
	}

	return first, nil
}

// MarkFirstLaunchComplete records that first-launch setup has run.
func (s *Store) MarkFirstLaunchComplete() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
	if err != nil {
		return fmt.Errorf("mark first launch complete: %w", err)
	}
	return nil
}

// SaveSettings persists the current UCI settings.
func (s *Store) SaveSettings(settings *Settings) error {
	settings.LastUsed = time.Now()

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keySettings), data)
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// LoadSettings loads the previously saved settings, or defaults if
// none have been saved yet.
func (s *Store) LoadSettings() (*Settings, error) {
	settings := DefaultSettings()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keySettings))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, settings)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return settings, nil
}

// SaveCounters persists the accumulated search counters.
func (s *Store) SaveCounters(counters *Counters) error {
	data, err := json.Marshal(counters)
	if err != nil {
		return fmt.Errorf("marshal counters: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyCounters), data)
	})
	if err != nil {
		return fmt.Errorf("save counters: %w", err)
	}
	return nil
}

// LoadCounters loads the accumulated search counters, or empty
// counters if none have been saved yet.
func (s *Store) LoadCounters() (*Counters, error) {
	counters := NewCounters()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyCounters))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, counters)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load counters: %w", err)
	}

	return counters, nil
}

// RecordSearch folds one completed search's statistics into the
// stored counters.
func (s *Store) RecordSearch(nodes uint64, elapsed time.Duration) error {
	counters, err := s.LoadCounters()
	if err != nil {
		return err
	}

	counters.SearchesRun++
	counters.TotalNodes += nodes
	counters.TotalTime += elapsed

	return s.SaveCounters(counters)
}

// RecordPerft folds one completed perft benchmark into the stored
// counters, keeping at most the most recent 50 records.
func (s *Store) RecordPerft(rec PerftRecord) error {
	counters, err := s.LoadCounters()
	if err != nil {
		return err
	}

	rec.RecordedAt = time.Now()
	counters.PerftRecords = append(counters.PerftRecords, rec)
	if len(counters.PerftRecords) > 50 {
		counters.PerftRecords = counters.PerftRecords[len(counters.PerftRecords)-50:]
	}

	return s.SaveCounters(counters)
}
