// Package ath tracks all-time-high watermarks for crypto assets and
// emits notifications when the feed's reported high moves.
package ath

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"relaybot/internal/domain"
)

// Record is the persisted watermark state for one asset.
type Record struct {
	AssetID              string          `json:"coinId"`
	AllTimeHigh          decimal.Decimal `json:"allTimeHigh"`
	AllTimeHighDate      time.Time       `json:"allTimeHighDate"`
	LastChecked          time.Time       `json:"lastChecked"`
	LastNotificationTime *time.Time      `json:"lastNotificationTime,omitempty"`
}

// Store persists watermark records as a single JSON file. The whole map
// is rewritten on every save so a crash never leaves a partial file.
type Store struct {
	path   string
	logger *slog.Logger
}

func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the record map from disk. A missing file yields an empty
// map; a corrupt file is logged and treated as empty so a bad write
// never wedges the monitor.
func (s *Store) Load() (map[string]*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]*Record{}, nil
		}
		return nil, &domain.PersistenceError{Path: s.path, Err: err}
	}

	records := map[string]*Record{}
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("watermark file is corrupt, starting fresh",
			"path", s.path,
			"error", err,
		)
		return map[string]*Record{}, nil
	}
	return records, nil
}

// Save atomically replaces the record file with the given map.
func (s *Store) Save(records map[string]*Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal watermarks: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &domain.PersistenceError{Path: s.path, Err: err}
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &domain.PersistenceError{Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return &domain.PersistenceError{Path: s.path, Err: err}
	}
	return nil
}
