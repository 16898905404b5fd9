package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pebblestore "github.com/rzbill/flightreview/internal/storage/pebble"
	"github.com/rzbill/flightreview/pkg/log"
)

const pebblePrefix = "logs/"

// PebbleStore keeps one JSON record per log under "logs/{id}".
type PebbleStore struct {
	db *pebblestore.DB
}

// OpenPebble opens or creates the database in dir. Storage timings are
// logged at debug level when logger is set.
func OpenPebble(dir string, readOnly bool, logger log.Logger) (*PebbleStore, error) {
	opts := pebblestore.Options{DataDir: dir, ReadOnly: readOnly, Fsync: pebblestore.FsyncModeAlways}
	if logger != nil {
		opts.Metrics = debugMetrics{logger: logger.With(log.Component("metadata.pebble"))}
	}
	db, err := pebblestore.Open(opts)
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

// NewPebbleStore wraps an open database. Close closes db.
func NewPebbleStore(db *pebblestore.DB) *PebbleStore { return &PebbleStore{db: db} }

func pebbleKey(logID string) []byte { return []byte(pebblePrefix + logID) }

// Lookup implements Store.
func (s *PebbleStore) Lookup(ctx context.Context, logID string) (Metadata, bool, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, false, err
	}
	raw, err := s.db.Get(pebbleKey(logID))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return Metadata{}, false, nil
	}
	if err != nil {
		return Metadata{}, false, err
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return Metadata{}, false, fmt.Errorf("decode record for %q: %w", logID, err)
	}
	return m, true, nil
}

// Put implements Writer.
func (s *PebbleStore) Put(ctx context.Context, logID string, m Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.db.Set(pebbleKey(logID), raw)
}

// PutAll implements Writer with a single batch.
func (s *PebbleStore) PutAll(ctx context.Context, records map[string]Metadata) error {
	b := s.db.NewBatch()
	defer b.Close()
	for _, logID := range sortedIDs(records) {
		raw, err := json.Marshal(records[logID])
		if err != nil {
			return err
		}
		if err := b.Set(pebbleKey(logID), raw, nil); err != nil {
			return err
		}
	}
	return s.db.CommitBatch(ctx, b)
}

// Delete implements Writer.
func (s *PebbleStore) Delete(ctx context.Context, logID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Delete(pebbleKey(logID))
}

// IDs implements Lister. Keys sort like the ids they carry.
func (s *PebbleStore) IDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ids []string
	err := s.db.Scan([]byte(pebblePrefix), func(k, _ []byte) error {
		ids = append(ids, strings.TrimPrefix(string(k), pebblePrefix))
		return nil
	})
	return ids, err
}

// Close closes the database.
func (s *PebbleStore) Close() error { return s.db.Close() }

type debugMetrics struct {
	logger log.Logger
}

func (m debugMetrics) ObserveWrite(elapsed time.Duration, bytes int) {
	m.logger.Debug("pebble write", log.Duration("elapsed", elapsed), log.Int("bytes", bytes))
}

func (m debugMetrics) ObserveRead(elapsed time.Duration, bytes int) {
	m.logger.Debug("pebble read", log.Duration("elapsed", elapsed), log.Int("bytes", bytes))
}

func (m debugMetrics) ObserveBatchCommit(elapsed time.Duration, ops, bytes int) {
	m.logger.Debug("pebble batch commit", log.Duration("elapsed", elapsed), log.Int("ops", ops), log.Int("bytes", bytes))
}
