package metadata

import (
	"fmt"
	"strings"

	"github.com/rzbill/flightreview/pkg/log"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendPebble = "pebble"
	BackendNone   = "none"
)

// Open opens the named backend at path. BackendNone and an empty backend
// return a nil Store, which a Resolver treats as empty.
func Open(backend, path string, readOnly bool, logger log.Logger) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendNone:
		return nil, nil
	case BackendSQLite:
		s, err := OpenSQLite(SQLiteOptions{Path: path, ReadOnly: readOnly, Logger: logger})
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendPebble:
		s, err := OpenPebble(path, readOnly, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("metadata: unknown backend %q", backend)
	}
}
