// Package metadata resolves externally stored per-log annotations (rating,
// description, wind speed and so on) by log identifier.
//
// Lookups never fail from the caller's point of view: an invalid identifier,
// an absent row or an unreachable store all yield the zero Metadata. Store
// problems are logged as warnings.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rzbill/flightreview/pkg/id"
	"github.com/rzbill/flightreview/pkg/log"
)

// Metadata is the stored record for one log. The zero value is the empty
// record returned when nothing is known.
type Metadata struct {
	Description string `json:"description" yaml:"description" cbor:"1,keyasint,omitempty"`
	Feedback    string `json:"feedback" yaml:"feedback" cbor:"2,keyasint,omitempty"`
	Type        string `json:"type" yaml:"type" cbor:"3,keyasint,omitempty"`
	WindSpeed   int    `json:"windSpeed" yaml:"windSpeed" cbor:"4,keyasint,omitempty"`
	Rating      int    `json:"rating" yaml:"rating" cbor:"5,keyasint,omitempty"`
	VideoURL    string `json:"videoUrl" yaml:"videoUrl" cbor:"6,keyasint,omitempty"`
}

// IsZero reports whether m is the empty record.
func (m Metadata) IsZero() bool { return m == Metadata{} }

// Store is the read contract of a metadata backend. found is false when the
// store holds no record for logID.
type Store interface {
	Lookup(ctx context.Context, logID string) (m Metadata, found bool, err error)
	Close() error
}

// Writer is implemented by stores that accept records. Only tooling writes.
type Writer interface {
	Put(ctx context.Context, logID string, m Metadata) error
	// PutAll writes every record or none of them.
	PutAll(ctx context.Context, records map[string]Metadata) error
	// Delete removes the record for logID. Absent records are not an error.
	Delete(ctx context.Context, logID string) error
}

// Lister is implemented by stores that can enumerate their records.
type Lister interface {
	// IDs returns every log id with a record, sorted.
	IDs(ctx context.Context) ([]string, error)
}

func sortedIDs(records map[string]Metadata) []string {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ErrNotFound is wrapped by a LookupFailure for absent rows.
var ErrNotFound = errors.New("metadata: not found")

// LookupFailure describes why a lookup produced the empty record.
type LookupFailure struct {
	LogID string
	Err   error
}

func (e *LookupFailure) Error() string {
	return fmt.Sprintf("metadata lookup for %q: %v", e.LogID, e.Err)
}

func (e *LookupFailure) Unwrap() error { return e.Err }

// Resolver validates identifiers and shields callers from store errors.
type Resolver struct {
	store     Store
	validator *id.Validator
	logger    log.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithValidator replaces the default identifier validator.
func WithValidator(v *id.Validator) ResolverOption {
	return func(r *Resolver) { r.validator = v }
}

// WithLogger sets the logger for lookup warnings.
func WithLogger(l log.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver returns a Resolver over store. A nil store resolves every
// identifier to the empty record.
func NewResolver(store Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store}
	for _, opt := range opts {
		opt(r)
	}
	if r.validator == nil {
		r.validator = id.DefaultValidator()
	}
	if r.logger == nil {
		r.logger = log.NewLogger(log.WithOutput(log.NewNullOutput()))
	}
	r.logger = r.logger.WithComponent("metadata")
	return r
}

// Lookup returns the record for logID or the empty record.
func (r *Resolver) Lookup(ctx context.Context, logID string) Metadata {
	m, err := r.Resolve(ctx, logID)
	if err != nil {
		var vErr *id.ValidationError
		var lf *LookupFailure
		switch {
		case errors.As(err, &vErr):
			r.logger.Warn("metadata lookup skipped", log.Str(log.LogIDKey, logID), log.Err(err))
		case errors.As(err, &lf) && errors.Is(lf.Err, ErrNotFound):
			r.logger.Debug("no metadata for log", log.Str(log.LogIDKey, logID))
		default:
			r.logger.Warn("metadata lookup failed", log.Str(log.LogIDKey, logID), log.Err(err))
		}
	}
	return m
}

// Resolve is Lookup with the reason for an empty record exposed: an
// *id.ValidationError for a bad identifier, otherwise a *LookupFailure. The
// returned Metadata is always usable.
func (r *Resolver) Resolve(ctx context.Context, logID string) (Metadata, error) {
	if err := r.validator.Validate(logID); err != nil {
		return Metadata{}, err
	}
	if r.store == nil {
		return Metadata{}, &LookupFailure{LogID: logID, Err: ErrNotFound}
	}
	m, found, err := r.store.Lookup(ctx, logID)
	if err != nil {
		return Metadata{}, &LookupFailure{LogID: logID, Err: err}
	}
	if !found {
		return Metadata{}, &LookupFailure{LogID: logID, Err: ErrNotFound}
	}
	return m, nil
}
