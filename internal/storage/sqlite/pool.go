// Package sqlitestore provides a pooled SQLite connection set with fixed
// pragmas, used by the relational metadata store.
package sqlitestore

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/rzbill/flightreview/pkg/log"
)

// Options configures Open.
type Options struct {
	// Path is the database file. ":memory:" needs PoolSize 1.
	Path string
	// PoolSize defaults to max(NumCPU, 4).
	PoolSize int
	// ReadOnly opens an existing database without write access or pragmas
	// that would modify it.
	ReadOnly bool
	Logger   log.Logger
	// OnConnect runs once per connection after the pragmas, for schema
	// setup. An error discards the connection and fails the Take.
	OnConnect func(conn *sqlite.Conn) error
}

// Pool is safe for concurrent use; the connections it hands out are not.
type Pool struct {
	inner  *sqlitex.Pool
	logger log.Logger
	path   string
}

// Open creates the pool. Connections are opened lazily on first Take.
func Open(opts Options) (*Pool, error) {
	if opts.Path == "" {
		return nil, errors.New("sqlite: Options.Path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NewNullOutput()))
	}
	logger = logger.WithComponent("sqlite")

	size := opts.PoolSize
	if size <= 0 {
		size = runtime.NumCPU()
		if size < 4 {
			size = 4
		}
	}
	popts := sqlitex.PoolOptions{
		PoolSize: size,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepare(conn, opts.ReadOnly, opts.OnConnect)
		},
	}
	if opts.ReadOnly {
		popts.Flags = sqlite.OpenReadOnly | sqlite.OpenURI
	}
	inner, err := sqlitex.NewPool(opts.Path, popts)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", opts.Path, err)
	}
	logger.Info("sqlite pool opened", log.Str("path", opts.Path), log.Int("pool_size", size), log.Bool("read_only", opts.ReadOnly))
	return &Pool{inner: inner, logger: logger, path: opts.Path}, nil
}

// Take borrows a connection, blocking until one is free or ctx ends. The
// caller must Put it back:
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: take: %w", err)
	}
	return conn, nil
}

// Put returns a connection. Nil is a no-op.
func (p *Pool) Put(conn *sqlite.Conn) { p.inner.Put(conn) }

// Close waits for borrowed connections and closes them all.
func (p *Pool) Close() error {
	if p == nil {
		return nil
	}
	if err := p.inner.Close(); err != nil {
		p.logger.Error("sqlite pool close failed", log.Str("path", p.path), log.Err(err))
		return fmt.Errorf("sqlite: closing %s: %w", p.path, err)
	}
	p.logger.Debug("sqlite pool closed", log.Str("path", p.path))
	return nil
}

// Ping borrows a connection and runs a trivial query.
func (p *Pool) Ping(ctx context.Context) error {
	conn, err := p.Take(ctx)
	if err != nil {
		return err
	}
	defer p.Put(conn)
	return sqlitex.ExecuteTransient(conn, "SELECT 1", nil)
}

func prepare(conn *sqlite.Conn, readOnly bool, onConnect func(*sqlite.Conn) error) error {
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	if !readOnly {
		pragmas = append([]string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL"}, pragmas...)
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	if onConnect != nil {
		if err := onConnect(conn); err != nil {
			return fmt.Errorf("sqlite: on connect: %w", err)
		}
	}
	return nil
}
