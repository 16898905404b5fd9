package metadata

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	sqlitestore "github.com/rzbill/flightreview/internal/storage/sqlite"
	"github.com/rzbill/flightreview/pkg/log"
)

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS Logs (
	Id TEXT PRIMARY KEY,
	Title TEXT,
	Description TEXT,
	OriginalFilename TEXT,
	Date TIMESTAMP,
	AllowForAnalysis INTEGER,
	Obfuscated INTEGER,
	Source TEXT,
	Email TEXT,
	WindSpeed INT,
	Rating TEXT,
	Feedback TEXT,
	Type TEXT,
	VideoUrl TEXT
);`

	idsSQL    = `SELECT Id FROM Logs ORDER BY Id`
	deleteSQL = `DELETE FROM Logs WHERE Id = ?`
	lookupSQL = `SELECT Description, Feedback, Type, WindSpeed, Rating, VideoUrl FROM Logs WHERE Id = ?`

	putSQL = `INSERT INTO Logs (Id, Description, Feedback, Type, WindSpeed, Rating, VideoUrl)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(Id) DO UPDATE SET
	Description = excluded.Description,
	Feedback = excluded.Feedback,
	Type = excluded.Type,
	WindSpeed = excluded.WindSpeed,
	Rating = excluded.Rating,
	VideoUrl = excluded.VideoUrl`
)

// SQLiteStore reads the Logs table of the upload database.
type SQLiteStore struct {
	pool *sqlitestore.Pool
}

// SQLiteOptions configures OpenSQLite.
type SQLiteOptions struct {
	Path     string
	ReadOnly bool
	PoolSize int
	Logger   log.Logger
}

// OpenSQLite opens the database at opts.Path. Writable databases get the
// Logs table created if it is missing.
func OpenSQLite(opts SQLiteOptions) (*SQLiteStore, error) {
	var onConnect func(*sqlite.Conn) error
	if !opts.ReadOnly {
		onConnect = func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schemaSQL, nil)
		}
	}
	pool, err := sqlitestore.Open(sqlitestore.Options{
		Path:      opts.Path,
		PoolSize:  opts.PoolSize,
		ReadOnly:  opts.ReadOnly,
		Logger:    opts.Logger,
		OnConnect: onConnect,
	})
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{pool: pool}, nil
}

// Lookup implements Store.
func (s *SQLiteStore) Lookup(ctx context.Context, logID string) (Metadata, bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Metadata{}, false, err
	}
	defer s.pool.Put(conn)

	var m Metadata
	found := false
	err = sqlitex.Execute(conn, lookupSQL, &sqlitex.ExecOptions{
		Args: []any{logID},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			m = Metadata{
				Description: stmt.ColumnText(0),
				Feedback:    stmt.ColumnText(1),
				Type:        stmt.ColumnText(2),
				WindSpeed:   columnInt(stmt, 3),
				Rating:      columnInt(stmt, 4),
				VideoURL:    stmt.ColumnText(5),
			}
			return nil
		},
	})
	if err != nil {
		return Metadata{}, false, fmt.Errorf("query logs: %w", err)
	}
	return m, found, nil
}

// columnInt reads an integer column that older databases store as text.
// NULL and non-numeric text read as 0.
func columnInt(stmt *sqlite.Stmt, col int) int {
	switch stmt.ColumnType(col) {
	case sqlite.TypeInteger, sqlite.TypeFloat:
		return stmt.ColumnInt(col)
	case sqlite.TypeText:
		var n int
		if _, err := fmt.Sscan(stmt.ColumnText(col), &n); err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Put implements Writer.
func (s *SQLiteStore) Put(ctx context.Context, logID string, m Metadata) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)
	err = sqlitex.Execute(conn, putSQL, &sqlitex.ExecOptions{
		Args: []any{logID, m.Description, m.Feedback, m.Type, m.WindSpeed, m.Rating, m.VideoURL},
	})
	if err != nil {
		return fmt.Errorf("upsert log %q: %w", logID, err)
	}
	return nil
}

// PutAll implements Writer inside one immediate transaction.
func (s *SQLiteStore) PutAll(ctx context.Context, records map[string]Metadata) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer endTransaction(&err)

	for _, logID := range sortedIDs(records) {
		m := records[logID]
		err = sqlitex.Execute(conn, putSQL, &sqlitex.ExecOptions{
			Args: []any{logID, m.Description, m.Feedback, m.Type, m.WindSpeed, m.Rating, m.VideoURL},
		})
		if err != nil {
			return fmt.Errorf("upsert log %q: %w", logID, err)
		}
	}
	return nil
}

// Delete implements Writer.
func (s *SQLiteStore) Delete(ctx context.Context, logID string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)
	if err := sqlitex.Execute(conn, deleteSQL, &sqlitex.ExecOptions{Args: []any{logID}}); err != nil {
		return fmt.Errorf("delete log %q: %w", logID, err)
	}
	return nil
}

// IDs implements Lister.
func (s *SQLiteStore) IDs(ctx context.Context) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)
	var ids []string
	err = sqlitex.Execute(conn, idsSQL, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			ids = append(ids, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return ids, nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close closes the underlying pool.
func (s *SQLiteStore) Close() error { return s.pool.Close() }
