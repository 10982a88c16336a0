package dump

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/go-sql-driver/mysql"

	apperrors "github.com/jorgepascosoto/mysql-snapshot/internal/errors"
)

// ConnParams identifies a connection endpoint. Database doubles as the
// target identity under which the Registry shares pools.
type ConnParams struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN renders the driver connection string. Values are scanned as raw bytes
// on purpose: the Encoder wants the server's textual form, not driver-parsed
// Go types.
func (p ConnParams) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", p.Host, p.Port)
	cfg.DBName = p.Database
	return cfg.FormatDSN()
}

// Identity returns the key under which this endpoint's pool is shared.
func (p ConnParams) Identity() string {
	return p.Database
}

// Pool is a connection pool with the literal Encoder registered as the
// per-value conversion hook: every value scanned through Query comes back
// ready for Encode.
type Pool struct {
	db  *sql.DB
	enc Encoder
}

// OpenPool creates a dump-scoped pool. The snapshot engine always opens its
// own pool rather than borrowing a shared one, because the conversion hook
// it registers is wrong for general-purpose queries.
func OpenPool(params ConnParams) (*Pool, error) {
	db, err := sql.Open("mysql", params.DSN())
	if err != nil {
		return nil, apperrors.NewSnapshotError(apperrors.ErrConnectionFailed, "", err)
	}
	return &Pool{db: db}, nil
}

func (p *Pool) Exec(ctx context.Context, stmt string) error {
	_, err := p.db.ExecContext(ctx, stmt)
	return err
}

// Query opens a streaming query. Rows are delivered one at a time through
// the returned iterator; nothing is buffered beyond the current row.
func (p *Pool) Query(ctx context.Context, query string) (RowIter, error) {
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, err
	}
	typeNames := make([]string, len(types))
	for i, t := range types {
		typeNames[i] = t.DatabaseTypeName()
	}
	return &sqlRowIter{rows: rows, cols: cols, types: typeNames}, nil
}

func (p *Pool) Close() error {
	return p.db.Close()
}

// DB exposes the underlying handle for metadata queries outside the dump
// loop.
func (p *Pool) DB() *sql.DB {
	return p.db
}

type sqlRowIter struct {
	rows  *sql.Rows
	cols  []string
	types []string
	cur   Row
	err   error
}

func (it *sqlRowIter) Next() bool {
	if !it.rows.Next() {
		return false
	}
	raw := make([]sql.RawBytes, len(it.cols))
	ptrs := make([]any, len(it.cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		it.err = err
		return false
	}
	row := make(Row, len(it.cols))
	for i, col := range it.cols {
		v := Value{Null: raw[i] == nil, Type: it.types[i]}
		if raw[i] != nil {
			// RawBytes aliases the driver's buffer; copy before the
			// next Scan reuses it.
			v.Raw = append([]byte(nil), raw[i]...)
		}
		row[col] = v
	}
	it.cur = row
	return true
}

func (it *sqlRowIter) Row() Row {
	return it.cur
}

func (it *sqlRowIter) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

func (it *sqlRowIter) Close() error {
	return it.rows.Close()
}

// Registry is a get-or-create cache of live pools keyed by target identity.
// Two acquires for the same identity always share one pool. Registries are
// caller-owned; Shutdown closes every pool the registry created.
type Registry struct {
	mu    sync.Mutex
	pools map[string]*Pool
}

func NewRegistry() *Registry {
	return &Registry{pools: make(map[string]*Pool)}
}

// Acquire returns the pool for params' identity, creating it on first use.
// Safe for concurrent use; a single pool is created per identity.
func (r *Registry) Acquire(params ConnParams) (*Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pool, ok := r.pools[params.Identity()]; ok {
		return pool, nil
	}
	pool, err := OpenPool(params)
	if err != nil {
		return nil, err
	}
	r.pools[params.Identity()] = pool
	return pool, nil
}

// Shutdown closes all pools. The first close error is reported; the rest of
// the pools are still closed.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for identity, pool := range r.pools {
		if err := pool.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing pool for '%s': %w", identity, err)
		}
		delete(r.pools, identity)
	}
	return firstErr
}
