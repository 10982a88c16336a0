package dump

import "context"

// Table describes one table (or view) to snapshot. The column order defines
// both the INSERT header order and the order of literals in every tuple.
// Descriptors are supplied by the caller and never mutated by the engine.
type Table struct {
	Name    string
	Columns []string
	IsView  bool
}

// TableResult is the per-table outcome of a dump: the original descriptor
// fields plus the rendered dump text, when it was retained in memory.
// HasData is false for skipped views, empty tables, and dumps that did not
// request in-memory retention.
type TableResult struct {
	Table
	Data    string
	HasData bool
	Rows    int
}

// Options controls a single snapshot run. The caller applies defaults; the
// engine only normalizes MaxRowsPerStatement to a non-negative value.
type Options struct {
	// MaxRowsPerStatement bounds how many row tuples go into one INSERT.
	// Zero means unbounded: one statement per table.
	MaxRowsPerStatement int

	// LockTables takes a global read lock and sets the server read-only
	// for the duration of the dump.
	LockTables bool

	// IncludeViewData dumps view contents as if they were tables.
	IncludeViewData bool

	// Verbose emits a comment header block before each table's data.
	Verbose bool

	// PrettyPrint runs every statement through Formatter before writing.
	PrettyPrint bool

	// Formatter is the external SQL formatter used when PrettyPrint is set.
	// Nil leaves statements untouched.
	Formatter func(string) string

	// InsertKeyword replaces the leading INSERT, e.g. "INSERT IGNORE" or
	// "REPLACE". Empty defaults to "INSERT".
	InsertKeyword string

	// Where maps table names to an optional per-table WHERE clause.
	Where map[string]string

	// RetainInMemory keeps each table's rendered dump text in the returned
	// TableResult in addition to any file sink.
	RetainInMemory bool
}

// RowIter is a pull-based, single-pass stream of rows from one table query.
// It mirrors the sql.Rows protocol so the engine never holds more than the
// current row: Next advances, Row returns the current row, Err reports a
// stream failure after Next returns false.
type RowIter interface {
	Next() bool
	Row() Row
	Err() error
	Close() error
}

// querier is what the orchestrator needs from a connection pool. The real
// implementation is *Pool; tests inject fakes to drive the state machine
// without a server.
type querier interface {
	Exec(ctx context.Context, stmt string) error
	Query(ctx context.Context, query string) (RowIter, error)
	Close() error
}
