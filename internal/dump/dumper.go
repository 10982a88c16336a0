package dump

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	apperrors "github.com/jorgepascosoto/mysql-snapshot/internal/errors"
)

const DefaultInsertKeyword = "INSERT"

// Run executes a full snapshot: lock (optional), dump every table in input
// order, unlock, close the dump-scoped pool, and confirm the file sink is
// flushed before returning. outPath may be empty when the caller only wants
// the in-memory results.
//
// The returned list carries one entry per input table, in input order,
// including skipped views. The input slice is never mutated.
func Run(ctx context.Context, params ConnParams, opts Options, tables []Table, outPath string) ([]TableResult, error) {
	pool, err := OpenPool(params)
	if err != nil {
		return nil, err
	}
	s, err := newSink(outPath)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return run(ctx, pool, s, opts, tables)
}

// run drives the snapshot state machine against an abstract querier. Tables
// are processed strictly one at a time: whatever happens, no two tables are
// in flight and no two rows of one table are handled concurrently.
func run(ctx context.Context, q querier, s *sink, opts Options, tables []Table) ([]TableResult, error) {
	if opts.MaxRowsPerStatement < 0 {
		opts.MaxRowsPerStatement = 0
	}
	if opts.InsertKeyword == "" {
		opts.InsertKeyword = DefaultInsertKeyword
	}

	var enc Encoder
	results := make([]TableResult, 0, len(tables))

	dumpErr := func() error {
		if opts.LockTables {
			if err := q.Exec(ctx, "FLUSH TABLES WITH READ LOCK"); err != nil {
				return apperrors.NewSnapshotError(apperrors.ErrLockAcquisition, "", err)
			}
			if err := q.Exec(ctx, "SET GLOBAL read_only = ON"); err != nil {
				return apperrors.NewSnapshotError(apperrors.ErrLockAcquisition, "", err)
			}
		}

		for _, t := range tables {
			if t.IsView && !opts.IncludeViewData {
				results = append(results, TableResult{Table: t})
				continue
			}
			res, err := dumpTable(ctx, q, s, enc, opts, t)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		return nil
	}()

	// Cleanup always runs, even after a lock failure, and its errors never
	// mask an earlier one. With no earlier failure, the first cleanup error
	// becomes the reported one.
	var cleanupErr error
	record := func(err error) {
		if cleanupErr == nil {
			cleanupErr = err
		}
	}
	if opts.LockTables {
		if err := q.Exec(ctx, "SET GLOBAL read_only = OFF"); err != nil {
			log.Printf("Warning: could not unset read_only: %v", err)
			record(apperrors.NewSnapshotError(apperrors.ErrUnlock, "", err))
		}
		if err := q.Exec(ctx, "UNLOCK TABLES"); err != nil {
			log.Printf("Warning: could not release read lock: %v", err)
			record(apperrors.NewSnapshotError(apperrors.ErrUnlock, "", err))
		}
	}
	if err := q.Close(); err != nil {
		log.Printf("Warning: could not close dump pool: %v", err)
		record(err)
	}
	if err := s.close(); err != nil {
		record(err)
	}

	if dumpErr != nil {
		return nil, dumpErr
	}
	if cleanupErr != nil {
		return nil, cleanupErr
	}
	return results, nil
}

// dumpTable streams one table through the encoder and builder into the sink.
// At most one batch of row tuples is held in memory at any point.
func dumpTable(ctx context.Context, q querier, s *sink, enc Encoder, opts Options, t Table) (TableResult, error) {
	query := fmt.Sprintf("SELECT * FROM `%s`", t.Name)
	where := opts.Where[t.Name]
	if where != "" {
		query += " WHERE " + where
	}

	s.beginTable(opts.RetainInMemory)

	if opts.Verbose {
		head := fmt.Sprintf("# DATA DUMP FOR TABLE: %s (locked: %t)", t.Name, opts.LockTables)
		if where != "" {
			head += fmt.Sprintf(" (where: %s)", where)
		}
		err := s.write(
			"# ------------------------------------------------------------",
			head,
			"# ------------------------------------------------------------",
			"",
		)
		if err != nil {
			return TableResult{}, err
		}
	}

	var format func(string) string
	if opts.PrettyPrint {
		format = opts.Formatter
	}

	it, err := q.Query(ctx, query)
	if err != nil {
		return TableResult{}, apperrors.NewSnapshotError(apperrors.ErrQueryStream, t.Name, err)
	}

	var batch [][]string
	rowCount := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		stmt := buildInsert(t, batch, opts.InsertKeyword, format)
		batch = batch[:0]
		return s.write(stmt)
	}

	for it.Next() {
		row := it.Row()
		tuple := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			v, ok := row[col]
			if !ok {
				it.Close()
				return TableResult{}, apperrors.NewSnapshotError(apperrors.ErrEncoding, t.Name,
					fmt.Errorf("row is missing column '%s'", col))
			}
			lit, err := enc.Encode(v)
			if err != nil {
				it.Close()
				var se *apperrors.SnapshotError
				if errors.As(err, &se) {
					se.Table = t.Name
				}
				return TableResult{}, err
			}
			tuple[i] = lit
		}
		batch = append(batch, tuple)
		rowCount++
		if opts.MaxRowsPerStatement > 0 && len(batch) >= opts.MaxRowsPerStatement {
			if err := flush(); err != nil {
				it.Close()
				return TableResult{}, err
			}
		}
	}
	if err := it.Err(); err != nil {
		it.Close()
		return TableResult{}, apperrors.NewSnapshotError(apperrors.ErrQueryStream, t.Name, err)
	}
	if err := flush(); err != nil {
		it.Close()
		return TableResult{}, err
	}
	if err := it.Close(); err != nil {
		return TableResult{}, apperrors.NewSnapshotError(apperrors.ErrQueryStream, t.Name, err)
	}

	res := TableResult{Table: t, Rows: rowCount}
	lines := s.endTable()
	if opts.RetainInMemory && rowCount > 0 {
		res.Data = strings.Join(lines, "\n")
		res.HasData = true
	}

	// Blank separator after every table that produced output. The one after
	// the final table is the dump's trailing separator line.
	if opts.Verbose || rowCount > 0 {
		if err := s.write(""); err != nil {
			return TableResult{}, err
		}
	}
	return res, nil
}
