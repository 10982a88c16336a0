package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jorgepascosoto/mysql-snapshot/internal/dump"
)

// ListTables discovers the base tables and views of the connected database,
// each with its column names in ordinal position. The returned descriptors
// feed the snapshot engine as-is; SELECT * returns columns in the same
// ordinal order, so tuple order and header order line up.
func ListTables(ctx context.Context, db *sql.DB) ([]dump.Table, error) {
	rows, err := db.QueryContext(ctx, "SHOW FULL TABLES")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []dump.Table
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan table row: %w", err)
		}
		tables = append(tables, dump.Table{
			Name:   name,
			IsView: kind == "VIEW",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	for i := range tables {
		cols, err := listColumns(ctx, db, tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].Columns = cols
	}
	return tables, nil
}

func listColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	const q = `SELECT COLUMN_NAME
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	rows, err := db.QueryContext(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns for '%s': %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("failed to scan column row: %w", err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list columns for '%s': %w", table, err)
	}
	return cols, nil
}
