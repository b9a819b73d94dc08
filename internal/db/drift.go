package db

import (
	"context"
	"fmt"
)

// driftColumns lists columns that older deployments may lack. Earlier
// revisions of the tool shipped without them, so the open path adds any that
// are missing rather than requiring a fresh database. Idempotent; runs once
// at startup after versioned migrations.
var driftColumns = []struct {
	table, column, decl string
}{
	{"requests", "driver_contact", "TEXT NOT NULL DEFAULT ''"},
	{"requests", "risk", "TEXT NOT NULL DEFAULT 'LOW'"},
	{"requests", "signature_path", "TEXT NOT NULL DEFAULT ''"},
	{"requests", "artifacts_json", "TEXT NOT NULL DEFAULT '{}'"},
}

func (db *DB) ensureDriftColumns(ctx context.Context) error {
	for _, d := range driftColumns {
		ok, err := db.hasColumn(ctx, d.table, d.column)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", d.table, d.column, d.decl)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", d.table, d.column, err)
		}
	}
	return nil
}

func (db *DB) hasColumn(ctx context.Context, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s);", table))
	if err != nil {
		return false, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return false, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
