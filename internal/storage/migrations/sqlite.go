package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// RunSQLiteMigrations applies all embedded SQLite files in lexical order, one
// statement per Exec.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	files, err := loadStatements(SQLiteFS, "sqlite")
	if err != nil {
		return err
	}
	for _, f := range files {
		for _, stmt := range f.stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", f.name, err)
			}
		}
	}
	return nil
}
