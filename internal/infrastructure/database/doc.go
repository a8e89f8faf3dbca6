// Package database provides SQLite connectivity for Tasklane Core.
//
// It owns the connection (WAL mode, busy timeout, foreign keys on, a single
// pooled connection), the transaction helper used by repositories, and
// embedded schema migrations tracked in schema_migrations.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql. All timestamps are stored as RFC3339 UTC text.
package database
