// Package database provides SQLite connectivity for the monitor's only
// cross-tick state: the per-instance history watermark.
//
// This package manages:
//   - Database connection with WAL mode
//   - One-table schema creation on open (no migration framework)
//   - Connection lifecycle and health checks
//
// Persistence is optional; when no database path is configured the exporter
// keeps watermarks in memory and re-exports the full history window after a
// restart (harmless, since the sink upserts on identical keys).
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "./data/watermarks.db", BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
package database
