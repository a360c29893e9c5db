// Package database provides the SQLite storage layer for recorded bus
// traffic.
//
// It wraps database/sql with knxlink-specific setup: directory and file
// permission handling, WAL mode, busy timeout, a single-writer
// connection pool, and inline schema bootstrap for the frames,
// message_code_stats, and transfer_errors tables.
//
// Usage:
//
//	db, err := database.Open(cfg.Recorder)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
package database
