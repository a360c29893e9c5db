package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/arlobright/knxlink/internal/cemi"
)

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Recorder passively records bus traffic as it flows through the
// bridge. Every reassembled inbound frame and every submitted outbound
// frame is persisted, together with per-message-code counters, building
// a queryable history of bus activity over time.
//
// Thread Safety: All methods are safe for concurrent use.
type Recorder struct {
	db     *sql.DB
	iface  string
	logger Logger

	// Prepared statements (created once in Start, reused)
	frameInsertStmt *sql.Stmt
	statsUpsertStmt *sql.Stmt
	errorInsertStmt *sql.Stmt
	stmtMu          sync.Mutex

	// Shutdown coordination
	closed bool
	mu     sync.RWMutex
}

// New creates a recorder bound to a single interface.
// The database must have the frames, message_code_stats, and
// transfer_errors tables created.
func New(db *sql.DB, iface string) *Recorder {
	return &Recorder{
		db:    db,
		iface: iface,
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// Start prepares the recorder for use.
// Must be called before RecordFrame or RecordError.
func (r *Recorder) Start() error {
	r.stmtMu.Lock()
	defer r.stmtMu.Unlock()

	if r.frameInsertStmt != nil {
		return nil // Already started
	}

	frameStmt, err := r.db.Prepare(`
		INSERT INTO frames (interface, direction, message_code, frame_length, report_count, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing frame insert statement: %w", err)
	}

	statsStmt, err := r.db.Prepare(`
		INSERT INTO message_code_stats (interface, direction, message_code, count, last_seen)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(interface, direction, message_code) DO UPDATE SET
			count = count + 1,
			last_seen = excluded.last_seen
	`)
	if err != nil {
		frameStmt.Close()
		return fmt.Errorf("preparing stats upsert statement: %w", err)
	}

	errorStmt, err := r.db.Prepare(`
		INSERT INTO transfer_errors (interface, reason, detail)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		frameStmt.Close()
		statsStmt.Close()
		return fmt.Errorf("preparing error insert statement: %w", err)
	}

	r.frameInsertStmt = frameStmt
	r.statsUpsertStmt = statsStmt
	r.errorInsertStmt = errorStmt
	r.log("traffic recorder started", "interface", r.iface)
	return nil
}

// Stop closes the recorder and releases resources.
func (r *Recorder) Stop() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.stmtMu.Lock()
	defer r.stmtMu.Unlock()

	if r.frameInsertStmt != nil {
		r.frameInsertStmt.Close()
		r.frameInsertStmt = nil
	}
	if r.statsUpsertStmt != nil {
		r.statsUpsertStmt.Close()
		r.statsUpsertStmt = nil
	}
	if r.errorInsertStmt != nil {
		r.errorInsertStmt.Close()
		r.errorInsertStmt = nil
	}

	r.log("traffic recorder stopped")
}

// RecordFrame persists a frame that crossed the bridge.
// Called for every reassembled inbound frame and every fragmented
// outbound frame.
//
// Parameters:
//   - direction: "rx" for inbound, "tx" for outbound
//   - frame: The data-link frame
//   - reportCount: Number of HID reports the frame spanned on the wire
func (r *Recorder) RecordFrame(direction string, frame cemi.Frame, reportCount int) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return
	}
	r.mu.RUnlock()

	r.stmtMu.Lock()
	frameStmt := r.frameInsertStmt
	statsStmt := r.statsUpsertStmt
	r.stmtMu.Unlock()

	if frameStmt == nil || statsStmt == nil {
		return // Not started
	}

	code := byte(frame.MessageCode())
	if _, err := frameStmt.Exec(r.iface, direction, code, frame.Length(), reportCount, frame.Raw()); err != nil {
		r.logError("recording frame", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := statsStmt.Exec(r.iface, direction, code, now); err != nil {
		r.logError("recording message code stats", err)
	}
}

// RecordError persists a transfer failure.
//
// Parameters:
//   - reason: Short failure class (e.g., "sequence_gap")
//   - detail: Human-readable detail, typically err.Error()
func (r *Recorder) RecordError(reason, detail string) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return
	}
	r.mu.RUnlock()

	r.stmtMu.Lock()
	errorStmt := r.errorInsertStmt
	r.stmtMu.Unlock()

	if errorStmt == nil {
		return // Not started
	}

	if _, err := errorStmt.Exec(r.iface, reason, detail); err != nil {
		r.logError("recording transfer error", err)
	}
}

// FrameCount returns the number of recorded frames for this interface.
func (r *Recorder) FrameCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM frames WHERE interface = ?`, r.iface,
	).Scan(&count)
	return count, err
}

// ErrorCount returns the number of recorded transfer errors.
func (r *Recorder) ErrorCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfer_errors WHERE interface = ?`, r.iface,
	).Scan(&count)
	return count, err
}

// MessageCodeStat is one row of per-message-code traffic counters.
type MessageCodeStat struct {
	Direction   string `json:"direction"`
	MessageCode byte   `json:"message_code"`
	Count       int    `json:"count"`
	LastSeen    string `json:"last_seen"`
}

// MessageCodeStats returns traffic counters grouped by message code,
// most active codes first.
func (r *Recorder) MessageCodeStats(ctx context.Context) ([]MessageCodeStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT direction, message_code, count, last_seen
		FROM message_code_stats
		WHERE interface = ?
		ORDER BY count DESC, message_code ASC
	`, r.iface)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []MessageCodeStat
	for rows.Next() {
		var s MessageCodeStat
		if err := rows.Scan(&s.Direction, &s.MessageCode, &s.Count, &s.LastSeen); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// log logs an info message if logger is set.
func (r *Recorder) log(msg string, keysAndValues ...any) {
	if r.logger != nil {
		r.logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error if logger is set.
func (r *Recorder) logError(msg string, err error) {
	if r.logger != nil {
		r.logger.Error(msg, "error", err)
	}
}
