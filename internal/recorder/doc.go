// Package recorder persists bus traffic to SQLite.
//
// The recorder sits on the bridge's frame path: every reassembled
// inbound frame and every fragmented outbound frame is inserted into
// the frames table, per-message-code counters are upserted into
// message_code_stats, and transfer failures land in transfer_errors.
// Writes use prepared statements and are best-effort; a failed insert
// is logged but never blocks the bridge.
package recorder
