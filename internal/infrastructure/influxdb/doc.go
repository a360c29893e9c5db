// Package influxdb provides time-series telemetry for bus framing.
//
// It wraps the InfluxDB v2 client with non-blocking batched writes for
// transfer outcomes (completed and failed) and interface health. All
// writes are fire-and-forget; async write failures surface through the
// SetOnError callback.
//
// Measurements:
//
//	transfers         completed reassembly/fragmentation, tagged by
//	                  interface, direction, and message code
//	transfer_errors   failures tagged by reason
//	interface_health  per-interface up/down gauge
//
// The package is optional: when influxdb.enabled is false in the
// configuration, Connect returns ErrDisabled and callers run without
// telemetry.
package influxdb
