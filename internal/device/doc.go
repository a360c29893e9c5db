// Package device provides the listener registry that fans reassembled
// bus frames out to interested consumers.
//
// The bridge delivers each inbound frame to the registry exactly once;
// consumers such as the traffic recorder, telemetry writer, and the
// live monitor stream subscribe with a callback and receive every
// frame synchronously. Handles returned by Subscribe allow consumers
// to detach cleanly during shutdown.
package device
