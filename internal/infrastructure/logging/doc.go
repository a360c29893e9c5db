// Package logging provides structured logging for the knxlink gateway.
//
// It wraps the standard library's log/slog with configuration-driven
// format and level selection and stamps every record with the service
// name and build version.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("transport opened", "device", cfg.Transport.Device)
//
// Components derive scoped loggers with With:
//
//	busLog := log.With("component", "bridge")
package logging
