// Package log provides flightreview's structured logging facade and utilities.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Entries are built as slog
// records and rendered by a slog.Handler that writes through the logger's
// Formatter and Outputs. There is no fatal level.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("decoder"), log.Str("log_id", id))
//	l.Warn("record skipped", log.Uint64("offset", off))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config, supporting JSON
// or text formatting and multiple outputs (console, file, null). Redaction and
// sampling are configured on the same Config.
//
// # Interop
//
// To integrate with libraries expecting *log.Logger (Pebble logs through the
// standard library, as does net/http's ErrorLog), use ToStdLogger or
// RedirectStdLog.
package log
