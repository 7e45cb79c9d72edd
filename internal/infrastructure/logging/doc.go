// Package logging provides structured logging for autoremote.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the library and CLI.
//
// # Features
//
//   - Text output for terminals, JSON output for log collectors
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
//	logging:
//	  level: "warn"      # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stderr"   # stderr, stdout
//
// Logs default to stderr because stdout carries command output.
//
// # Security
//
// Never log device keys. Use the key hint instead:
//
//	logger.Info("device added", "name", dev.Name, "key", dev.KeyHint())
package logging
