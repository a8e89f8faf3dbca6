// Package logging provides structured logging for Tasklane Core.
//
// It wraps log/slog so every component logs the same way: JSON in
// production, text during development, with service and version fields on
// every entry.
//
// Configuration (config.yaml):
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// Never log passwords, session tokens or the JWT secret.
package logging
