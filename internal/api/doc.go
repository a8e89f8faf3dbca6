// Package api implements the HTTP REST API for Tasklane Core.
//
// This package provides:
//   - Authentication endpoints (login, logout) backed by auth.Service
//   - Admin user, company and audit endpoints
//   - Project and task endpoints gated by the auth policy table
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - Prometheus and InfluxDB request observation
//
// # Authorization chain
//
// Every protected route runs protect, which extracts the bearer token and
// resolves it to the current user through auth.Service.Authenticate. Routes
// that need a role then run requireCapability. Each stage ends the request
// with its own fixed 401 or 403 message, and each decision is counted.
//
// Task status updates need the task itself to decide (only the assignee may
// change it), so that handler evaluates auth.CapUpdateOwnTask after loading
// the task.
//
// # Error responses
//
// Failures use one JSON envelope, {"status":N,"code":"...","message":"..."}.
// Only 500 responses add "detail".
package api
