// Package audit records who changed what and when.
//
// Every mutating API operation and every login or logout produces one
// AuditLog row. Writes are issued from a single background goroutine in the
// API server so request latency never waits on them; admins read the trail
// through List.
package audit
