// Package influxdb writes Tasklane activity series to InfluxDB 2.x.
//
// Two measurements are recorded:
//
//	auth_decision  tags: stage, outcome, capability, reason   field: count
//	http_request   tags: method, route                        fields: status, duration_ms
//
// The integration is optional. Connect returns ErrDisabled when
// influxdb.enabled is false, and every write method is a no-op on a
// disconnected client, so callers never branch on availability.
package influxdb
