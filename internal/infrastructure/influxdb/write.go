package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementAuthDecision = "auth_decision"
	measurementHTTPRequest  = "http_request"
)

// AuthDecision describes one pass through the authorization chain.
type AuthDecision struct {
	// Stage is where the chain stopped: token, identity or capability.
	Stage string
	// Outcome is allowed or denied.
	Outcome string
	// Capability is empty for protect-only routes.
	Capability string
	// Reason is the denial reason, e.g. invalid_token.
	Reason string
}

// WriteAuthDecision records an authorization outcome. Non-blocking.
func (c *Client) WriteAuthDecision(d AuthDecision) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(authDecisionPoint(d, time.Now()))
}

// WriteRequest records one HTTP request. route is the chi route pattern,
// never the raw path, so tag cardinality stays bounded.
func (c *Client) WriteRequest(method, route string, status int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(requestPoint(method, route, status, duration, time.Now()))
}

func authDecisionPoint(d AuthDecision, at time.Time) *write.Point {
	tags := map[string]string{
		"stage":   d.Stage,
		"outcome": d.Outcome,
	}
	if d.Capability != "" {
		tags["capability"] = d.Capability
	}
	if d.Reason != "" {
		tags["reason"] = d.Reason
	}
	return write.NewPoint(measurementAuthDecision, tags,
		map[string]interface{}{"count": 1}, at)
}

func requestPoint(method, route string, status int, duration time.Duration, at time.Time) *write.Point {
	return write.NewPoint(measurementHTTPRequest,
		map[string]string{
			"method": method,
			"route":  route,
		},
		map[string]interface{}{
			"status":      status,
			"duration_ms": float64(duration.Microseconds()) / 1000,
		},
		at,
	)
}
