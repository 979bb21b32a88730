package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementHTTPRequests = "http_requests"
	MeasurementAuthEvents   = "auth_events"
	MeasurementBoardEvents  = "board_events"
)

// WriteHTTPRequest records one served request. route is the chi route
// pattern (e.g. /api/quadros/{id}) so board ids do not explode tag
// cardinality.
func (c *Client) WriteHTTPRequest(method, route string, status int, duration time.Duration) {
	c.WritePoint(MeasurementHTTPRequests,
		map[string]string{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		},
		map[string]any{
			"duration_ms": float64(duration.Microseconds()) / 1000, //nolint:mnd // µs to ms
			"count":       1,
		},
	)
}

// WriteAuthEvent records a registration or login outcome such as
// "registered", "login_ok" or "login_failed".
func (c *Client) WriteAuthEvent(outcome string) {
	c.WritePoint(MeasurementAuthEvents,
		map[string]string{"outcome": outcome},
		map[string]any{"count": 1},
	)
}

// WriteBoardEvent records a board lifecycle action ("create", "delete").
func (c *Client) WriteBoardEvent(action string) {
	c.WritePoint(MeasurementBoardEvents,
		map[string]string{"action": action},
		map[string]any{"count": 1},
	)
}

// WritePoint writes a point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, ts))
}
