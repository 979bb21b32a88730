// Package influxdb records Kanban API activity metrics in InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library and writes three
// measurements:
//
//	http_requests  tags method, route, status; fields duration_ms, count
//	auth_events    tag outcome; field count
//	board_events   tag action; field count
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics off
//	}
//	defer client.Close()
//	client.WriteBoardEvent("create")
//
// Writes are batched and non-blocking. A nil *Client accepts writes and
// discards them.
package influxdb
