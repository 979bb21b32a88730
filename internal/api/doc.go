// Package api implements the HTTP REST API of the Kanban board service.
//
// This package provides:
//   - Account registration and bearer-token login
//   - Board listing, provisioning, retrieval and deletion, scoped to the owner
//   - The caller's own activity trail
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Authentication
//
// Every request passes the authentication gate before routing. The gate
// binds an *auth.Principal to the request context when the Authorization
// header carries a valid bearer token and otherwise lets the request
// continue anonymously. Protected routes reject anonymous callers with 401.
//
// # Authorization
//
// Board reads by id go through board.Guard: a missing board is 404 for every
// caller, a board owned by someone else is 403.
//
// # Graceful Degradation
//
// MQTT events and InfluxDB metrics are optional. The server runs without
// them and never fails a request because either is unavailable.
package api
