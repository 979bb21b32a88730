// Package mqtt publishes Kanban API lifecycle events to an MQTT broker.
//
// The broker is optional. When enabled, the API publishes:
//
//	kanban/system/status                    retained online/offline (also the Last Will)
//	kanban/events/user/registered           after registration
//	kanban/events/board/{id}/created        after a board is provisioned
//	kanban/events/board/{id}/deleted        after a board is removed
//	kanban/events/board/{id}/column/{c}/deleted
//
// Publishing is best effort: request handling never fails because the
// broker is unreachable.
package mqtt
