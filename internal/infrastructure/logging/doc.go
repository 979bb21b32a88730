// Package logging provides structured logging for the Kanban API.
//
// It wraps log/slog so every component logs key/value pairs with the
// same default fields (service, version).
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("board created", "board_id", id, "user_id", userID)
//
// Never log tokens, password hashes, or the signing secret.
package logging
