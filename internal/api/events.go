package api

import (
	"time"

	"github.com/nerrad567/kanban-core/internal/auth"
	"github.com/nerrad567/kanban-core/internal/board"
)

// userEvent is the payload of kanban/events/user/registered.
// It carries no email address.
type userEvent struct {
	UserID    int64  `json:"user_id"`
	Timestamp string `json:"timestamp"`
}

// boardEvent is the payload of board created/deleted events.
type boardEvent struct {
	BoardID   int64  `json:"board_id"`
	OwnerID   int64  `json:"owner_id"`
	Name      string `json:"name"`
	Columns   int    `json:"columns"`
	Timestamp string `json:"timestamp"`
}

type columnEvent struct {
	BoardID   int64  `json:"board_id"`
	ColumnID  int64  `json:"column_id"`
	Timestamp string `json:"timestamp"`
}

func eventTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func newUserEvent(u *auth.User) userEvent {
	return userEvent{UserID: u.ID, Timestamp: eventTimestamp()}
}

func newBoardEvent(b *board.Board) boardEvent {
	return boardEvent{
		BoardID:   b.ID,
		OwnerID:   b.OwnerID,
		Name:      b.Name,
		Columns:   len(b.Columns),
		Timestamp: eventTimestamp(),
	}
}

func newColumnEvent(boardID, columnID int64) columnEvent {
	return columnEvent{BoardID: boardID, ColumnID: columnID, Timestamp: eventTimestamp()}
}

// publishEvent sends payload to topic when an event publisher is
// configured. Failures are logged and never reach the client.
func (s *Server) publishEvent(topic string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(topic, payload); err != nil {
		s.logger.Warn("event publish failed", "topic", topic, "error", err)
	}
}
