package mqtt

import "fmt"

// Topic prefixes for the Kanban API.
const (
	TopicPrefix       = "kanban"
	TopicPrefixSystem = "kanban/system"
	TopicPrefixEvents = "kanban/events"
)

// Topics builds the MQTT topics the API publishes to.
//
//	topics := mqtt.Topics{}
//	topics.BoardCreated(42) // "kanban/events/board/42/created"
type Topics struct{}

// SystemStatus carries the retained online/offline status and the Last Will.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// UserRegistered is published after a successful registration.
func (Topics) UserRegistered() string {
	return TopicPrefixEvents + "/user/registered"
}

// BoardCreated is published after a board and its default columns commit.
func (Topics) BoardCreated(boardID int64) string {
	return fmt.Sprintf("%s/board/%d/created", TopicPrefixEvents, boardID)
}

// BoardDeleted is published after a board is removed.
func (Topics) BoardDeleted(boardID int64) string {
	return fmt.Sprintf("%s/board/%d/deleted", TopicPrefixEvents, boardID)
}

// ColumnDeleted is published after a single column is removed from a board.
func (Topics) ColumnDeleted(boardID, columnID int64) string {
	return fmt.Sprintf("%s/board/%d/column/%d/deleted", TopicPrefixEvents, boardID, columnID)
}

// AllBoardEvents is the wildcard consumers use to follow every board.
func (Topics) AllBoardEvents() string {
	return TopicPrefixEvents + "/board/#"
}
