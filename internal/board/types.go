package board

import (
	"errors"
	"strings"
	"time"
)

// MaxNameLength bounds board names.
const MaxNameLength = 100

// DefaultColumns is the column template every new board receives, in order.
var DefaultColumns = []string{"To Do", "Doing", "Done"}

// Board is a task board owned by exactly one user.
type Board struct {
	ID        int64     `json:"id"`
	Name      string    `json:"nome"`
	OwnerID   int64     `json:"-"`
	CreatedAt time.Time `json:"-"`
	Columns   []Column  `json:"colunas"`
}

// Column belongs to exactly one board. Position orders columns within it.
type Column struct {
	ID       int64  `json:"id"`
	Name     string `json:"nome"`
	Position int    `json:"posicao"`
	BoardID  int64  `json:"-"`
}

// Sentinel errors for board operations.
var (
	ErrBoardNotFound  = errors.New("board not found")
	ErrColumnNotFound = errors.New("column not found")
	ErrForbidden      = errors.New("board belongs to another user")
	ErrInvalidName    = errors.New("board name is required")
	ErrNameTooLong    = errors.New("board name is too long")
	ErrOwnerRequired  = errors.New("board owner is required")
)

// ValidateName trims name and checks it is usable as a board name.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	if len(name) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}
