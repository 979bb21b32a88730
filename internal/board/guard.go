package board

import (
	"context"

	"github.com/nerrad567/kanban-core/internal/auth"
)

// Guard authorises by-id access to a single board.
type Guard struct {
	boards Repository
}

// NewGuard creates a Guard reading from boards.
func NewGuard(boards Repository) *Guard {
	return &Guard{boards: boards}
}

// AuthorizeOwnerAccess loads the board and checks principal owns it.
//
// The lookup happens first: a missing board returns ErrBoardNotFound for
// every caller. Only an existing board is compared against the principal;
// a different owner or an anonymous caller gets ErrForbidden.
func (g *Guard) AuthorizeOwnerAccess(ctx context.Context, boardID int64, principal *auth.Principal) (*Board, error) {
	b, err := g.boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}

	if principal == nil || principal.UserID() != b.OwnerID {
		return nil, ErrForbidden
	}
	return b, nil
}
