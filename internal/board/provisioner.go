package board

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nerrad567/kanban-core/internal/auth"
	"github.com/nerrad567/kanban-core/internal/infrastructure/database"
)

// Provisioner creates boards together with their default columns.
type Provisioner struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewProvisioner creates a Provisioner writing to db.
func NewProvisioner(db *sqlx.DB) *Provisioner {
	return &Provisioner{db: db, now: time.Now}
}

// CreateBoard stores a board named name for owner along with the
// DefaultColumns. Both writes share one transaction: if any column insert
// fails the board insert is rolled back and no board is left behind.
// The returned board has its columns attached.
func (p *Provisioner) CreateBoard(ctx context.Context, name string, owner *auth.User) (*Board, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	if owner == nil || owner.ID == 0 {
		return nil, ErrOwnerRequired
	}

	createdAt := p.now().UTC().Format(time.RFC3339)
	b := &Board{Name: name, OwnerID: owner.ID}

	err = database.WithTx(ctx, p.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO boards (name, owner_id, created_at) VALUES (?, ?, ?)`,
			b.Name, b.OwnerID, createdAt,
		)
		if err != nil {
			return fmt.Errorf("inserting board: %w", err)
		}
		if b.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("reading board id: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx,
			`INSERT INTO board_columns (name, position, board_id) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing column insert: %w", err)
		}
		defer stmt.Close() //nolint:errcheck // closed with the transaction

		b.Columns = make([]Column, 0, len(DefaultColumns))
		for pos, colName := range DefaultColumns {
			res, err := stmt.ExecContext(ctx, colName, pos, b.ID)
			if err != nil {
				return fmt.Errorf("inserting column %q: %w", colName, err)
			}
			colID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("reading column id: %w", err)
			}
			b.Columns = append(b.Columns, Column{ID: colID, Name: colName, Position: pos, BoardID: b.ID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return b, nil
}
