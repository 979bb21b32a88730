package board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nerrad567/kanban-core/internal/infrastructure/database"
)

// Repository reads and deletes boards. Creation goes through Provisioner.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Board, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Board, error)
	ListColumns(ctx context.Context, boardID int64) ([]Column, error)
	Delete(ctx context.Context, id int64) error
	DeleteColumn(ctx context.Context, boardID, columnID int64) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewRepository creates a new SQLite-backed board repository.
func NewRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type boardRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	OwnerID   int64  `db:"owner_id"`
	CreatedAt string `db:"created_at"`
}

func (r boardRow) toBoard() Board {
	b := Board{ID: r.ID, Name: r.Name, OwnerID: r.OwnerID, Columns: []Column{}}
	b.CreatedAt, _ = time.Parse(time.RFC3339, r.CreatedAt) //nolint:errcheck // format is controlled
	return b
}

type columnRow struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Position int    `db:"position"`
	BoardID  int64  `db:"board_id"`
}

func (r columnRow) toColumn() Column {
	return Column{ID: r.ID, Name: r.Name, Position: r.Position, BoardID: r.BoardID}
}

const (
	selectBoard  = `SELECT id, name, owner_id, created_at FROM boards`
	selectColumn = `SELECT id, name, position, board_id FROM board_columns`
)

// GetByID returns the board with its columns ordered by position.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Board, error) {
	var row boardRow
	if err := r.db.GetContext(ctx, &row, selectBoard+` WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("loading board: %w", err)
	}

	b := row.toBoard()
	cols, err := r.ListColumns(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Columns = cols
	return &b, nil
}

// ListByOwner returns every board owned by ownerID with columns attached,
// oldest first. The ownership filter is part of the query.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID int64) ([]Board, error) {
	var rows []boardRow
	if err := r.db.SelectContext(ctx, &rows, selectBoard+` WHERE owner_id = ? ORDER BY id`, ownerID); err != nil {
		return nil, fmt.Errorf("listing boards: %w", err)
	}

	boards := make([]Board, 0, len(rows))
	if len(rows) == 0 {
		return boards, nil
	}

	ids := make([]int64, len(rows))
	index := make(map[int64]int, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		index[row.ID] = i
		boards = append(boards, row.toBoard())
	}

	query, args, err := sqlx.In(selectColumn+` WHERE board_id IN (?) ORDER BY board_id, position, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("building column query: %w", err)
	}

	var cols []columnRow
	if err := r.db.SelectContext(ctx, &cols, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing columns: %w", err)
	}
	for _, c := range cols {
		i := index[c.BoardID]
		boards[i].Columns = append(boards[i].Columns, c.toColumn())
	}
	return boards, nil
}

// ListColumns returns the columns of a board ordered by position.
func (r *SQLiteRepository) ListColumns(ctx context.Context, boardID int64) ([]Column, error) {
	var rows []columnRow
	if err := r.db.SelectContext(ctx, &rows, selectColumn+` WHERE board_id = ? ORDER BY position, id`, boardID); err != nil {
		return nil, fmt.Errorf("listing columns: %w", err)
	}

	cols := make([]Column, len(rows))
	for i, row := range rows {
		cols[i] = row.toColumn()
	}
	return cols, nil
}

// Delete removes a board and all of its columns in one transaction.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM board_columns WHERE board_id = ?`, id); err != nil {
			return fmt.Errorf("deleting board columns: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting board: %w", err)
		}
		rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
		if rows == 0 {
			return ErrBoardNotFound
		}
		return nil
	})
}

// DeleteColumn removes a column from its board. A removed column is deleted,
// never left without a board. The column must belong to boardID.
func (r *SQLiteRepository) DeleteColumn(ctx context.Context, boardID, columnID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM board_columns WHERE id = ? AND board_id = ?`, columnID, boardID)
	if err != nil {
		return fmt.Errorf("deleting column: %w", err)
	}
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrColumnNotFound
	}
	return nil
}
