package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/kanban-core/internal/audit"
	"github.com/nerrad567/kanban-core/internal/board"
	"github.com/nerrad567/kanban-core/internal/infrastructure/mqtt"
)

// createBoardRequest is the body of POST /api/quadros.
type createBoardRequest struct {
	Nome string `json:"nome"`
	Name string `json:"name"`
}

// handleListBoards returns the caller's boards with their columns.
// Ownership is filtered in the query, so other users' boards never load.
func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	boards, err := s.boards.ListByOwner(r.Context(), principal.UserID())
	if err != nil {
		s.logger.Error("listing boards failed",
			"user_id", principal.UserID(),
			"error", err,
		)
		writeInternalError(w, "failed to list boards")
		return
	}

	writeJSON(w, http.StatusOK, boards)
}

// handleCreateBoard provisions a board with its default columns.
func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req createBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	principal := principalFrom(r)
	b, err := s.provisioner.CreateBoard(r.Context(), firstNonEmpty(req.Nome, req.Name), principal.User)
	if errors.Is(err, board.ErrInvalidName) || errors.Is(err, board.ErrNameTooLong) {
		writeValidationError(w, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("creating board failed",
			"user_id", principal.UserID(),
			"error", err,
			"request_id", requestIDFromContext(r.Context()),
		)
		writeInternalError(w, "failed to create board")
		return
	}

	s.logger.Info("board created", "board_id", b.ID, "user_id", principal.UserID())
	s.auditLog(audit.ActionCreate, audit.EntityBoard, strconv.FormatInt(b.ID, 10), principal.UserID(),
		map[string]any{"name": b.Name, "columns": len(b.Columns)})
	s.publishEvent(mqtt.Topics{}.BoardCreated(b.ID), newBoardEvent(b))
	if s.metrics != nil {
		s.metrics.WriteBoardEvent(audit.ActionCreate)
	}

	writeJSON(w, http.StatusCreated, b)
}

// handleGetBoard returns one board if the caller owns it.
func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	b, ok := s.authorizeBoard(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleDeleteBoard removes a board and its columns.
func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	b, ok := s.authorizeBoard(w, r)
	if !ok {
		return
	}

	if err := s.boards.Delete(r.Context(), b.ID); err != nil {
		if errors.Is(err, board.ErrBoardNotFound) {
			writeNotFound(w, "board not found")
			return
		}
		s.logger.Error("deleting board failed", "board_id", b.ID, "error", err)
		writeInternalError(w, "failed to delete board")
		return
	}

	principal := principalFrom(r)
	s.logger.Info("board deleted", "board_id", b.ID, "user_id", principal.UserID())
	s.auditLog(audit.ActionDelete, audit.EntityBoard, strconv.FormatInt(b.ID, 10), principal.UserID(),
		map[string]any{"name": b.Name})
	s.publishEvent(mqtt.Topics{}.BoardDeleted(b.ID), newBoardEvent(b))
	if s.metrics != nil {
		s.metrics.WriteBoardEvent(audit.ActionDelete)
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteColumn removes one column from a board the caller owns.
func (s *Server) handleDeleteColumn(w http.ResponseWriter, r *http.Request) {
	b, ok := s.authorizeBoard(w, r)
	if !ok {
		return
	}

	columnID, err := strconv.ParseInt(chi.URLParam(r, "colunaId"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid column id")
		return
	}

	if err := s.boards.DeleteColumn(r.Context(), b.ID, columnID); err != nil {
		if errors.Is(err, board.ErrColumnNotFound) {
			writeNotFound(w, "column not found")
			return
		}
		s.logger.Error("deleting column failed", "board_id", b.ID, "column_id", columnID, "error", err)
		writeInternalError(w, "failed to delete column")
		return
	}

	principal := principalFrom(r)
	s.auditLog(audit.ActionDelete, audit.EntityColumn, strconv.FormatInt(columnID, 10), principal.UserID(),
		map[string]any{"board_id": b.ID})
	s.publishEvent(mqtt.Topics{}.ColumnDeleted(b.ID, columnID), newColumnEvent(b.ID, columnID))

	w.WriteHeader(http.StatusNoContent)
}

// authorizeBoard parses {id} and runs the ownership guard, writing the
// error response itself when access is refused.
func (s *Server) authorizeBoard(w http.ResponseWriter, r *http.Request) (*board.Board, bool) {
	boardID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid board id")
		return nil, false
	}

	principal := principalFrom(r)
	b, err := s.guard.AuthorizeOwnerAccess(r.Context(), boardID, principal)
	switch {
	case err == nil:
		return b, true
	case errors.Is(err, board.ErrBoardNotFound):
		writeNotFound(w, "board not found")
	case errors.Is(err, board.ErrForbidden):
		s.logger.Warn("board access denied",
			"board_id", boardID,
			"user_id", principal.UserID(),
			"request_id", requestIDFromContext(r.Context()),
		)
		writeForbidden(w)
	default:
		s.logger.Error("loading board failed", "board_id", boardID, "error", err)
		writeInternalError(w, "failed to load board")
	}
	return nil, false
}
