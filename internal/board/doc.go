// Package board owns boards and their columns.
//
// Boards are created only through the Provisioner, which writes the board
// and its default columns ("To Do", "Doing", "Done") in one transaction.
// Reads by id go through the Guard: a missing board is reported before any
// ownership comparison, so non-owners learn nothing beyond NotFound.
// Listing filters by owner inside the query instead.
//
// Deletes fan out explicitly (columns first, then the board) even though
// the schema also declares ON DELETE CASCADE.
package board
