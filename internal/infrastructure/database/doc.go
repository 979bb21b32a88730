// Package database provides SQLite connectivity and schema migrations.
//
// Connections are opened through sqlx with foreign keys enforced and a
// single open connection, matching SQLite's single-writer model.
// Migrations are embedded SQL files applied with golang-migrate.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Multi-statement writes go through WithTx so a failure rolls back every
// statement in the unit of work.
package database
