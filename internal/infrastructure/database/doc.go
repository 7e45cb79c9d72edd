// Package database provides SQLite connectivity for the local device store.
//
// This package manages:
//   - Opening the database file (creating its directory on first use)
//   - Applying the embedded schema files in version order
//   - Health checks and lifecycle management
//
// Security Considerations:
//   - All queries use parameterised statements
//   - The database file holds device keys and is chmod 0600
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
