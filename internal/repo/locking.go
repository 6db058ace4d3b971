package repo

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate applies a row lock on dialects that support it. SQLite, used by
// the repository tests, serializes writers globally and rejects FOR UPDATE.
func ForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() != "postgres" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// ForUpdateSkipLocked claims rows for a worker, letting concurrent instances
// pass over each other's claims.
func ForUpdateSkipLocked(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() != "postgres" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
}
