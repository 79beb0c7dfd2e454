package persistence

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate applies a row-level exclusive lock to the query. SQLite locks
// the whole database per transaction and rejects FOR UPDATE syntax, so the
// clause is applied only on dialects that support it.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
