package db

import (
	"strings"

	"gorm.io/gorm"
)

// JSONHasKey returns a where-clause that matches rows whose JSON object column
// contains the bound key. The clause takes exactly one argument.
func JSONHasKey(tx *gorm.DB, column string) string {
	if tx.Dialector.Name() == "postgres" {
		return "jsonb_exists(" + column + ", ?)"
	}
	return "EXISTS (SELECT 1 FROM json_each(" + column + ") WHERE json_each.key = ?)"
}

// JSONContains returns a where-clause matching rows whose JSON array column
// holds the bound string element.
func JSONContains(tx *gorm.DB, column string) string {
	if tx.Dialector.Name() == "postgres" {
		return "jsonb_exists(" + column + ", ?)"
	}
	return "EXISTS (SELECT 1 FROM json_each(" + column + ") WHERE json_each.value = ?)"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike quotes LIKE wildcards in s. Use it with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// LockTable takes a table lock that blocks concurrent writers until tx ends.
// SQLite already serializes writers, so it is a no-op there.
func LockTable(tx *gorm.DB, table string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("LOCK TABLE " + table + " IN SHARE ROW EXCLUSIVE MODE").Error
}
