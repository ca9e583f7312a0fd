package models

import (
	"github.com/fundwise/ledgex/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Lock starts a query that takes a row-level write lock.
func Lock() (tx *gorm.DB) {
	return config.DataBase.Clauses(clause.Locking{Strength: "UPDATE"})
}
