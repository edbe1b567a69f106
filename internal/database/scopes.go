package database

import (
	"gorm.io/gorm"
)

// OwnedBy restricts a query to rows belonging to ownerID.
func OwnedBy(ownerID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ?", ownerID)
	}
}

// OwnedRecord restricts a query to the row with id belonging to ownerID.
// Both predicates are applied in the same statement.
func OwnedRecord(id, ownerID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ? AND owner_id = ?", id, ownerID)
	}
}
