package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ModificationHistory represents the schema of the modification_history table.
// Every answer change, automatic or manual, gets one row so any run can be
// audited and rolled back entry by entry.
type ModificationHistory struct {
	ID            uint   `gorm:"primaryKey"`             // Auto-incrementing primary key
	Filename      string `gorm:"size:255;not null"`      // Answer entry being modified
	PreviousValue string `gorm:"size:1024"`              // Previous answer text
	NewValue      string `gorm:"size:1024"`              // New answer text
	Source        string `gorm:"size:32;not null"`       // "auto" or "manual"
	Undone        bool   `gorm:"not null;default:false"` // Whether the modification has been undone
}

// InitializeDB initializes the SQLite database and migrates the schema
func InitializeDB() *gorm.DB {
	// Ensure db directory exists
	dbDir := "db"
	if err := os.MkdirAll(dbDir, os.ModePerm); err != nil {
		log.Fatalf("Failed to create db directory: %v", err)
	}

	dbPath := filepath.Join(dbDir, "modification_history.db")

	// Connect to SQLite database
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Migrate the schema (create the table if it doesn't exist)
	err = db.AutoMigrate(&ModificationHistory{})
	if err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}

	return db
}

// InsertModification inserts a new modification record into the database
func InsertModification(db *gorm.DB, record ModificationHistory) error {
	result := db.Create(&record)
	return result.Error
}

// GetAllModifications retrieves all modification records, newest first
func GetAllModifications(db *gorm.DB) ([]ModificationHistory, error) {
	var records []ModificationHistory
	result := db.Order("id DESC").Find(&records)
	return records, result.Error
}

// UndoModification marks a modification as undone and returns it so the
// caller can restore the previous answer value.
func UndoModification(db *gorm.DB, id uint) (ModificationHistory, error) {
	var record ModificationHistory
	if result := db.First(&record, id); result.Error != nil {
		return ModificationHistory{}, result.Error
	}
	if record.Undone {
		return ModificationHistory{}, fmt.Errorf("modification %d is already undone", id)
	}

	record.Undone = true
	if result := db.Save(&record); result.Error != nil {
		return ModificationHistory{}, result.Error
	}
	return record, nil
}
