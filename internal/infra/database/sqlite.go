package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSqlite opens a SQLite database at path. ":memory:" gives a private
// in-memory database.
func NewSqlite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(),
	})
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}
