package config

import (
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDB opens the local store database. The ledger is single-writer and
// lives in a plain sqlite file, DB_PATH (default boutiquepro.db).
func ConnectDB() {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "boutiquepro.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		panic("Failed to connect database")
	}

	DB = db
}
