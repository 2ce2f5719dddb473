package db

import (
	"database/sql"
	_ "embed"
	"errors"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

func openSettings(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, storageError("open", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, storageError("init", path, err)
	}
	return db, nil
}

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.settings.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", storageError("get setting", key, err)
	}
	return value, nil
}

// SetSetting sets a setting value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.settings.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return storageError("set setting", key, err)
	}
	return nil
}
