// Package database stores the rejection journal in SQLite.
package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"livechart/internal/logging"
	"livechart/internal/migrations"
)

var (
	db   *sql.DB
	dbMu sync.RWMutex
)

// GetDB returns the open database, or nil before Initialize.
func GetDB() *sql.DB {
	dbMu.RLock()
	defer dbMu.RUnlock()
	return db
}

// Initialize opens dbPath and brings its schema up to date.
func Initialize(dbPath string) error {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrations.Run(conn); err != nil {
		conn.Close()
		return err
	}

	dbMu.Lock()
	db = conn
	dbMu.Unlock()

	logging.Info("Database initialized successfully at %s", dbPath)
	return nil
}

// Close closes the database
func Close() error {
	dbMu.Lock()
	defer dbMu.Unlock()

	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}
