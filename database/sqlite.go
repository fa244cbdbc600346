package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	_ "github.com/mattn/go-sqlite3" // SQLiteドライバー

	"gamecollection/config"
)

const createGamesTable = `
CREATE TABLE IF NOT EXISTS games (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL CHECK (trim(title) <> ''),
	platform TEXT,
	genre TEXT,
	hours_played INTEGER,
	completed BOOLEAN,
	status TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME
);`

// 後から追加した列。古いDBファイルには無いので起動時に足す
var addedColumns = []struct {
	Name string
	Type string
}{
	{"status", "TEXT"},
	{"updated_at", "DATETIME"},
}

func InitDB(cfg *config.Config) (*sql.DB, error) {
	path := cfg.Server.DBPath
	if !isMemory(path) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, err
	}
	// SQLiteは書き込みが1本なので接続も1本に絞る（:memory: でも同じDBを見るため）
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createGamesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create games table: %w", err)
	}

	if err := setupColumns(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func setupColumns(db *sql.DB) error {
	// 1. 現在のテーブルにある列名をすべて取得する
	rows, err := db.Query("PRAGMA table_info(games);")
	if err != nil {
		return err
	}

	existingColumns := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, dtype string
		var notnull, pk int
		var dfltValue interface{}

		// PRAGMA table_info は cid, name, type, notnull, dflt_value, pk を返す
		if err := rows.Scan(&cid, &name, &dtype, &notnull, &dfltValue, &pk); err != nil {
			rows.Close()
			return err
		}
		existingColumns[name] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	// 2. 存在しない列だけ追加する
	for _, col := range addedColumns {
		if existingColumns[col.Name] {
			continue
		}
		alterSQL := fmt.Sprintf("ALTER TABLE games ADD COLUMN %s %s;", col.Name, col.Type)
		if _, err := db.Exec(alterSQL); err != nil {
			return fmt.Errorf("add column %s: %w", col.Name, err)
		}
		log.Infof("Added column: %s", col.Name)
	}
	return nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file:")
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000"
}
