// Package sqlite implements the repository interfaces on an embedded SQLite
// database via the pure-Go modernc.org/sqlite driver. A single file (or
// ":memory:" in tests) is the whole store; sql.DB pools connections on top
// of it.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and implements repository.UserRepository and
// repository.GithubLinkRepository.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath, configures it, and runs migrations.
// Use ":memory:" for an ephemeral database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty
	// database, so pin the pool to one connection in that case.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	// deleted_at is a deletion marker, not consulted by core read paths.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			email             TEXT NOT NULL UNIQUE,
			password_hash     TEXT NOT NULL,
			name              TEXT NOT NULL,
			profile_image_url TEXT NOT NULL DEFAULT '',
			description       TEXT NOT NULL DEFAULT '',
			github_url        TEXT NOT NULL DEFAULT '',
			position          TEXT NOT NULL DEFAULT '',
			detailed_position TEXT NOT NULL DEFAULT '',
			career_level      TEXT NOT NULL DEFAULT '',
			created_at        DATETIME NOT NULL,
			updated_at        DATETIME NOT NULL,
			deleted_at        DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_users_name ON users(name);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// user_id and github_id are each UNIQUE: the user to github-id mapping
	// is 1:1 in both directions.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS github_links (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL UNIQUE REFERENCES users(id),
			github_id       INTEGER NOT NULL UNIQUE,
			github_username TEXT NOT NULL,
			access_token    TEXT NOT NULL,
			avatar_url      TEXT NOT NULL DEFAULT '',
			created_at      DATETIME NOT NULL,
			updated_at      DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating github_links table: %w", err)
	}

	// Skill ids are opaque external identifiers; the composite primary key
	// keeps each (user, skill) association distinct.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_skills (
			user_id  TEXT NOT NULL REFERENCES users(id),
			skill_id TEXT NOT NULL,
			PRIMARY KEY (user_id, skill_id)
		);
		CREATE INDEX IF NOT EXISTS idx_user_skills_skill_id ON user_skills(skill_id);
	`)
	if err != nil {
		return fmt.Errorf("creating user_skills table: %w", err)
	}

	return nil
}
