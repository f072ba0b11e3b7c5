// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code, so no C compiler is needed.
//
// SCHEMA MIGRATIONS:
// The schema lives in migrations/*.sql, embedded into the binary and applied
// by goose at startup. goose records applied versions in goose_db_version,
// so New is safe to call against an existing database.
//
// LIST-VALUED COLUMNS:
// Tags, modules, order items and similar nested values are stored as JSON
// text columns. They are always read and written whole, never queried into.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB owns the sql.DB connection pool. Repositories are reached through the
// per-resource views returned by Users(), Articles() and so on.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and brings the schema up to date.
//
// dbPath examples:
//   - "data/edtech.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every new connection to ":memory:" is a brand-new empty database, so
	// the pool must never open a second one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent readers while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping is used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.conn, "migrations"); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Each repository interface gets a thin view over the shared pool. The
// views exist because several interfaces share method names (Create,
// GetByID, Delete) that a single type could not implement twice.

func (db *DB) Users() *UserDB         { return &UserDB{conn: db.conn} }
func (db *DB) Articles() *ArticleDB   { return &ArticleDB{conn: db.conn} }
func (db *DB) Courses() *CourseDB     { return &CourseDB{conn: db.conn} }
func (db *DB) Goodies() *GoodieDB     { return &GoodieDB{conn: db.conn} }
func (db *DB) Questions() *QuestionDB { return &QuestionDB{conn: db.conn} }
func (db *DB) Workshops() *WorkshopDB { return &WorkshopDB{conn: db.conn} }
func (db *DB) Colleges() *CollegeDB   { return &CollegeDB{conn: db.conn} }
func (db *DB) Orders() *OrderDB       { return &OrderDB{conn: db.conn} }
func (db *DB) Resumes() *ResumeDB     { return &ResumeDB{conn: db.conn} }
func (db *DB) KV() *KVDB              { return &KVDB{conn: db.conn} }

// encodeJSON marshals a nested value for a JSON text column. nil slices and
// maps are written as empty collections so reads never see "null".
func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

func decodeJSON(raw string, dst any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc surfaces SQLite's message text rather than a typed error code we
// could reach without importing its internal lib package.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// clampList applies the default and maximum page size.
func clampList(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
