package sqlite

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/dfryer1193/gogallery/shared/db"
	_ "modernc.org/sqlite"
)

const (
	// DefaultPath is where the gallery keeps image metadata unless told otherwise
	DefaultPath = "./gallery.db"

	pathEnv = "SQLITE_DB_PATH"
)

var _ db.Database = (*SQLiteDB)(nil)

// SQLiteConfig holds the connection settings of the metadata store
type SQLiteConfig struct {
	Path string

	// MaxOpenConns caps the pool; 0 leaves the driver default
	MaxOpenConns int
}

// NewSQLiteConfig reads SQLITE_DB_PATH, falling back to DefaultPath
func NewSQLiteConfig() *SQLiteConfig {
	path := os.Getenv(pathEnv)
	if path == "" {
		path = DefaultPath
	}

	return &SQLiteConfig{
		Path: path,
	}
}

// SQLiteDB implements the db.Database interface for SQLite
type SQLiteDB struct {
	dbPath       string
	maxOpenConns int
	db           *sql.DB
}

// NewSQLiteDB creates a new, unconnected SQLite database instance
func NewSQLiteDB(cfg *SQLiteConfig) *SQLiteDB {
	return &SQLiteDB{
		dbPath:       cfg.Path,
		maxOpenConns: cfg.MaxOpenConns,
	}
}

// Connect opens a connection to the SQLite database
func (s *SQLiteDB) Connect() error {
	if s.db != nil {
		return fmt.Errorf("database already connected")
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if s.maxOpenConns > 0 {
		db.SetMaxOpenConns(s.maxOpenConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000", // ms
		"PRAGMA cache_size=-16000", // KiB
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	s.db = db

	if err := runMigrations(db); err != nil {
		db.Close()
		s.db = nil
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying *sql.DB instance
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}
