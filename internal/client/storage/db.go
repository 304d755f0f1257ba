package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/elibrary/internal/dbx"
	"github.com/dmitrijs2005/elibrary/internal/filex"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its FS and dialect in package globals.
var gooseMu sync.Mutex

// Store bundles an open database with its repository.
type Store struct {
	DB      *sql.DB
	Dialect dbx.Dialect
	Repo    *SQLRepository
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// ParseDSN picks the driver for dsn. postgres:// and postgresql:// URLs go
// to pgx; anything else is a SQLite path, an optional sqlite:// prefix is
// stripped.
func ParseDSN(dsn string) (driver string, dialect dbx.Dialect, source string) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", dbx.DialectPostgres, dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", dbx.DialectSQLite, strings.TrimPrefix(dsn, "sqlite://")
	default:
		return "sqlite", dbx.DialectSQLite, dsn
	}
}

func isMemory(source string) bool {
	return source == ":memory:" || strings.Contains(source, "mode=memory")
}

func RunMigrations(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// InitDatabase opens dsn, applies migrations and returns the ready store.
func InitDatabase(ctx context.Context, dsn string) (*Store, error) {
	driver, dialect, source := ParseDSN(dsn)
	if source == "" {
		return nil, fmt.Errorf("empty storage dsn")
	}

	if dialect == dbx.DialectSQLite && !isMemory(source) && !strings.HasPrefix(source, "file:") {
		if _, err := filex.EnsureParentDir(source); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if dialect == dbx.DialectSQLite {
		// one writer; an in-memory database also lives on a single connection
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := RunMigrations(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{DB: db, Dialect: dialect, Repo: NewSQLRepository(db, dialect)}, nil
}
