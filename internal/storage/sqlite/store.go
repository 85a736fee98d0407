package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/migration"
	"github.com/julianstephens/hard75/internal/storage"
	"github.com/julianstephens/hard75/internal/storage/sqlstore"
	"github.com/julianstephens/hard75/migrations"
)

// Store is the default local store. It keeps a single connection so all
// statements from this process are serialized, runs in WAL mode and starts
// transactions with BEGIN IMMEDIATE so concurrent writers queue on the
// busy timeout instead of failing mid-transaction.
type Store struct {
	*sqlstore.Queries

	path string
	db   *sql.DB
}

var _ storage.Provider = (*Store)(nil)

func NewStore(path string) *Store {
	return &Store{path: path}
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", constants.SQLiteBusyTimeoutMs))
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Set("_txlock", "immediate")
	return path + "?" + q.Encode()
}

// Init creates the database file if needed and brings the schema up to date.
// It is idempotent and safe to call on every start.
func (s *Store) Init() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return apperrors.StorageFault("create config directory", err)
	}
	if err := s.open(); err != nil {
		return err
	}
	return s.runMigrations()
}

// Load opens an existing database and applies any pending migrations.
func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
	}
	if err := s.open(); err != nil {
		return err
	}
	return s.runMigrations()
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", dsn(s.path))
	if err != nil {
		return apperrors.StorageFault("open database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return apperrors.StorageFault("connect to database", err)
	}

	s.db = db
	s.Queries = sqlstore.New(db, sqlstore.SQLite)
	return nil
}

func (s *Store) runMigrations() error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	if _, err := migration.NewRunner(s.db, subFS).Apply(context.Background()); err != nil {
		return apperrors.StorageFault("run migrations", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.Queries = nil
	return err
}

func (s *Store) Transaction(ctx context.Context, work func(q storage.Queries) error) error {
	if s.db == nil {
		return apperrors.StorageFault("begin transaction", fmt.Errorf("store is not open"))
	}
	return sqlstore.RunInTx(ctx, s.db, sqlstore.SQLite, nil, work)
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying connection, nil before Init or Load.
func (s *Store) GetDB() *sql.DB {
	return s.db
}
