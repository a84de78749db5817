// Package store persists fund records in an embedded SQLite database.
//
// A Store is an explicit handle: open it once per application session, pass
// it to whoever needs it and Close it on shutdown. Every logical operation
// runs in a single transaction.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"FundReview/internal/model"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store owns the funds table.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: writes are serialized here and ":memory:" stays a single database.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path, log: logger.Named("store")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.log.Info("fund store opened", zap.String("path", path))
	return s, nil
}

// DB exposes the underlying handle so auxiliary tables (history) can share it.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	s.log.Info("closing fund store")
	return s.db.Close()
}

// column is an ALTER TABLE migration for databases created before the column existed.
type column struct {
	Name     string
	Def      string
	Backfill string
}

// addedColumns lists columns missing from older fund_checklist databases.
var addedColumns = []column{
	{Name: "sort_key", Def: "INTEGER DEFAULT 1000", Backfill: "UPDATE funds SET sort_key = id * 10"},
}

func (s *Store) migrate() error {
	var cols strings.Builder
	for _, st := range model.Steps {
		fmt.Fprintf(&cols, ",\n\t\t\t%s INTEGER DEFAULT 0", st.Column())
	}
	for _, st := range model.Steps {
		fmt.Fprintf(&cols, ",\n\t\t\t%s TEXT", st.DateColumn())
	}
	create := `CREATE TABLE IF NOT EXISTS funds (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			sort_key      INTEGER DEFAULT 1000,
			fund_name     TEXT NOT NULL,
			assigned_date TEXT NOT NULL` + cols.String() + `
		)`
	if _, err := s.db.Exec(create); err != nil {
		return fmt.Errorf("create funds: %w", err)
	}

	existing, err := s.columns("funds")
	if err != nil {
		return err
	}
	for _, c := range addedColumns {
		if existing[c.Name] {
			continue
		}
		s.log.Info("adding missing column", zap.String("table", "funds"), zap.String("column", c.Name))
		if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE funds ADD COLUMN %s %s", c.Name, c.Def)); err != nil {
			return fmt.Errorf("add column %s: %w", c.Name, err)
		}
		if c.Backfill != "" {
			if _, err := s.db.Exec(c.Backfill); err != nil {
				return fmt.Errorf("backfill %s: %w", c.Name, err)
			}
		}
	}

	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_funds_order ON funds(sort_key, id)`); err != nil {
		return fmt.Errorf("create order index: %w", err)
	}
	return nil
}

func (s *Store) columns(table string) (map[string]bool, error) {
	rows, err := s.db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		out[name] = true
	}
	return out, rows.Err()
}

// InTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise, so a failed operation leaves no
// partial update behind.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx, ctx: ctx, log: s.log}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("transaction committed", zap.Duration("took", time.Since(start)))
	return nil
}

// Create inserts a new fund at the end of the display order.
func (s *Store) Create(ctx context.Context, name string, assigned time.Time) (int64, error) {
	var id int64
	err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		id, err = tx.Create(name, assigned)
		return err
	})
	return id, err
}

// List returns every fund ordered by (sort_key, id).
func (s *Store) List(ctx context.Context) ([]model.Fund, error) {
	var funds []model.Fund
	err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		funds, err = tx.List()
		return err
	})
	return funds, err
}

// Get returns a single fund.
func (s *Store) Get(ctx context.Context, id int64) (model.Fund, error) {
	var f model.Fund
	err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		f, err = tx.Get(id)
		return err
	})
	return f, err
}

// SetField updates one enumerated field of a fund.
func (s *Store) SetField(ctx context.Context, id int64, field Field, value any) error {
	return s.InTx(ctx, func(tx *Tx) error { return tx.SetField(id, field, value) })
}

// Delete removes a fund unconditionally.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.InTx(ctx, func(tx *Tx) error { return tx.Delete(id) })
}

// SwapOrder exchanges the sort keys of two funds.
func (s *Store) SwapOrder(ctx context.Context, a, b int64) error {
	return s.InTx(ctx, func(tx *Tx) error { return tx.SwapOrder(a, b) })
}
