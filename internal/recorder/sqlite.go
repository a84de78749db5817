package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SQLiteRecorder writes fund history into the fund_history table of an
// already opened database. It does not own the handle.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// NewSQLiteRecorder creates the history table on db if needed.
func NewSQLiteRecorder(db *sql.DB, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &SQLiteRecorder{db: db, log: logger.Named("recorder")}
	if err := r.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fund_history (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			fund_id   INTEGER NOT NULL,
			fund_name TEXT,
			action    TEXT NOT NULL,
			step      TEXT,
			note      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_fund ON fund_history(fund_id, timestamp)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordFundEvent(evt *FundEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO fund_history
		(id, timestamp, fund_id, fund_name, action, step, note)
		VALUES (?,?,?,?,?,?,?)`,
		evt.ID, evt.Timestamp.UnixNano(), evt.FundID, evt.FundName,
		string(evt.Action), evt.Step, evt.Note,
	)
	if err != nil {
		return fmt.Errorf("insert fund event: %w", err)
	}
	r.log.Debug("fund event recorded", zap.Int64("fund_id", evt.FundID), zap.String("action", string(evt.Action)))
	return nil
}

func (r *SQLiteRecorder) History(ctx context.Context, fundID int64, limit int) ([]FundEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, timestamp, fund_id, fund_name, action, step, note
		FROM fund_history WHERE fund_id = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?`, fundID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []FundEvent
	for rows.Next() {
		var (
			evt              FundEvent
			ts               int64
			name, step, note sql.NullString
			action           string
		)
		if err := rows.Scan(&evt.ID, &ts, &evt.FundID, &name, &action, &step, &note); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		evt.Timestamp = time.Unix(0, ts)
		evt.FundName = name.String
		evt.Action = Action(action)
		evt.Step = step.String
		evt.Note = note.String
		out = append(out, evt)
	}
	return out, rows.Err()
}

// Close is a no-op; the owning store closes the database.
func (r *SQLiteRecorder) Close() error { return nil }
