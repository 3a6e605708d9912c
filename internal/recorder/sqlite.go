package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets `history` read while a scheduled run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.Named("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			id                     TEXT PRIMARY KEY,
			started_at             INTEGER NOT NULL,
			finished_at            INTEGER NOT NULL,
			target_date            TEXT NOT NULL,
			trigger_source         TEXT,
			index_status           TEXT,
			filings                INTEGER,
			parsed                 INTEGER,
			trades_kept            INTEGER,
			defaulted              INTEGER,
			total_value            REAL,
			mega_trade_count       INTEGER,
			mega_trade_total_value REAL,
			upload_status          TEXT,
			upload_message         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON pipeline_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS run_failures (
			run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
			kind   TEXT NOT NULL,
			count  INTEGER NOT NULL,
			PRIMARY KEY (run_id, kind)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO pipeline_runs
		(id, started_at, finished_at, target_date, trigger_source, index_status,
		 filings, parsed, trades_kept, defaulted,
		 total_value, mega_trade_count, mega_trade_total_value,
		 upload_status, upload_message)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.StartedAt.UnixMilli(), rec.FinishedAt.UnixMilli(), rec.TargetDate, rec.Trigger, rec.IndexStatus,
		rec.Filings, rec.Parsed, rec.TradesKept, rec.Defaulted,
		rec.TotalValue, rec.MegaTradeCount, rec.MegaTradeTotalValue,
		rec.UploadStatus, rec.UploadMessage,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for kind, n := range rec.Failures {
		if _, err := tx.Exec(`INSERT INTO run_failures (run_id, kind, count) VALUES (?,?,?)`, rec.ID, kind, n); err != nil {
			return fmt.Errorf("insert failure %s: %w", kind, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT
		id, started_at, finished_at, target_date, trigger_source, index_status,
		filings, parsed, trades_kept, defaulted,
		total_value, mega_trade_count, mega_trade_total_value,
		upload_status, upload_message
		FROM pipeline_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished int64
		if err := rows.Scan(&rec.ID, &started, &finished, &rec.TargetDate, &rec.Trigger, &rec.IndexStatus,
			&rec.Filings, &rec.Parsed, &rec.TradesKept, &rec.Defaulted,
			&rec.TotalValue, &rec.MegaTradeCount, &rec.MegaTradeTotalValue,
			&rec.UploadStatus, &rec.UploadMessage); err != nil {
			return nil, err
		}
		rec.StartedAt = time.UnixMilli(started)
		rec.FinishedAt = time.UnixMilli(finished)
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		failures, err := r.failures(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Failures = failures
	}
	return runs, nil
}

func (r *SQLiteRecorder) failures(runID string) (map[string]int, error) {
	rows, err := r.db.Query(`SELECT kind, count FROM run_failures WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[kind] = n
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
