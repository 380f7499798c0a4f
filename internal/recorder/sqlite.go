package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"BTCChart/internal/calculator"
	"BTCChart/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists generation history to a SQLite database.
type SQLiteRecorder struct {
	db  *sqlx.DB
	mu  sync.Mutex
	log *logrus.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *logrus.Logger) (*SQLiteRecorder, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS series_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			timeframe   TEXT NOT NULL,
			start_price REAL,
			points      INTEGER,
			first_price REAL,
			last_price  REAL,
			change_pct  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON series_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS series_points (
			run_id INTEGER NOT NULL REFERENCES series_runs(id),
			ts     INTEGER NOT NULL,
			price  REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_points_run ON series_points(run_id)`,

		`CREATE TABLE IF NOT EXISTS timeframe_switches (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			session       TEXT,
			timeframe     TEXT,
			display_price REAL,
			change_pct    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_switches_ts ON timeframe_switches(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

type runRow struct {
	Timestamp  int64   `db:"timestamp"`
	Timeframe  string  `db:"timeframe"`
	StartPrice float64 `db:"start_price"`
	Points     int     `db:"points"`
	FirstPrice float64 `db:"first_price"`
	LastPrice  float64 `db:"last_price"`
	ChangePct  float64 `db:"change_pct"`
}

// RecordRun stores the run summary and every point in one transaction.
func (r *SQLiteRecorder) RecordRun(run *model.SeriesRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := runRow{
		Timestamp:  run.GeneratedAt.Unix(),
		Timeframe:  string(run.Timeframe),
		StartPrice: run.StartPrice,
		Points:     len(run.Points),
	}
	if first, ok := run.Points.First(); ok {
		last, _ := run.Points.Last()
		row.FirstPrice = first.Price
		row.LastPrice = last.Price
		if pct, err := calculator.PercentChange(first.Price, last.Price); err == nil {
			row.ChangePct = pct
		}
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.NamedExec(`INSERT INTO series_runs
		(timestamp, timeframe, start_price, points, first_price, last_price, change_pct)
		VALUES (:timestamp, :timeframe, :start_price, :points, :first_price, :last_price, :change_pct)`, row)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO series_points (run_id, ts, price) VALUES (?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range run.Points {
		if _, err := stmt.Exec(runID, p.Timestamp, p.Price); err != nil {
			return fmt.Errorf("insert point: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordSwitch(evt *SwitchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO timeframe_switches
		(timestamp, session, timeframe, display_price, change_pct)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Session, string(evt.Timeframe),
		evt.State.DisplayPrice, evt.State.PercentChange,
	)
	return err
}

// RecentRuns returns the latest runs, newest first.
func (r *SQLiteRecorder) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []RunSummary
	err := r.db.SelectContext(ctx, &runs, `SELECT id, timestamp, timeframe, points, first_price, last_price, change_pct
		FROM series_runs ORDER BY id DESC LIMIT ?`, limit)
	return runs, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
