package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"mt5-gateway/src/config"
	"mt5-gateway/src/logger"
	"mt5-gateway/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteJournal struct {
	Config *config.Config
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteJournal(cfg *config.Config, log *logger.Logger) (*SQLiteJournal, error) {
	return &SQLiteJournal{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	// Unlike market data caches, the execution journal is append-only and
	// survives restarts, so the table is created, never recreated.
	query := `
		CREATE TABLE IF NOT EXISTS executions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operation TEXT NOT NULL,
			symbol TEXT,
			ticket INTEGER,
			success INTEGER NOT NULL,
			kind TEXT,
			message TEXT,
			details TEXT,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return err
	}

	_, err = d.DB.Exec("CREATE INDEX IF NOT EXISTS idx_executions_created_at ON executions (created_at)")
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) SaveExecution(rec models.MExecutionRecord) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		details = []byte("{}")
	}

	_, err = d.DB.Exec(`
		INSERT INTO executions (operation, symbol, ticket, success, kind, message, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Operation, rec.Symbol, rec.Ticket, boolToInt(rec.Success), rec.Kind, rec.Message, string(details), rec.CreatedAt)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) RecentExecutions(limit int) ([]models.MExecutionRecord, error) {
	rows, err := d.DB.Query(`
		SELECT id, operation, symbol, ticket, success, kind, message, details, created_at
		FROM executions
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExecutions(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up executions older than %d days (timestamp < %d)...", retentionDays, cutoff)

	if _, err := d.DB.Exec("DELETE FROM executions WHERE created_at < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup executions error: %v", err)
		return err
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
