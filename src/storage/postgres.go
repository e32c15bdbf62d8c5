package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"mt5-gateway/src/config"
	"mt5-gateway/src/logger"
	"mt5-gateway/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresJournal struct {
	Config *config.Config
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresJournal(cfg *config.Config, log *logger.Logger) (*PostgresJournal, error) {
	return &PostgresJournal{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) Initialize() error {
	db, err := sql.Open("postgres", d.Config.Storage.DBConnectionString)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	query := `
		CREATE TABLE IF NOT EXISTS executions (
			id BIGSERIAL PRIMARY KEY,
			operation TEXT NOT NULL,
			symbol TEXT,
			ticket BIGINT,
			success BOOLEAN NOT NULL,
			kind TEXT,
			message TEXT,
			details JSONB,
			created_at BIGINT NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return err
	}

	_, err = d.DB.Exec("CREATE INDEX IF NOT EXISTS idx_executions_created_at ON executions (created_at)")
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) SaveExecution(rec models.MExecutionRecord) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		details = []byte("{}")
	}

	_, err = d.DB.Exec(`
		INSERT INTO executions (operation, symbol, ticket, success, kind, message, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.Operation, rec.Symbol, rec.Ticket, rec.Success, rec.Kind, rec.Message, string(details), rec.CreatedAt)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) RecentExecutions(limit int) ([]models.MExecutionRecord, error) {
	rows, err := d.DB.Query(`
		SELECT id, operation, symbol, ticket, success, kind, message, details, created_at
		FROM executions
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExecutions(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up executions older than %d days (timestamp < %d)...", retentionDays, cutoff)

	if _, err := d.DB.Exec("DELETE FROM executions WHERE created_at < $1", cutoff); err != nil {
		d.Logger.Error("Cleanup executions error: %v", err)
		return err
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
