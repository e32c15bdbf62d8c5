package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"mt5-gateway/src/config"
	"mt5-gateway/src/interfaces"
	"mt5-gateway/src/logger"
	"mt5-gateway/src/models"
)

// -----------------------------------------------------------------------------

// NewJournal selects the journal backend from the configuration.
func NewJournal(cfg *config.Config, log *logger.Logger) (interfaces.IJournal, error) {
	switch cfg.Storage.DBType {
	case "sqlite":
		return NewSQLiteJournal(cfg, log)
	case "postgres":
		return NewPostgresJournal(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Storage.DBType)
	}
}

// -----------------------------------------------------------------------------

// scanExecutions reads journal rows from either backend. The success column
// arrives as an integer from sqlite and a bool from postgres.
func scanExecutions(rows *sql.Rows) ([]models.MExecutionRecord, error) {
	out := make([]models.MExecutionRecord, 0)

	for rows.Next() {
		var rec models.MExecutionRecord
		var success interface{}
		var details string

		if err := rows.Scan(&rec.ID, &rec.Operation, &rec.Symbol, &rec.Ticket,
			&success, &rec.Kind, &rec.Message, &details, &rec.CreatedAt); err != nil {
			return nil, err
		}

		switch v := success.(type) {
		case bool:
			rec.Success = v
		case int64:
			rec.Success = v != 0
		}

		if details != "" {
			_ = json.Unmarshal([]byte(details), &rec.Details)
		}
		if rec.Details == nil {
			rec.Details = map[string]interface{}{}
		}

		out = append(out, rec)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
