package interfaces

import "mt5-gateway/src/models"

// -----------------------------------------------------------------------------
// IJournal defines the contract for the execution audit log. The terminal
// remains the source of truth for orders and positions; the journal only
// records what the gateway asked for and what came back.
// -----------------------------------------------------------------------------

type IJournal interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveExecution appends one journaled operation outcome.
	SaveExecution(rec models.MExecutionRecord) error

	// -----------------------------------------------------------------------------

	// RecentExecutions returns the newest records, newest first.
	RecentExecutions(limit int) ([]models.MExecutionRecord, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes records older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
