package interfaces

import (
	"time"

	"mt5-gateway/src/models"
)

// -----------------------------------------------------------------------------
// ITerminal is the opaque synchronous trading capability behind the gateway.
// Implementations are NOT safe for concurrent use; every call must be made
// inside the session guard (terminal.Connection.WithSession).
// -----------------------------------------------------------------------------

type ITerminal interface {

	// Initialize opens the terminal session. Called at most once per open
	// connection; connectTimeout is the only caller-side timeout in the system.
	Initialize(account models.MAccountConfig, path string, connectTimeout time.Duration) error

	// -----------------------------------------------------------------------------

	// Shutdown tears the session down. Safe to call after a failed Initialize.
	Shutdown() error

	// -----------------------------------------------------------------------------

	// LastError returns the terminal's last error code and description.
	LastError() (int, string)

	// -----------------------------------------------------------------------------

	// SymbolInfo returns a snapshot of a symbol, or (nil, nil) when the
	// terminal does not know it.
	SymbolInfo(symbol string) (*models.MSymbolInfo, error)

	// -----------------------------------------------------------------------------

	// SymbolSelect marks a symbol visible in the terminal's watch list.
	SymbolSelect(symbol string, enable bool) error

	// -----------------------------------------------------------------------------

	// SymbolTick returns the current quote, or (nil, nil) when no quote is
	// available (market closed, unknown symbol).
	SymbolTick(symbol string) (*models.MTick, error)

	// -----------------------------------------------------------------------------

	// OrderSend submits a trade action. A nil result with a non-nil error
	// means the terminal was unreachable.
	OrderSend(req models.MTradeRequest) (*models.MTradeResult, error)

	// -----------------------------------------------------------------------------

	// OrdersGet lists pending orders, optionally filtered by symbol ("" = all).
	OrdersGet(symbol string) ([]models.MOrderRecord, error)

	// -----------------------------------------------------------------------------

	// PositionsGet lists open positions, optionally filtered by symbol.
	PositionsGet(symbol string) ([]models.MPositionRecord, error)

	// -----------------------------------------------------------------------------

	// CopyRatesFromPos returns count bars of the given timeframe starting at
	// start bars back from the current forming bar (start=1 is the most
	// recent closed bar), oldest first.
	CopyRatesFromPos(symbol string, timeframeID int, start, count int) ([]models.MCandle, error)
}
