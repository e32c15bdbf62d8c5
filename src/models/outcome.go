package models

// -----------------------------------------------------------------------------
// Failure taxonomy
// -----------------------------------------------------------------------------

// FailureKind tags why a trading operation did not succeed. Callers branch on
// the kind, never on error types; no engine failure is ever raised past the
// engine boundary.
type FailureKind string

const (
	FailNone                = FailureKind("")
	FailNotReady            = FailureKind("NotReady")
	FailValidation          = FailureKind("ValidationError")
	FailSymbolUnavailable   = FailureKind("SymbolUnavailable")
	FailQuoteUnavailable    = FailureKind("QuoteUnavailable")
	FailTooCloseToMarket    = FailureKind("TooCloseToMarket")
	FailStopLossTooClose    = FailureKind("StopLossTooClose")
	FailTakeProfitTooClose  = FailureKind("TakeProfitTooClose")
	FailPriceRequired       = FailureKind("PriceRequiredForPending")
	FailMissingPrice        = FailureKind("MissingPrice")
	FailDirectionRequired   = FailureKind("DirectionRequired")
	FailOrderNotFound       = FailureKind("OrderNotFound")
	FailPositionNotFound    = FailureKind("PositionNotFound")
	FailInvalidCloseVolume  = FailureKind("InvalidCloseVolume")
	FailTerminalUnreachable = FailureKind("TerminalUnreachable")
	FailRejectedByTerminal  = FailureKind("RejectedByTerminal")
	FailQueryFailed         = FailureKind("QueryFailed")
	FailUnexpected          = FailureKind("UnexpectedFault")
)

// -----------------------------------------------------------------------------
// Operation outcome
// -----------------------------------------------------------------------------

// MOrderOutcome is the uniform result of every terminal-mutating operation.
// Ticket is set on success, or when the terminal assigned one before failing.
type MOrderOutcome struct {
	Success bool                   `json:"success"`
	Kind    FailureKind            `json:"kind,omitempty"`
	Message string                 `json:"message"`
	Ticket  int64                  `json:"ticket,omitempty"`
	Details map[string]interface{} `json:"details"`
}

func Ok(message string, ticket int64, details map[string]interface{}) MOrderOutcome {
	if details == nil {
		details = map[string]interface{}{}
	}
	return MOrderOutcome{Success: true, Message: message, Ticket: ticket, Details: details}
}

func Fail(kind FailureKind, message string) MOrderOutcome {
	return MOrderOutcome{Kind: kind, Message: message, Details: map[string]interface{}{}}
}

func FailWith(kind FailureKind, message string, ticket int64, details map[string]interface{}) MOrderOutcome {
	if details == nil {
		details = map[string]interface{}{}
	}
	return MOrderOutcome{Kind: kind, Message: message, Ticket: ticket, Details: details}
}
