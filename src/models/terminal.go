package models

// -----------------------------------------------------------------------------
// Terminal wire constants (MT5 numeric identifiers)
// -----------------------------------------------------------------------------

const (
	OrderTypeBuy           = 0
	OrderTypeSell          = 1
	OrderTypeBuyLimit      = 2
	OrderTypeSellLimit     = 3
	OrderTypeBuyStop       = 4
	OrderTypeSellStop      = 5
	OrderTypeBuyStopLimit  = 6
	OrderTypeSellStopLimit = 7
)

const (
	TradeActionDeal    = 1
	TradeActionPending = 5
	TradeActionModify  = 7
	TradeActionRemove  = 8
)

// TradeRetcodeDone is the terminal's "request completed" outcome code.
const TradeRetcodeDone = 10009

const (
	OrderFillingIOC    = 1
	OrderFillingReturn = 2
	OrderTimeGTC       = 0
)

// -----------------------------------------------------------------------------
// Terminal snapshots
// -----------------------------------------------------------------------------

// MSymbolInfo is a point-in-time view of a terminal symbol. It is fetched
// fresh per operation and never cached.
type MSymbolInfo struct {
	Symbol  string  `json:"symbol"`
	Point   float64 `json:"point"`
	Digits  int     `json:"digits"`
	Visible bool    `json:"visible"`
	Trade   bool    `json:"trade"`
}

// MTick is the current best quote for a symbol.
type MTick struct {
	Ask float64 `json:"ask"`
	Bid float64 `json:"bid"`
}

// MCandle is one closed OHLC bar.
type MCandle struct {
	Time       int64   `json:"time"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	TickVolume int64   `json:"tick_volume"`
}

// -----------------------------------------------------------------------------
// Terminal request/response records
// -----------------------------------------------------------------------------

// MTradeRequest mirrors the terminal's order_send request structure.
type MTradeRequest struct {
	Action      int     `json:"action"`
	Symbol      string  `json:"symbol"`
	Volume      float64 `json:"volume"`
	Type        int     `json:"type"`
	Price       float64 `json:"price"`
	StopLimit   float64 `json:"stoplimit,omitempty"`
	SL          float64 `json:"sl"`
	TP          float64 `json:"tp"`
	Deviation   int     `json:"deviation"`
	Magic       int64   `json:"magic"`
	Comment     string  `json:"comment"`
	Order       int64   `json:"order,omitempty"`    // ticket, for modify/remove
	Position    int64   `json:"position,omitempty"` // ticket, for closing deals
	TypeFilling int     `json:"type_filling"`
	TypeTime    int     `json:"type_time"`
}

// MTradeResult is what the terminal returns for a submitted action.
type MTradeResult struct {
	Retcode   int     `json:"retcode"`
	Order     int64   `json:"order"`
	Deal      int64   `json:"deal"`
	Volume    float64 `json:"volume"`
	Price     float64 `json:"price"`
	Comment   string  `json:"comment"`
	RequestID int64   `json:"request_id"`
}

// Details flattens the result into the diagnostic map carried by outcomes.
func (r *MTradeResult) Details() map[string]interface{} {
	if r == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{
		"retcode":    r.Retcode,
		"order":      r.Order,
		"deal":       r.Deal,
		"volume":     r.Volume,
		"price":      r.Price,
		"comment":    r.Comment,
		"request_id": r.RequestID,
	}
}

// MOrderRecord is a pending order as reported by the terminal.
type MOrderRecord struct {
	Ticket    int64   `json:"ticket"`
	Symbol    string  `json:"symbol"`
	Type      int     `json:"type"`
	PriceOpen float64 `json:"price_open"`
	Volume    float64 `json:"volume_current"`
	SL        float64 `json:"sl"`
	TP        float64 `json:"tp"`
	TimeSetup int64   `json:"time_setup"`
	Comment   string  `json:"comment"`
}

// MPositionRecord is an open position as reported by the terminal.
type MPositionRecord struct {
	Ticket    int64   `json:"ticket"`
	Symbol    string  `json:"symbol"`
	Type      int     `json:"type"`
	Volume    float64 `json:"volume"`
	PriceOpen float64 `json:"price_open"`
	SL        float64 `json:"sl"`
	TP        float64 `json:"tp"`
	Time      int64   `json:"time"`
	Profit    float64 `json:"profit"`
	Comment   string  `json:"comment"`
}
