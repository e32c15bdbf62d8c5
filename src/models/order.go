package models

// -----------------------------------------------------------------------------
// Incoming trading requests (REST bodies)
// -----------------------------------------------------------------------------

// MOrderIntent is a client's request to place a market or pending order.
// Immutable once bound; consumed by a single engine call.
type MOrderIntent struct {
	Symbol         string   `json:"symbol"`
	Volume         float64  `json:"volume"`
	OrderType      string   `json:"order_type"`
	Price          *float64 `json:"price,omitempty"`
	StopLimitPrice *float64 `json:"stop_limit_price,omitempty"`
	SL             *float64 `json:"sl,omitempty"`
	TP             *float64 `json:"tp,omitempty"`
	Deviation      int      `json:"deviation"`
	Comment        string   `json:"comment,omitempty"`
	Magic          *int64   `json:"magic,omitempty"`
	ClientID       string   `json:"client_id,omitempty"`
}

// MOrderUpdate carries the fields of a pending order to change. Nil fields
// keep the order's current values.
type MOrderUpdate struct {
	Price *float64 `json:"price,omitempty"`
	SL    *float64 `json:"sl,omitempty"`
	TP    *float64 `json:"tp,omitempty"`
}

type MRemoveOrderRequest struct {
	Ticket int64 `json:"ticket"`
}

type MClosePositionRequest struct {
	Ticket int64    `json:"ticket"`
	Volume *float64 `json:"volume,omitempty"`
}

// -----------------------------------------------------------------------------
// Uniform listing shapes
// -----------------------------------------------------------------------------

// MOrderEntry is the uniform shape of a pending order returned to clients.
// Raw carries the unmodified terminal record for forward compatibility.
type MOrderEntry struct {
	Ticket  int64       `json:"ticket"`
	Symbol  string      `json:"symbol"`
	Type    int         `json:"type"`
	Price   float64     `json:"price"`
	Volume  float64     `json:"volume"`
	SL      float64     `json:"sl"`
	TP      float64     `json:"tp"`
	Time    int64       `json:"time"`
	Comment string      `json:"comment"`
	Raw     interface{} `json:"raw"`
}

type MPositionEntry struct {
	Ticket    int64       `json:"ticket"`
	Symbol    string      `json:"symbol"`
	Type      int         `json:"type"`
	Volume    float64     `json:"volume"`
	PriceOpen float64     `json:"price_open"`
	SL        float64     `json:"sl"`
	TP        float64     `json:"tp"`
	Time      int64       `json:"time"`
	Profit    float64     `json:"profit"`
	Comment   string      `json:"comment"`
	Raw       interface{} `json:"raw"`
}

// -----------------------------------------------------------------------------
// Execution journal record
// -----------------------------------------------------------------------------

// MExecutionRecord is one journaled terminal-mutating operation.
type MExecutionRecord struct {
	ID        int64                  `json:"id"`
	Operation string                 `json:"operation"`
	Symbol    string                 `json:"symbol"`
	Ticket    int64                  `json:"ticket"`
	Success   bool                   `json:"success"`
	Kind      string                 `json:"kind"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details"`
	CreatedAt int64                  `json:"created_at"`
}
