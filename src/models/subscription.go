package models

// -----------------------------------------------------------------------------
// Client subscription model
// -----------------------------------------------------------------------------

// MTimeframeRequest asks for the last Count closed candles of one timeframe.
// AlwaysSend forces a rebroadcast on every tick even without a new bar.
type MTimeframeRequest struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	AlwaysSend bool   `json:"always_send"`
}

// MSubscriptionSpec is one symbol's subscription within a client's
// subscription set. Symbol and timeframe names are held uppercase.
type MSubscriptionSpec struct {
	Symbol     string              `json:"symbol"`
	Live       bool                `json:"live"`
	Timeframes []MTimeframeRequest `json:"timeframes"`
}
