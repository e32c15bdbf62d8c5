package sim

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"mt5-gateway/src/models"
)

// -----------------------------------------------------------------------------
// Terminal is an in-process trading terminal for development and tests. It
// keeps a small symbol universe with random-walk quotes, synthesizes closed
// candles aligned to timeframe buckets, and maintains order and position
// books with MT5-style retcodes. Not safe for concurrent use; callers go
// through the session guard like any other terminal.
// -----------------------------------------------------------------------------

type simSymbol struct {
	point   float64
	digits  int
	mid     float64
	spread  float64
	visible bool
}

type Terminal struct {
	initialized bool
	lastErrCode int
	lastErrDesc string

	symbols    map[string]*simSymbol
	orders     map[int64]*models.MOrderRecord
	positions  map[int64]*models.MPositionRecord
	nextTicket int64

	rng *rand.Rand
}

// -----------------------------------------------------------------------------

func NewTerminal() *Terminal {
	return &Terminal{
		symbols: map[string]*simSymbol{
			"EURUSD": {point: 0.0001, digits: 5, mid: 1.0950, spread: 0.0001, visible: true},
			"GBPUSD": {point: 0.0001, digits: 5, mid: 1.2700, spread: 0.0001, visible: true},
			"USDJPY": {point: 0.01, digits: 3, mid: 147.20, spread: 0.01, visible: true},
			"XAUUSD": {point: 0.01, digits: 2, mid: 2400.0, spread: 0.30, visible: true},
		},
		orders:     make(map[int64]*models.MOrderRecord),
		positions:  make(map[int64]*models.MPositionRecord),
		nextTicket: 100000,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// -----------------------------------------------------------------------------

func (t *Terminal) Initialize(account models.MAccountConfig, path string, connectTimeout time.Duration) error {
	t.initialized = true
	t.lastErrCode = 0
	t.lastErrDesc = ""
	return nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) Shutdown() error {
	t.initialized = false
	return nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) LastError() (int, string) {
	return t.lastErrCode, t.lastErrDesc
}

// -----------------------------------------------------------------------------

func (t *Terminal) SymbolInfo(symbol string) (*models.MSymbolInfo, error) {
	if !t.initialized {
		return nil, fmt.Errorf("terminal not initialized")
	}

	s, ok := t.symbols[symbol]
	if !ok {
		return nil, nil
	}
	return &models.MSymbolInfo{
		Symbol:  symbol,
		Point:   s.point,
		Digits:  s.digits,
		Visible: s.visible,
		Trade:   true,
	}, nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) SymbolSelect(symbol string, enable bool) error {
	s, ok := t.symbols[symbol]
	if !ok {
		t.lastErrCode = 4301
		t.lastErrDesc = "unknown symbol"
		return fmt.Errorf("unknown symbol %s", symbol)
	}
	s.visible = enable
	return nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) SymbolTick(symbol string) (*models.MTick, error) {
	if !t.initialized {
		return nil, fmt.Errorf("terminal not initialized")
	}

	s, ok := t.symbols[symbol]
	if !ok {
		return nil, nil
	}

	t.walk(s)
	half := s.spread / 2
	return &models.MTick{
		Ask: t.round(s, s.mid+half),
		Bid: t.round(s, s.mid-half),
	}, nil
}

// -----------------------------------------------------------------------------

// walk nudges the mid price by up to 5 points per observation.
func (t *Terminal) walk(s *simSymbol) {
	s.mid += (t.rng.Float64()*2 - 1) * 5 * s.point
	if s.mid < s.spread {
		s.mid = s.spread
	}
}

// -----------------------------------------------------------------------------

func (t *Terminal) round(s *simSymbol, v float64) float64 {
	scale := math.Pow10(s.digits)
	return math.Round(v*scale) / scale
}

// -----------------------------------------------------------------------------

func (t *Terminal) OrderSend(req models.MTradeRequest) (*models.MTradeResult, error) {
	if !t.initialized {
		return nil, fmt.Errorf("terminal not initialized")
	}

	switch req.Action {
	case models.TradeActionDeal:
		return t.executeDeal(req)
	case models.TradeActionPending:
		return t.placePending(req)
	case models.TradeActionModify:
		return t.modifyPending(req)
	case models.TradeActionRemove:
		return t.removePending(req)
	default:
		return &models.MTradeResult{Retcode: 10013, Comment: "Invalid request"}, nil
	}
}

// -----------------------------------------------------------------------------

func (t *Terminal) executeDeal(req models.MTradeRequest) (*models.MTradeResult, error) {
	// Deal against an existing position closes (part of) it.
	if req.Position != 0 {
		pos, ok := t.positions[req.Position]
		if !ok {
			return &models.MTradeResult{Retcode: 10013, Comment: "Position not found"}, nil
		}
		if req.Volume >= pos.Volume {
			delete(t.positions, req.Position)
		} else {
			pos.Volume -= req.Volume
		}
		return &models.MTradeResult{
			Retcode: models.TradeRetcodeDone,
			Order:   t.ticket(),
			Deal:    t.ticket(),
			Volume:  req.Volume,
			Price:   req.Price,
			Comment: "Request executed",
		}, nil
	}

	tick, err := t.SymbolTick(req.Symbol)
	if err != nil {
		return nil, err
	}
	if tick == nil {
		return &models.MTradeResult{Retcode: 10015, Comment: "Invalid price"}, nil
	}

	price := tick.Ask
	if req.Type == models.OrderTypeSell {
		price = tick.Bid
	}

	ticket := t.ticket()
	t.positions[ticket] = &models.MPositionRecord{
		Ticket:    ticket,
		Symbol:    req.Symbol,
		Type:      req.Type,
		Volume:    req.Volume,
		PriceOpen: price,
		SL:        req.SL,
		TP:        req.TP,
		Time:      time.Now().Unix(),
		Comment:   req.Comment,
	}

	return &models.MTradeResult{
		Retcode: models.TradeRetcodeDone,
		Order:   ticket,
		Deal:    ticket,
		Volume:  req.Volume,
		Price:   price,
		Comment: "Request executed",
	}, nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) placePending(req models.MTradeRequest) (*models.MTradeResult, error) {
	if _, ok := t.symbols[req.Symbol]; !ok {
		return &models.MTradeResult{Retcode: 10014, Comment: "Unknown symbol"}, nil
	}

	ticket := t.ticket()
	t.orders[ticket] = &models.MOrderRecord{
		Ticket:    ticket,
		Symbol:    req.Symbol,
		Type:      req.Type,
		PriceOpen: req.Price,
		Volume:    req.Volume,
		SL:        req.SL,
		TP:        req.TP,
		TimeSetup: time.Now().Unix(),
		Comment:   req.Comment,
	}

	return &models.MTradeResult{
		Retcode: models.TradeRetcodeDone,
		Order:   ticket,
		Volume:  req.Volume,
		Price:   req.Price,
		Comment: "Request executed",
	}, nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) modifyPending(req models.MTradeRequest) (*models.MTradeResult, error) {
	ord, ok := t.orders[req.Order]
	if !ok {
		return &models.MTradeResult{Retcode: 10013, Comment: "Order not found"}, nil
	}

	if req.Price != 0 {
		ord.PriceOpen = req.Price
	}
	ord.SL = req.SL
	ord.TP = req.TP

	return &models.MTradeResult{
		Retcode: models.TradeRetcodeDone,
		Order:   ord.Ticket,
		Price:   ord.PriceOpen,
		Comment: "Request executed",
	}, nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) removePending(req models.MTradeRequest) (*models.MTradeResult, error) {
	ord, ok := t.orders[req.Order]
	if !ok {
		return &models.MTradeResult{Retcode: 10013, Comment: "Order not found"}, nil
	}
	delete(t.orders, ord.Ticket)

	return &models.MTradeResult{
		Retcode: models.TradeRetcodeDone,
		Order:   ord.Ticket,
		Comment: "Request executed",
	}, nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) OrdersGet(symbol string) ([]models.MOrderRecord, error) {
	if !t.initialized {
		return nil, fmt.Errorf("terminal not initialized")
	}

	out := make([]models.MOrderRecord, 0, len(t.orders))
	for _, o := range t.orders {
		if symbol != "" && o.Symbol != symbol {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) PositionsGet(symbol string) ([]models.MPositionRecord, error) {
	if !t.initialized {
		return nil, fmt.Errorf("terminal not initialized")
	}

	out := make([]models.MPositionRecord, 0, len(t.positions))
	for _, p := range t.positions {
		if symbol != "" && p.Symbol != symbol {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// CopyRatesFromPos synthesizes closed bars aligned to the timeframe bucket.
// Bar times are deterministic; prices random-walk around the symbol mid so
// consecutive fetches of the same bucket agree on time but not on OHLC,
// which is close enough for a development feed.
func (t *Terminal) CopyRatesFromPos(symbol string, timeframeID int, start, count int) ([]models.MCandle, error) {
	if !t.initialized {
		return nil, fmt.Errorf("terminal not initialized")
	}

	s, ok := t.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", symbol)
	}

	secs := models.SecondsForTimeframeID(timeframeID)
	if secs <= 0 {
		return nil, fmt.Errorf("unknown timeframe id %d", timeframeID)
	}

	now := time.Now().Unix()
	currentBucket := now - now%secs

	out := make([]models.MCandle, 0, count)
	for i := count + start - 1; i >= start; i-- {
		barTime := currentBucket - int64(i)*secs
		barOpen := s.mid + (t.rng.Float64()*2-1)*10*s.point
		barClose := barOpen + (t.rng.Float64()*2-1)*8*s.point
		barHigh := math.Max(barOpen, barClose) + t.rng.Float64()*4*s.point
		barLow := math.Min(barOpen, barClose) - t.rng.Float64()*4*s.point

		out = append(out, models.MCandle{
			Time:       barTime,
			Open:       t.round(s, barOpen),
			High:       t.round(s, barHigh),
			Low:        t.round(s, barLow),
			Close:      t.round(s, barClose),
			TickVolume: int64(50 + t.rng.Intn(500)),
		})
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) ticket() int64 {
	t.nextTicket++
	return t.nextTicket
}
