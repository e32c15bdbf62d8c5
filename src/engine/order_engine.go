package engine

import (
	"fmt"
	"strings"
	"time"

	"mt5-gateway/src/interfaces"
	"mt5-gateway/src/logger"
	"mt5-gateway/src/models"
	"mt5-gateway/src/terminal"
)

// -----------------------------------------------------------------------------
// Engine implements the trading operations on top of the terminal session
// guard. Every operation maps client intent to terminal requests, runs all of
// its terminal calls inside one WithSession closure, and reduces whatever
// happened to a uniform MOrderOutcome. Engine methods never return errors and
// never panic past their boundary.
// -----------------------------------------------------------------------------

// Distances are expressed in symbol points and scaled by the symbol's point
// size at check time.
const (
	minDistancePoints     = 2.0
	minStopDistancePoints = 10.0
)

type Engine struct {
	Conn    *terminal.Connection
	Journal interfaces.IJournal
	Logger  *logger.Logger

	// DefaultMagic is stamped on orders whose intent carries no magic number.
	DefaultMagic int64
}

// -----------------------------------------------------------------------------

func NewEngine(conn *terminal.Connection, journal interfaces.IJournal, log *logger.Logger, defaultMagic int64) *Engine {
	return &Engine{
		Conn:         conn,
		Journal:      journal,
		Logger:       log,
		DefaultMagic: defaultMagic,
	}
}

// -----------------------------------------------------------------------------

// guard runs fn, converting a panic into the catch-all failure outcome.
func (e *Engine) guard(op string, fn func() models.MOrderOutcome) (out models.MOrderOutcome) {
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("Unexpected fault in %s: %v", op, r)
			out = models.Fail(models.FailUnexpected, fmt.Sprintf("Exception: %v", r))
		}
	}()
	return fn()
}

// -----------------------------------------------------------------------------

// journal records a mutating operation's outcome. Journal failures are logged
// and swallowed; the audit trail never affects trading results.
func (e *Engine) journal(op, symbol string, out models.MOrderOutcome) {
	if e.Journal == nil {
		return
	}

	rec := models.MExecutionRecord{
		Operation: op,
		Symbol:    symbol,
		Ticket:    out.Ticket,
		Success:   out.Success,
		Kind:      string(out.Kind),
		Message:   out.Message,
		Details:   out.Details,
		CreatedAt: time.Now().Unix(),
	}
	if err := e.Journal.SaveExecution(rec); err != nil {
		e.Logger.Warning("Failed to journal %s execution: %v", op, err)
	}
}

// -----------------------------------------------------------------------------
// Order placement
// -----------------------------------------------------------------------------

// PlaceOrder validates an intent and submits it to the terminal. "BUY"/"SELL"
// execute at market; the explicit pending types carry their price; "LIMIT"
// resolves to BUY_LIMIT or SELL_LIMIT from the price's side of the current
// quote. "MARKET" without a direction is rejected.
func (e *Engine) PlaceOrder(intent models.MOrderIntent) models.MOrderOutcome {
	out := e.guard("place_order", func() models.MOrderOutcome {
		return e.placeOrder(intent)
	})
	if intent.ClientID != "" {
		// Echo the caller's correlation id through outcome and journal.
		out.Details["client_id"] = intent.ClientID
	}
	e.journal("place_order", intent.Symbol, out)
	return out
}

// -----------------------------------------------------------------------------

func (e *Engine) placeOrder(intent models.MOrderIntent) models.MOrderOutcome {
	if intent.Symbol == "" {
		return models.Fail(models.FailValidation, "Symbol is required")
	}
	if intent.Volume <= 0 {
		return models.Fail(models.FailValidation, "Volume must be greater than zero")
	}

	orderType := strings.ToUpper(strings.TrimSpace(intent.OrderType))
	switch orderType {
	case "MARKET", "":
		return models.Fail(models.FailDirectionRequired,
			"Order type MARKET is ambiguous, use BUY or SELL")
	}

	var out models.MOrderOutcome
	err := e.Conn.WithSession(func(t interfaces.ITerminal) error {
		out = e.placeOrderSession(t, intent, orderType)
		return nil
	})
	if err != nil {
		return models.Fail(models.FailNotReady, "Trading terminal is not connected")
	}
	return out
}

// -----------------------------------------------------------------------------

// placeOrderSession does the full lookup-validate-submit sequence while the
// session is held, so a quote used for validation is the quote traded on.
// The quote is fetched only when something needs it: auto-limit resolution
// and market orders. An explicit pending order measures its stops from its
// own price and goes through even when no quote is available.
func (e *Engine) placeOrderSession(t interfaces.ITerminal, intent models.MOrderIntent, orderType string) models.MOrderOutcome {
	info, failed := e.ensureSymbol(t, intent.Symbol)
	if failed != nil {
		return *failed
	}

	var tick *models.MTick
	fetchQuote := func() *models.MOrderOutcome {
		if tick != nil {
			return nil
		}
		q, err := t.SymbolTick(intent.Symbol)
		if err != nil {
			fail := models.Fail(models.FailTerminalUnreachable, fmt.Sprintf("Exception: %v", err))
			return &fail
		}
		if q == nil {
			fail := models.Fail(models.FailQuoteUnavailable,
				fmt.Sprintf("No quote available for %s", intent.Symbol))
			return &fail
		}
		tick = q
		return nil
	}

	// Smart limit resolves to a concrete pending type before normal routing.
	if orderType == "LIMIT" || orderType == "AUTO_LIMIT" {
		if fail := fetchQuote(); fail != nil {
			return *fail
		}
		resolved, fail := resolveAutoLimit(intent, tick, info.Point)
		if fail != nil {
			return *fail
		}
		orderType = resolved
	}

	typeCode, pending, ok := orderTypeCode(orderType)
	if !ok {
		return models.Fail(models.FailValidation,
			fmt.Sprintf("Unsupported order type: %s", intent.OrderType))
	}

	if pending && intent.Price == nil {
		return models.Fail(models.FailPriceRequired,
			fmt.Sprintf("Price is required for %s orders", orderType))
	}
	if (typeCode == models.OrderTypeBuyStopLimit || typeCode == models.OrderTypeSellStopLimit) &&
		intent.StopLimitPrice == nil {
		return models.Fail(models.FailValidation,
			fmt.Sprintf("stop_limit_price is required for %s orders", orderType))
	}

	// Stops are measured against the execution reference: the live quote for
	// market orders, the requested price for pending ones.
	var ref float64
	if pending {
		ref = *intent.Price
	} else {
		if fail := fetchQuote(); fail != nil {
			return *fail
		}
		ref = tick.Ask
		if isSellSide(typeCode) {
			ref = tick.Bid
		}
	}
	if fail := checkStops(typeCode, ref, intent.SL, intent.TP, info.Point); fail != nil {
		return *fail
	}

	req := e.buildRequest(intent, typeCode, pending, tick)
	result, err := t.OrderSend(req)
	if err != nil {
		return models.Fail(models.FailTerminalUnreachable, fmt.Sprintf("Exception: %v", err))
	}

	out := reduceResult(result, "Order placed successfully")
	out.Details["symbol"] = intent.Symbol
	out.Details["order_type"] = orderType
	return out
}

// -----------------------------------------------------------------------------

func (e *Engine) buildRequest(intent models.MOrderIntent, typeCode int, pending bool, tick *models.MTick) models.MTradeRequest {
	req := models.MTradeRequest{
		Symbol:      intent.Symbol,
		Volume:      intent.Volume,
		Type:        typeCode,
		Deviation:   intent.Deviation,
		Comment:     intent.Comment,
		Magic:       e.DefaultMagic,
		TypeFilling: models.OrderFillingIOC,
		TypeTime:    models.OrderTimeGTC,
	}
	if intent.Magic != nil {
		req.Magic = *intent.Magic
	}
	if intent.SL != nil {
		req.SL = *intent.SL
	}
	if intent.TP != nil {
		req.TP = *intent.TP
	}

	if pending {
		req.Action = models.TradeActionPending
		req.Price = *intent.Price
		req.TypeFilling = models.OrderFillingReturn
		if intent.StopLimitPrice != nil {
			req.StopLimit = *intent.StopLimitPrice
		}
		return req
	}

	req.Action = models.TradeActionDeal
	if typeCode == models.OrderTypeBuy {
		req.Price = tick.Ask
	} else {
		req.Price = tick.Bid
	}
	return req
}

// -----------------------------------------------------------------------------
// Pending order removal
// -----------------------------------------------------------------------------

// RemoveOrder cancels a pending order by ticket. The order is looked up first
// so a wrong ticket maps to OrderNotFound instead of a raw terminal retcode.
func (e *Engine) RemoveOrder(ticket int64) models.MOrderOutcome {
	out := e.guard("remove_order", func() models.MOrderOutcome {
		return e.removeOrder(ticket)
	})
	e.journal("remove_order", "", out)
	return out
}

// -----------------------------------------------------------------------------

func (e *Engine) removeOrder(ticket int64) models.MOrderOutcome {
	var out models.MOrderOutcome
	err := e.Conn.WithSession(func(t interfaces.ITerminal) error {
		order, fail := findOrder(t, ticket)
		if fail != nil {
			out = *fail
			return nil
		}

		req := models.MTradeRequest{
			Action: models.TradeActionRemove,
			Order:  order.Ticket,
			Symbol: order.Symbol,
			Price:  order.PriceOpen,
		}
		result, err := t.OrderSend(req)
		if err != nil {
			out = models.Fail(models.FailTerminalUnreachable, fmt.Sprintf("Exception: %v", err))
			return nil
		}
		out = reduceResult(result, "Order removed successfully")
		if out.Success {
			out.Ticket = order.Ticket
		}
		return nil
	})
	if err != nil {
		return models.Fail(models.FailNotReady, "Trading terminal is not connected")
	}
	return out
}

// -----------------------------------------------------------------------------
// Position close
// -----------------------------------------------------------------------------

// ClosePosition closes a position fully, or partially when a volume below the
// position's current volume is given.
func (e *Engine) ClosePosition(ticket int64, volume *float64) models.MOrderOutcome {
	out := e.guard("close_position", func() models.MOrderOutcome {
		return e.closePosition(ticket, volume)
	})
	e.journal("close_position", "", out)
	return out
}

// -----------------------------------------------------------------------------

func (e *Engine) closePosition(ticket int64, volume *float64) models.MOrderOutcome {
	var out models.MOrderOutcome
	err := e.Conn.WithSession(func(t interfaces.ITerminal) error {
		pos, fail := findPosition(t, ticket)
		if fail != nil {
			out = *fail
			return nil
		}

		closeVolume := pos.Volume
		if volume != nil {
			if *volume <= 0 || *volume > pos.Volume {
				out = models.Fail(models.FailInvalidCloseVolume,
					fmt.Sprintf("Close volume must be in (0, %g]", pos.Volume))
				return nil
			}
			closeVolume = *volume
		}

		tick, err := t.SymbolTick(pos.Symbol)
		if err != nil {
			out = models.Fail(models.FailTerminalUnreachable, fmt.Sprintf("Exception: %v", err))
			return nil
		}
		if tick == nil {
			out = models.Fail(models.FailQuoteUnavailable,
				fmt.Sprintf("No quote available for %s", pos.Symbol))
			return nil
		}

		// A long closes with a sell at bid; a short with a buy at ask.
		closeType := models.OrderTypeSell
		price := tick.Bid
		if pos.Type == models.OrderTypeSell {
			closeType = models.OrderTypeBuy
			price = tick.Ask
		}

		req := models.MTradeRequest{
			Action:      models.TradeActionDeal,
			Symbol:      pos.Symbol,
			Volume:      closeVolume,
			Type:        closeType,
			Price:       price,
			Position:    pos.Ticket,
			TypeFilling: models.OrderFillingIOC,
			TypeTime:    models.OrderTimeGTC,
		}
		result, err := t.OrderSend(req)
		if err != nil {
			out = models.Fail(models.FailTerminalUnreachable, fmt.Sprintf("Exception: %v", err))
			return nil
		}
		out = reduceResult(result, "Position closed successfully")
		if out.Success {
			out.Ticket = pos.Ticket
		}
		return nil
	})
	if err != nil {
		return models.Fail(models.FailNotReady, "Trading terminal is not connected")
	}
	return out
}

// -----------------------------------------------------------------------------
// Pending order update
// -----------------------------------------------------------------------------

// UpdateOrder changes price, stop loss and/or take profit of a pending order.
// Omitted fields keep the order's current values; the merged request goes to
// the terminal as-is and its return code decides, as on placement.
func (e *Engine) UpdateOrder(ticket int64, update models.MOrderUpdate) models.MOrderOutcome {
	out := e.guard("update_order", func() models.MOrderOutcome {
		return e.updateOrder(ticket, update)
	})
	e.journal("update_order", "", out)
	return out
}

// -----------------------------------------------------------------------------

func (e *Engine) updateOrder(ticket int64, update models.MOrderUpdate) models.MOrderOutcome {
	var out models.MOrderOutcome
	err := e.Conn.WithSession(func(t interfaces.ITerminal) error {
		order, fail := findOrder(t, ticket)
		if fail != nil {
			out = *fail
			return nil
		}

		price := order.PriceOpen
		if update.Price != nil {
			price = *update.Price
		}
		sl := order.SL
		if update.SL != nil {
			sl = *update.SL
		}
		tp := order.TP
		if update.TP != nil {
			tp = *update.TP
		}

		req := models.MTradeRequest{
			Action:   models.TradeActionModify,
			Order:    order.Ticket,
			Symbol:   order.Symbol,
			Price:    price,
			SL:       sl,
			TP:       tp,
			TypeTime: models.OrderTimeGTC,
		}
		result, err := t.OrderSend(req)
		if err != nil {
			out = models.Fail(models.FailTerminalUnreachable, fmt.Sprintf("Exception: %v", err))
			return nil
		}
		out = reduceResult(result, "Order updated successfully")
		if out.Success {
			out.Ticket = order.Ticket
		}
		return nil
	})
	if err != nil {
		return models.Fail(models.FailNotReady, "Trading terminal is not connected")
	}
	return out
}

// -----------------------------------------------------------------------------
// Listings
// -----------------------------------------------------------------------------

// OpenOrders lists pending orders, optionally filtered by symbol.
func (e *Engine) OpenOrders(symbol string) ([]models.MOrderEntry, models.MOrderOutcome) {
	var entries []models.MOrderEntry
	out := e.guard("open_orders", func() models.MOrderOutcome {
		err := e.Conn.WithSession(func(t interfaces.ITerminal) error {
			orders, err := t.OrdersGet(symbol)
			if err != nil {
				return err
			}
			entries = make([]models.MOrderEntry, 0, len(orders))
			for _, o := range orders {
				entries = append(entries, models.MOrderEntry{
					Ticket:  o.Ticket,
					Symbol:  o.Symbol,
					Type:    o.Type,
					Price:   o.PriceOpen,
					Volume:  o.Volume,
					SL:      o.SL,
					TP:      o.TP,
					Time:    o.TimeSetup,
					Comment: o.Comment,
					Raw:     o,
				})
			}
			return nil
		})
		if err == terminal.ErrNotOpen {
			return models.Fail(models.FailNotReady, "Trading terminal is not connected")
		}
		if err != nil {
			return models.Fail(models.FailQueryFailed, fmt.Sprintf("Exception: %v", err))
		}
		return models.Ok("OK", 0, nil)
	})
	return entries, out
}

// -----------------------------------------------------------------------------

// OpenPositions lists open positions, optionally filtered by symbol.
func (e *Engine) OpenPositions(symbol string) ([]models.MPositionEntry, models.MOrderOutcome) {
	var entries []models.MPositionEntry
	out := e.guard("open_positions", func() models.MOrderOutcome {
		err := e.Conn.WithSession(func(t interfaces.ITerminal) error {
			positions, err := t.PositionsGet(symbol)
			if err != nil {
				return err
			}
			entries = make([]models.MPositionEntry, 0, len(positions))
			for _, p := range positions {
				entries = append(entries, models.MPositionEntry{
					Ticket:    p.Ticket,
					Symbol:    p.Symbol,
					Type:      p.Type,
					Volume:    p.Volume,
					PriceOpen: p.PriceOpen,
					SL:        p.SL,
					TP:        p.TP,
					Time:      p.Time,
					Profit:    p.Profit,
					Comment:   p.Comment,
					Raw:       p,
				})
			}
			return nil
		})
		if err == terminal.ErrNotOpen {
			return models.Fail(models.FailNotReady, "Trading terminal is not connected")
		}
		if err != nil {
			return models.Fail(models.FailQueryFailed, fmt.Sprintf("Exception: %v", err))
		}
		return models.Ok("OK", 0, nil)
	})
	return entries, out
}

// -----------------------------------------------------------------------------

// ensureSymbol fetches the symbol snapshot. An absent or hidden symbol gets
// one select-and-refetch attempt before the operation fails.
func (e *Engine) ensureSymbol(t interfaces.ITerminal, symbol string) (*models.MSymbolInfo, *models.MOrderOutcome) {
	info, err := t.SymbolInfo(symbol)
	if err != nil {
		fail := models.Fail(models.FailTerminalUnreachable, fmt.Sprintf("Exception: %v", err))
		return nil, &fail
	}

	if info == nil || !info.Visible {
		if err := t.SymbolSelect(symbol, true); err == nil {
			info, err = t.SymbolInfo(symbol)
			if err != nil {
				fail := models.Fail(models.FailTerminalUnreachable, fmt.Sprintf("Exception: %v", err))
				return nil, &fail
			}
		}
	}

	if info == nil {
		fail := models.Fail(models.FailSymbolUnavailable,
			fmt.Sprintf("Symbol %s not found in terminal", symbol))
		return nil, &fail
	}
	return info, nil
}
