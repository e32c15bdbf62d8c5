package engine

import (
	"fmt"

	"mt5-gateway/src/interfaces"
	"mt5-gateway/src/models"
)

// -----------------------------------------------------------------------------
// Pure order routing and validation rules, kept free of session plumbing so
// they can be exercised directly in tests.
// -----------------------------------------------------------------------------

// orderTypeCode maps the public order type strings to terminal codes and
// reports whether the type is pending.
func orderTypeCode(orderType string) (code int, pending bool, ok bool) {
	switch orderType {
	case "BUY":
		return models.OrderTypeBuy, false, true
	case "SELL":
		return models.OrderTypeSell, false, true
	case "BUY_LIMIT":
		return models.OrderTypeBuyLimit, true, true
	case "SELL_LIMIT":
		return models.OrderTypeSellLimit, true, true
	case "BUY_STOP":
		return models.OrderTypeBuyStop, true, true
	case "SELL_STOP":
		return models.OrderTypeSellStop, true, true
	case "BUY_STOP_LIMIT":
		return models.OrderTypeBuyStopLimit, true, true
	case "SELL_STOP_LIMIT":
		return models.OrderTypeSellStopLimit, true, true
	default:
		return 0, false, false
	}
}

// -----------------------------------------------------------------------------

func isSellSide(typeCode int) bool {
	switch typeCode {
	case models.OrderTypeSell, models.OrderTypeSellLimit,
		models.OrderTypeSellStop, models.OrderTypeSellStopLimit:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------

// resolveAutoLimit picks the limit direction from the price's side of the
// quote: at or above ask plus the minimum distance it sells, at or below bid
// minus the minimum distance it buys. Prices inside the band are rejected
// rather than guessed.
func resolveAutoLimit(intent models.MOrderIntent, tick *models.MTick, point float64) (string, *models.MOrderOutcome) {
	if intent.Price == nil {
		fail := models.Fail(models.FailMissingPrice, "Price is required for LIMIT orders")
		return "", &fail
	}

	minDist := minDistancePoints * point
	price := *intent.Price

	switch {
	case price >= tick.Ask+minDist:
		return "SELL_LIMIT", nil
	case price <= tick.Bid-minDist:
		return "BUY_LIMIT", nil
	default:
		fail := models.Fail(models.FailTooCloseToMarket,
			fmt.Sprintf("Price %g is too close to market (bid=%g ask=%g)", price, tick.Bid, tick.Ask))
		return "", &fail
	}
}

// -----------------------------------------------------------------------------

// checkStops validates SL and TP against the execution reference price. Buys
// want their stop loss below and take profit above the reference by at least
// the minimum stop distance; sells are the mirror image.
func checkStops(typeCode int, ref float64, sl, tp *float64, point float64) *models.MOrderOutcome {
	minStop := minStopDistancePoints * point
	sell := isSellSide(typeCode)

	if sl != nil {
		tooClose := ref-*sl < minStop
		if sell {
			tooClose = *sl-ref < minStop
		}
		if tooClose {
			fail := models.Fail(models.FailStopLossTooClose,
				fmt.Sprintf("Stop loss %g is too close to price %g (min distance %g)", *sl, ref, minStop))
			return &fail
		}
	}

	if tp != nil {
		tooClose := *tp-ref < minStop
		if sell {
			tooClose = ref-*tp < minStop
		}
		if tooClose {
			fail := models.Fail(models.FailTakeProfitTooClose,
				fmt.Sprintf("Take profit %g is too close to price %g (min distance %g)", *tp, ref, minStop))
			return &fail
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// reduceResult folds a terminal trade result into the uniform outcome shape.
func reduceResult(result *models.MTradeResult, successMessage string) models.MOrderOutcome {
	if result == nil {
		return models.Fail(models.FailTerminalUnreachable, "Terminal returned no result")
	}
	if result.Retcode != models.TradeRetcodeDone {
		return models.FailWith(models.FailRejectedByTerminal,
			fmt.Sprintf("Terminal rejected request: %s (retcode=%d)", result.Comment, result.Retcode),
			result.Order, result.Details())
	}
	return models.Ok(successMessage, result.Order, result.Details())
}

// -----------------------------------------------------------------------------

// findOrder resolves a pending order by ticket inside the current session.
func findOrder(t interfaces.ITerminal, ticket int64) (*models.MOrderRecord, *models.MOrderOutcome) {
	orders, err := t.OrdersGet("")
	if err != nil {
		fail := models.Fail(models.FailQueryFailed, fmt.Sprintf("Exception: %v", err))
		return nil, &fail
	}
	for i := range orders {
		if orders[i].Ticket == ticket {
			return &orders[i], nil
		}
	}
	fail := models.Fail(models.FailOrderNotFound,
		fmt.Sprintf("Pending order with ticket %d not found", ticket))
	return nil, &fail
}

// -----------------------------------------------------------------------------

// findPosition resolves an open position by ticket inside the current session.
func findPosition(t interfaces.ITerminal, ticket int64) (*models.MPositionRecord, *models.MOrderOutcome) {
	positions, err := t.PositionsGet("")
	if err != nil {
		fail := models.Fail(models.FailQueryFailed, fmt.Sprintf("Exception: %v", err))
		return nil, &fail
	}
	for i := range positions {
		if positions[i].Ticket == ticket {
			return &positions[i], nil
		}
	}
	fail := models.Fail(models.FailPositionNotFound,
		fmt.Sprintf("Position with ticket %d not found", ticket))
	return nil, &fail
}
