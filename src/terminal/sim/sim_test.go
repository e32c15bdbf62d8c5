package sim

import (
	"testing"
	"time"

	"mt5-gateway/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func newOpenTerminal(t *testing.T) *Terminal {
	t.Helper()
	term := NewTerminal()
	require.NoError(t, term.Initialize(models.MAccountConfig{Login: 1}, "", time.Second))
	return term
}

// -----------------------------------------------------------------------------

func TestRequiresInitialize(t *testing.T) {
	term := NewTerminal()

	_, err := term.SymbolTick("EURUSD")
	assert.Error(t, err)

	_, err = term.OrderSend(models.MTradeRequest{Action: models.TradeActionDeal, Symbol: "EURUSD"})
	assert.Error(t, err)
}

func TestUnknownSymbolIsNilNil(t *testing.T) {
	term := newOpenTerminal(t)

	info, err := term.SymbolInfo("NOPE")
	require.NoError(t, err)
	assert.Nil(t, info)

	tick, err := term.SymbolTick("NOPE")
	require.NoError(t, err)
	assert.Nil(t, tick)
}

func TestTickHasSpread(t *testing.T) {
	term := newOpenTerminal(t)

	tick, err := term.SymbolTick("EURUSD")
	require.NoError(t, err)
	require.NotNil(t, tick)
	assert.Greater(t, tick.Ask, tick.Bid)
}

func TestDealOpensAndClosesPosition(t *testing.T) {
	term := newOpenTerminal(t)

	result, err := term.OrderSend(models.MTradeRequest{
		Action: models.TradeActionDeal,
		Symbol: "EURUSD",
		Volume: 0.5,
		Type:   models.OrderTypeBuy,
	})
	require.NoError(t, err)
	require.Equal(t, models.TradeRetcodeDone, result.Retcode)

	positions, err := term.PositionsGet("EURUSD")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 0.5, positions[0].Volume)

	// Partial close shrinks, full close removes.
	_, err = term.OrderSend(models.MTradeRequest{
		Action:   models.TradeActionDeal,
		Symbol:   "EURUSD",
		Volume:   0.2,
		Type:     models.OrderTypeSell,
		Position: result.Order,
	})
	require.NoError(t, err)

	positions, _ = term.PositionsGet("EURUSD")
	require.Len(t, positions, 1)
	assert.InDelta(t, 0.3, positions[0].Volume, 1e-9)

	_, err = term.OrderSend(models.MTradeRequest{
		Action:   models.TradeActionDeal,
		Symbol:   "EURUSD",
		Volume:   0.3,
		Type:     models.OrderTypeSell,
		Position: result.Order,
	})
	require.NoError(t, err)

	positions, _ = term.PositionsGet("EURUSD")
	assert.Empty(t, positions)
}

func TestPendingLifecycle(t *testing.T) {
	term := newOpenTerminal(t)

	placed, err := term.OrderSend(models.MTradeRequest{
		Action: models.TradeActionPending,
		Symbol: "EURUSD",
		Volume: 0.1,
		Type:   models.OrderTypeBuyLimit,
		Price:  1.0500,
	})
	require.NoError(t, err)
	require.Equal(t, models.TradeRetcodeDone, placed.Retcode)

	orders, err := term.OrdersGet("")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 1.0500, orders[0].PriceOpen)

	modified, err := term.OrderSend(models.MTradeRequest{
		Action: models.TradeActionModify,
		Order:  placed.Order,
		Price:  1.0400,
		SL:     1.0300,
	})
	require.NoError(t, err)
	require.Equal(t, models.TradeRetcodeDone, modified.Retcode)

	orders, _ = term.OrdersGet("")
	assert.Equal(t, 1.0400, orders[0].PriceOpen)
	assert.Equal(t, 1.0300, orders[0].SL)

	removed, err := term.OrderSend(models.MTradeRequest{
		Action: models.TradeActionRemove,
		Order:  placed.Order,
	})
	require.NoError(t, err)
	require.Equal(t, models.TradeRetcodeDone, removed.Retcode)

	orders, _ = term.OrdersGet("")
	assert.Empty(t, orders)
}

func TestModifyUnknownOrderIsRejected(t *testing.T) {
	term := newOpenTerminal(t)

	result, err := term.OrderSend(models.MTradeRequest{
		Action: models.TradeActionModify,
		Order:  424242,
	})
	require.NoError(t, err)
	assert.NotEqual(t, models.TradeRetcodeDone, result.Retcode)
}

func TestCandlesAreBucketAligned(t *testing.T) {
	term := newOpenTerminal(t)

	m1, ok := models.TimeframeID("M1")
	require.True(t, ok)

	candles, err := term.CopyRatesFromPos("EURUSD", m1, 1, 3)
	require.NoError(t, err)
	require.Len(t, candles, 3)

	now := time.Now().Unix()
	for i, c := range candles {
		assert.Zero(t, c.Time%60, "bar time must sit on a minute boundary")
		assert.Less(t, c.Time, now-now%60, "only closed bars are returned")
		assert.GreaterOrEqual(t, c.High, c.Low)
		if i > 0 {
			assert.Equal(t, int64(60), c.Time-candles[i-1].Time, "bars are contiguous oldest first")
		}
	}
}

func TestCandlesUnknownTimeframe(t *testing.T) {
	term := newOpenTerminal(t)

	_, err := term.CopyRatesFromPos("EURUSD", 12345, 1, 3)
	assert.Error(t, err)
}
