package server

import (
	"encoding/json"
	"testing"

	"mt5-gateway/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestParseSubscriptionBareArray(t *testing.T) {
	msg := []byte(`[
		{"symbol": "eurusd", "live": true, "timeframes": [{"name": "m1", "count": 50}]},
		{"symbol": "XAUUSD", "timeframes": [{"name": "h4", "count": 10, "always_send": true}]}
	]`)

	specs, err := ParseSubscription(msg)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "EURUSD", specs[0].Symbol)
	assert.True(t, specs[0].Live)
	require.Len(t, specs[0].Timeframes, 1)
	assert.Equal(t, models.MTimeframeRequest{Name: "M1", Count: 50}, specs[0].Timeframes[0])

	assert.Equal(t, "XAUUSD", specs[1].Symbol)
	assert.True(t, specs[1].Live, "live defaults to true")
	assert.Equal(t, models.MTimeframeRequest{Name: "H4", Count: 10, AlwaysSend: true}, specs[1].Timeframes[0])
}

func TestParseSubscriptionEnvelope(t *testing.T) {
	msg := []byte(`{"action": "subscribe", "data": [{"symbol": "GBPUSD", "live": false}]}`)

	specs, err := ParseSubscription(msg)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "GBPUSD", specs[0].Symbol)
	assert.False(t, specs[0].Live)
	assert.Empty(t, specs[0].Timeframes)
}

func TestParseSubscriptionPositionalTimeframes(t *testing.T) {
	msg := []byte(`[{"symbol": "EURUSD", "timeframes": [["m5", 20, true], ["h1"], "d1"]}]`)

	specs, err := ParseSubscription(msg)
	require.NoError(t, err)
	require.Len(t, specs[0].Timeframes, 3)

	assert.Equal(t, models.MTimeframeRequest{Name: "M5", Count: 20, AlwaysSend: true}, specs[0].Timeframes[0])
	assert.Equal(t, models.MTimeframeRequest{Name: "H1", Count: 1}, specs[0].Timeframes[1])
	assert.Equal(t, models.MTimeframeRequest{Name: "D1", Count: 1}, specs[0].Timeframes[2])
}

func TestParseSubscriptionRoundTrip(t *testing.T) {
	msg := []byte(`[{"symbol": "eurusd", "live": false, "timeframes": [["m5", 20, true], "h1"]}]`)

	specs, err := ParseSubscription(msg)
	require.NoError(t, err)

	// A normalized subscription re-serialized and re-parsed is unchanged.
	raw, err := json.Marshal(specs)
	require.NoError(t, err)

	again, err := ParseSubscription(raw)
	require.NoError(t, err)
	assert.Equal(t, specs, again)
}

func TestParseSubscriptionEmptySet(t *testing.T) {
	specs, err := ParseSubscription([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestParseSubscriptionInvalidJSON(t *testing.T) {
	_, err := ParseSubscription([]byte(`{"symbol": `))
	assert.Equal(t, ErrInvalidJSON, err)
}

func TestParseSubscriptionInvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{"scalar root", `42`},
		{"object without action", `{"data": []}`},
		{"wrong action", `{"action": "unsubscribe", "data": []}`},
		{"envelope without data", `{"action": "subscribe"}`},
		{"entry not object", `["EURUSD"]`},
		{"missing symbol", `[{"live": true}]`},
		{"empty symbol", `[{"symbol": "  "}]`},
		{"unknown timeframe", `[{"symbol": "EURUSD", "timeframes": [{"name": "m7"}]}]`},
		{"zero count", `[{"symbol": "EURUSD", "timeframes": [{"name": "m1", "count": 0}]}]`},
		{"negative count", `[{"symbol": "EURUSD", "timeframes": [["m1", -5]]}]`},
		{"timeframes not array", `[{"symbol": "EURUSD", "timeframes": "m1"}]`},
		{"empty positional", `[{"symbol": "EURUSD", "timeframes": [[]]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSubscription([]byte(tt.msg))
			assert.Equal(t, ErrInvalidFormat, err)
		})
	}
}

// One bad entry rejects the whole message; the valid first entry must not
// leak through.
func TestParseSubscriptionIsAtomic(t *testing.T) {
	msg := []byte(`[
		{"symbol": "EURUSD", "timeframes": [{"name": "m1"}]},
		{"symbol": "GBPUSD", "timeframes": [{"name": "bogus"}]}
	]`)

	specs, err := ParseSubscription(msg)
	assert.Equal(t, ErrInvalidFormat, err)
	assert.Nil(t, specs)
}

// -----------------------------------------------------------------------------

func TestClientSubscriptionStateSurvivesReplace(t *testing.T) {
	client := NewClient(nil, nil, "test-client")

	client.SetSubscription([]models.MSubscriptionSpec{{Symbol: "EURUSD", Live: true}})
	client.MarkSent("EURUSD_M1", 1700000000)

	// Replacing the subscription set keeps delivery state for streams the
	// client re-subscribes to.
	client.SetSubscription([]models.MSubscriptionSpec{
		{Symbol: "EURUSD", Timeframes: []models.MTimeframeRequest{{Name: "M1", Count: 5}}},
	})

	assert.Equal(t, int64(1700000000), client.LastSentTime("EURUSD_M1"))
	assert.Equal(t, int64(0), client.LastSentTime("EURUSD_H1"))
}

func TestClientPushNonBlocking(t *testing.T) {
	client := NewClient(nil, nil, "test-client")

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, client.Push(i))
	}
	assert.False(t, client.Push("overflow"), "full buffer must not block")
}
