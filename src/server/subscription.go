package server

import (
	"errors"
	"strings"

	"mt5-gateway/src/models"

	"github.com/tidwall/gjson"
)

// -----------------------------------------------------------------------------
// Subscription message parsing. Clients send either a bare array of symbol
// specs or an envelope {"action": "subscribe", "data": [...]}. Timeframes may
// be objects ({"name": "m1", "count": 50}) or positional arrays
// (["m1", 50, true]). Parsing is atomic: one bad entry rejects the whole
// message.
// -----------------------------------------------------------------------------

var (
	ErrInvalidJSON   = errors.New("invalid json")
	ErrInvalidFormat = errors.New("invalid subscription format")
)

// -----------------------------------------------------------------------------

// ParseSubscription decodes a client subscription message into a normalized
// spec set. Symbols and timeframe names come back uppercase; live defaults to
// true, count to 1, always_send to false.
func ParseSubscription(message []byte) ([]models.MSubscriptionSpec, error) {
	if !gjson.ValidBytes(message) {
		return nil, ErrInvalidJSON
	}

	root := gjson.ParseBytes(message)

	var entries gjson.Result
	switch {
	case root.IsArray():
		entries = root
	case root.IsObject():
		if root.Get("action").String() != "subscribe" {
			return nil, ErrInvalidFormat
		}
		entries = root.Get("data")
		if !entries.IsArray() {
			return nil, ErrInvalidFormat
		}
	default:
		return nil, ErrInvalidFormat
	}

	specs := make([]models.MSubscriptionSpec, 0, len(entries.Array()))
	for _, entry := range entries.Array() {
		spec, ok := parseSpec(entry)
		if !ok {
			return nil, ErrInvalidFormat
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// -----------------------------------------------------------------------------

func parseSpec(entry gjson.Result) (models.MSubscriptionSpec, bool) {
	if !entry.IsObject() {
		return models.MSubscriptionSpec{}, false
	}

	symbol := strings.ToUpper(strings.TrimSpace(entry.Get("symbol").String()))
	if symbol == "" {
		return models.MSubscriptionSpec{}, false
	}

	spec := models.MSubscriptionSpec{Symbol: symbol, Live: true}
	if live := entry.Get("live"); live.Exists() {
		spec.Live = live.Bool()
	}

	timeframes := entry.Get("timeframes")
	if timeframes.Exists() {
		if !timeframes.IsArray() {
			return models.MSubscriptionSpec{}, false
		}
		for _, tf := range timeframes.Array() {
			req, ok := parseTimeframe(tf)
			if !ok {
				return models.MSubscriptionSpec{}, false
			}
			spec.Timeframes = append(spec.Timeframes, req)
		}
	}

	return spec, true
}

// -----------------------------------------------------------------------------

func parseTimeframe(tf gjson.Result) (models.MTimeframeRequest, bool) {
	req := models.MTimeframeRequest{Count: 1}

	switch {
	case tf.IsObject():
		req.Name = tf.Get("name").String()
		if count := tf.Get("count"); count.Exists() {
			req.Count = int(count.Int())
		}
		req.AlwaysSend = tf.Get("always_send").Bool()

	case tf.IsArray():
		parts := tf.Array()
		if len(parts) == 0 || len(parts) > 3 {
			return models.MTimeframeRequest{}, false
		}
		req.Name = parts[0].String()
		if len(parts) > 1 {
			req.Count = int(parts[1].Int())
		}
		if len(parts) > 2 {
			req.AlwaysSend = parts[2].Bool()
		}

	case tf.Type == gjson.String:
		req.Name = tf.String()

	default:
		return models.MTimeframeRequest{}, false
	}

	req.Name = strings.ToUpper(strings.TrimSpace(req.Name))
	if _, ok := models.TimeframeID(req.Name); !ok {
		return models.MTimeframeRequest{}, false
	}
	if req.Count < 1 {
		return models.MTimeframeRequest{}, false
	}
	return req, true
}
