package bridge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"mt5-gateway/src/models"
)

// -----------------------------------------------------------------------------
// Terminal talks to a broker-side bridge process over a persistent TCP
// connection using newline-delimited JSON request/response pairs. The bridge
// process owns the real trading terminal; this side only marshals calls.
// One request is in flight at a time, which the session guard already
// guarantees.
// -----------------------------------------------------------------------------

type Terminal struct {
	addr string

	conn   net.Conn
	reader *bufio.Reader

	lastErrCode int
	lastErrDesc string
}

// request is the envelope sent for every terminal call.
type request struct {
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// response is the envelope the bridge answers with. Result stays raw so each
// method can decode its own shape.
type response struct {
	OK        bool            `json:"ok"`
	Error     string          `json:"error,omitempty"`
	ErrorCode int             `json:"error_code,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// -----------------------------------------------------------------------------

func NewTerminal(addr string) *Terminal {
	return &Terminal{addr: addr}
}

// -----------------------------------------------------------------------------

func (t *Terminal) Initialize(account models.MAccountConfig, path string, connectTimeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", t.addr, connectTimeout)
	if err != nil {
		t.lastErrCode = -1
		t.lastErrDesc = err.Error()
		return fmt.Errorf("dial bridge %s: %w", t.addr, err)
	}
	t.conn = conn
	t.reader = bufio.NewReader(conn)

	params := map[string]interface{}{
		"login":    account.Login,
		"password": account.Password,
		"server":   account.Server,
		"path":     path,
	}
	if _, err := t.call("initialize", params); err != nil {
		_ = t.conn.Close()
		t.conn = nil
		t.reader = nil
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) Shutdown() error {
	if t.conn == nil {
		return nil
	}
	_, _ = t.call("shutdown", nil)
	err := t.conn.Close()
	t.conn = nil
	t.reader = nil
	return err
}

// -----------------------------------------------------------------------------

func (t *Terminal) LastError() (int, string) {
	return t.lastErrCode, t.lastErrDesc
}

// -----------------------------------------------------------------------------

func (t *Terminal) SymbolInfo(symbol string) (*models.MSymbolInfo, error) {
	raw, err := t.call("symbol_info", map[string]interface{}{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}

	var info models.MSymbolInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("decode symbol_info: %w", err)
	}
	return &info, nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) SymbolSelect(symbol string, enable bool) error {
	_, err := t.call("symbol_select", map[string]interface{}{
		"symbol": symbol,
		"enable": enable,
	})
	return err
}

// -----------------------------------------------------------------------------

func (t *Terminal) SymbolTick(symbol string) (*models.MTick, error) {
	raw, err := t.call("symbol_info_tick", map[string]interface{}{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}

	var tick models.MTick
	if err := json.Unmarshal(raw, &tick); err != nil {
		return nil, fmt.Errorf("decode tick: %w", err)
	}
	return &tick, nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) OrderSend(req models.MTradeRequest) (*models.MTradeResult, error) {
	raw, err := t.call("order_send", req)
	if err != nil {
		return nil, err
	}

	var result models.MTradeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode order_send result: %w", err)
	}
	return &result, nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) OrdersGet(symbol string) ([]models.MOrderRecord, error) {
	raw, err := t.call("orders_get", symbolFilter(symbol))
	if err != nil {
		return nil, err
	}

	var orders []models.MOrderRecord
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) PositionsGet(symbol string) ([]models.MPositionRecord, error) {
	raw, err := t.call("positions_get", symbolFilter(symbol))
	if err != nil {
		return nil, err
	}

	var positions []models.MPositionRecord
	if err := json.Unmarshal(raw, &positions); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	return positions, nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) CopyRatesFromPos(symbol string, timeframeID int, start, count int) ([]models.MCandle, error) {
	raw, err := t.call("copy_rates_from_pos", map[string]interface{}{
		"symbol":    symbol,
		"timeframe": timeframeID,
		"start_pos": start,
		"count":     count,
	})
	if err != nil {
		return nil, err
	}

	var candles []models.MCandle
	if err := json.Unmarshal(raw, &candles); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	return candles, nil
}

// -----------------------------------------------------------------------------

// call performs one request/response round trip on the persistent socket.
func (t *Terminal) call(method string, params interface{}) (json.RawMessage, error) {
	if t.conn == nil {
		return nil, fmt.Errorf("bridge not connected")
	}

	payload, err := json.Marshal(request{Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	payload = append(payload, '\n')

	if _, err := t.conn.Write(payload); err != nil {
		return nil, fmt.Errorf("write %s request: %w", method, err)
	}

	line, err := t.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}

	if !resp.OK {
		t.lastErrCode = resp.ErrorCode
		t.lastErrDesc = resp.Error
		return nil, fmt.Errorf("bridge %s failed: %s", method, resp.Error)
	}
	return resp.Result, nil
}

// -----------------------------------------------------------------------------

func symbolFilter(symbol string) map[string]interface{} {
	if symbol == "" {
		return nil
	}
	return map[string]interface{}{"symbol": symbol}
}

// -----------------------------------------------------------------------------

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
