package terminal

import (
	"sync"
	"testing"
	"time"

	"mt5-gateway/src/interfaces"
	"mt5-gateway/src/logger"
	"mt5-gateway/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

type stubTerminal struct {
	initCalls     int
	shutdownCalls int
	initErr       error
}

func (s *stubTerminal) Initialize(models.MAccountConfig, string, time.Duration) error {
	s.initCalls++
	return s.initErr
}
func (s *stubTerminal) Shutdown() error {
	s.shutdownCalls++
	return nil
}
func (s *stubTerminal) LastError() (int, string)                           { return 1, "stub error" }
func (s *stubTerminal) SymbolInfo(string) (*models.MSymbolInfo, error)     { return nil, nil }
func (s *stubTerminal) SymbolSelect(string, bool) error                    { return nil }
func (s *stubTerminal) SymbolTick(string) (*models.MTick, error)           { return nil, nil }
func (s *stubTerminal) OrdersGet(string) ([]models.MOrderRecord, error)    { return nil, nil }
func (s *stubTerminal) PositionsGet(string) ([]models.MPositionRecord, error) {
	return nil, nil
}
func (s *stubTerminal) OrderSend(models.MTradeRequest) (*models.MTradeResult, error) {
	return nil, nil
}
func (s *stubTerminal) CopyRatesFromPos(string, int, int, int) ([]models.MCandle, error) {
	return nil, nil
}

// -----------------------------------------------------------------------------

func newTestConnection(stub *stubTerminal) *Connection {
	log := logger.NewLogger(nil, "test")
	return NewConnection(&models.MTerminalConfig{OpsPerSecond: 1000}, stub, log)
}

// -----------------------------------------------------------------------------

func TestOpenIsIdempotent(t *testing.T) {
	stub := &stubTerminal{}
	conn := newTestConnection(stub)

	require.NoError(t, conn.Open(models.MAccountConfig{Login: 1}))
	require.NoError(t, conn.Open(models.MAccountConfig{Login: 1}))
	require.NoError(t, conn.Open(models.MAccountConfig{Login: 1}))

	assert.Equal(t, 1, stub.initCalls, "initialize must run once per open session")
	assert.True(t, conn.IsOpen())
}

func TestOpenFailure(t *testing.T) {
	stub := &stubTerminal{initErr: assert.AnError}
	conn := newTestConnection(stub)

	require.Error(t, conn.Open(models.MAccountConfig{Login: 1}))
	assert.False(t, conn.IsOpen())

	// A later attempt tries again.
	stub.initErr = nil
	require.NoError(t, conn.Open(models.MAccountConfig{Login: 1}))
	assert.Equal(t, 2, stub.initCalls)
}

func TestCloseIsNoOpWhenNotOpen(t *testing.T) {
	stub := &stubTerminal{}
	conn := newTestConnection(stub)

	conn.Close()
	conn.Close()
	assert.Equal(t, 0, stub.shutdownCalls)

	require.NoError(t, conn.Open(models.MAccountConfig{Login: 1}))
	conn.Close()
	conn.Close()
	assert.Equal(t, 1, stub.shutdownCalls)
	assert.False(t, conn.IsOpen())
}

func TestWithSessionRequiresOpen(t *testing.T) {
	conn := newTestConnection(&stubTerminal{})

	err := conn.WithSession(func(interfaces.ITerminal) error { return nil })
	assert.Equal(t, ErrNotOpen, err)
}

func TestWithSessionSerializes(t *testing.T) {
	stub := &stubTerminal{}
	conn := newTestConnection(stub)
	require.NoError(t, conn.Open(models.MAccountConfig{Login: 1}))

	var inFlight, maxInFlight int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = conn.WithSession(func(interfaces.ITerminal) error {
				mu.Lock()
				inFlight++
				if inFlight > maxInFlight {
					maxInFlight = inFlight
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInFlight, "session guard must never overlap operations")
}
