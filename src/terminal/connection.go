package terminal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mt5-gateway/src/interfaces"
	"mt5-gateway/src/logger"
	"mt5-gateway/src/models"

	"golang.org/x/time/rate"
)

// -----------------------------------------------------------------------------
// Connection owns the single terminal session of the process. The wrapped
// ITerminal is not safe for concurrent use, so every operation (synchronous
// trading requests and broadcaster fetches alike) runs inside WithSession,
// which serializes all callers on one mutex. Nested lookups (e.g. a modify's
// orders-get followed by its order-send) belong inside a single WithSession
// closure; the guard is not re-entrant.
// -----------------------------------------------------------------------------

type Connection struct {
	Config *models.MTerminalConfig
	Logger *logger.Logger

	impl    interfaces.ITerminal
	limiter *rate.Limiter

	mu   sync.Mutex
	open bool
}

// -----------------------------------------------------------------------------

func NewConnection(cfg *models.MTerminalConfig, impl interfaces.ITerminal, log *logger.Logger) *Connection {
	ops := cfg.OpsPerSecond
	if ops <= 0 {
		ops = 20
	}

	return &Connection{
		Config:  cfg,
		Logger:  log,
		impl:    impl,
		limiter: rate.NewLimiter(rate.Limit(ops), 1),
	}
}

// -----------------------------------------------------------------------------

// Open initializes the terminal session. Idempotent: opening an already-open
// connection succeeds without touching the terminal again.
func (c *Connection) Open(account models.MAccountConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open {
		c.Logger.Info("Terminal already initialized")
		return nil
	}

	timeout := time.Duration(c.Config.ConnectTimeoutSeconds) * time.Second
	c.Logger.Info("Initializing terminal session. login=%d server=%s", account.Login, account.Server)

	if err := c.impl.Initialize(account, c.Config.Path, timeout); err != nil {
		code, desc := c.impl.LastError()
		c.Logger.Error("Terminal initialization failed: %v (last_error=%d %s)", err, code, desc)
		return fmt.Errorf("terminal initialize: %w", err)
	}

	c.open = true
	c.Logger.Info("Terminal initialized successfully (login=%d)", account.Login)
	return nil
}

// -----------------------------------------------------------------------------

// Close shuts the session down. Safe to call when not open (no-op) and from
// the process termination handler.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return
	}

	c.Logger.Info("Shutting down terminal connection")
	if err := c.impl.Shutdown(); err != nil {
		c.Logger.Error("Error during terminal shutdown: %v", err)
	}
	c.open = false
}

// -----------------------------------------------------------------------------

// IsOpen reports whether the session is currently established.
func (c *Connection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// -----------------------------------------------------------------------------

// WithSession runs fn with exclusive access to the terminal. Only one logical
// operation is ever in flight; the rate limiter additionally spaces calls so
// the terminal is never hammered by broadcaster bursts.
func (c *Connection) WithSession(fn func(t interfaces.ITerminal) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return ErrNotOpen
	}

	_ = c.limiter.Wait(context.Background())
	return fn(c.impl)
}

// -----------------------------------------------------------------------------

// ErrNotOpen is returned by WithSession when the session is not established.
var ErrNotOpen = fmt.Errorf("terminal connection is not open")
