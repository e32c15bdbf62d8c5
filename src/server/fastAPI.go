package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mt5-gateway/src/config"
	"mt5-gateway/src/engine"
	"mt5-gateway/src/interfaces"
	"mt5-gateway/src/logger"
	"mt5-gateway/src/models"
	"mt5-gateway/src/terminal"
	"mt5-gateway/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// FastAPIServer
// -----------------------------------------------------------------------------

type FastAPIServer struct {
	Config  *config.Config
	Logger  *logger.Logger
	Engine  *engine.Engine
	Conn    *terminal.Connection
	Hub     *Hub
	Journal interfaces.IJournal
	Market  *utils.MarketHours

	router *gin.Engine
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewFastAPIServer(cfg *config.Config, log *logger.Logger, eng *engine.Engine,
	conn *terminal.Connection, hub *Hub, journal interfaces.IJournal, market *utils.MarketHours) *FastAPIServer {

	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &FastAPIServer{
		Config:  cfg,
		Logger:  log,
		Engine:  eng,
		Conn:    conn,
		Hub:     hub,
		Journal: journal,
		Market:  market,
		router:  gin.Default(),
	}

	// Add CORS Middleware
	s.router.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *FastAPIServer) setupRoutes() {
	api := s.router.Group("/api/v1")
	{
		api.POST("/orders/new", s.postNewOrder)
		api.GET("/orders/open", s.getOpenOrders)
		api.POST("/orders/remove", s.postRemoveOrder)
		api.POST("/orders/update", s.postUpdateOrder)
		api.GET("/positions/open", s.getOpenPositions)
		api.POST("/positions/close", s.postClosePosition)
		api.GET("/executions", s.getExecutions)
		api.GET("/health", s.getHealth)
	}

	// WebSocket endpoint
	s.router.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *FastAPIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.Hub.Run()

	return s.router.Run(addr)
}

// -----------------------------------------------------------------------------
// Trading Route Handlers
// -----------------------------------------------------------------------------

// Outcomes travel as HTTP 200 with the success flag inside; only malformed
// requests earn a 4xx.
func (s *FastAPIServer) postNewOrder(c *gin.Context) {
	var intent models.MOrderIntent
	if err := c.ShouldBindJSON(&intent); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.FailValidation,
			fmt.Sprintf("Invalid request body: %v", err)))
		return
	}

	c.JSON(http.StatusOK, s.Engine.PlaceOrder(intent))
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) postRemoveOrder(c *gin.Context) {
	var req models.MRemoveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Ticket == 0 {
		c.JSON(http.StatusBadRequest, models.Fail(models.FailValidation,
			"Invalid request body: ticket is required"))
		return
	}

	c.JSON(http.StatusOK, s.Engine.RemoveOrder(req.Ticket))
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) postClosePosition(c *gin.Context) {
	var req models.MClosePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Ticket == 0 {
		c.JSON(http.StatusBadRequest, models.Fail(models.FailValidation,
			"Invalid request body: ticket is required"))
		return
	}

	c.JSON(http.StatusOK, s.Engine.ClosePosition(req.Ticket, req.Volume))
}

// -----------------------------------------------------------------------------

// postUpdateOrder takes the ticket as a query parameter and the field changes
// in the body.
func (s *FastAPIServer) postUpdateOrder(c *gin.Context) {
	ticket, err := strconv.ParseInt(c.Query("ticket"), 10, 64)
	if err != nil || ticket == 0 {
		c.JSON(http.StatusBadRequest, models.Fail(models.FailValidation,
			"Query parameter 'ticket' is required"))
		return
	}

	var update models.MOrderUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.FailValidation,
			fmt.Sprintf("Invalid request body: %v", err)))
		return
	}

	c.JSON(http.StatusOK, s.Engine.UpdateOrder(ticket, update))
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getOpenOrders(c *gin.Context) {
	symbol := strings.ToUpper(c.Query("symbol"))

	entries, out := s.Engine.OpenOrders(symbol)
	if !out.Success {
		c.JSON(http.StatusOK, out)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  entries,
		"count":   len(entries),
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getOpenPositions(c *gin.Context) {
	symbol := strings.ToUpper(c.Query("symbol"))

	entries, out := s.Engine.OpenPositions(symbol)
	if !out.Success {
		c.JSON(http.StatusOK, out)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"positions": entries,
		"count":     len(entries),
	})
}

// -----------------------------------------------------------------------------
// Diagnostics Route Handlers
// -----------------------------------------------------------------------------

func (s *FastAPIServer) getExecutions(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	records, err := s.Journal.RecentExecutions(limit)
	if err != nil {
		s.Logger.Error("Failed to read executions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "journal unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"executions": records,
		"count":      len(records),
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getHealth(c *gin.Context) {
	now := time.Now()

	marketOpen := false
	symbols := gin.H{}
	if s.Market != nil {
		marketOpen = s.Market.IsOpenNow(now)
		// Advisory per-symbol session state for whatever is being streamed.
		for _, sym := range s.Hub.ActiveSymbols() {
			symbols[sym] = s.Market.IsSymbolOpen(sym, now)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"mt5_connected": s.Conn.IsOpen(),
		"market_open":   marketOpen,
		"symbols_open":  symbols,
		"connections":   s.Hub.ClientCount(),
		"timestamp":     now.Unix(),
	})
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := NewClient(s.Hub, conn, uuid.NewString())

	s.Hub.register <- client

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}
