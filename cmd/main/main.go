package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mt5-gateway/src/broadcaster"
	"mt5-gateway/src/config"
	"mt5-gateway/src/engine"
	"mt5-gateway/src/interfaces"
	"mt5-gateway/src/logger"
	"mt5-gateway/src/server"
	"mt5-gateway/src/storage"
	"mt5-gateway/src/terminal"
	"mt5-gateway/src/terminal/bridge"
	"mt5-gateway/src/terminal/sim"
	"mt5-gateway/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	useLive := flag.Bool("live", false, "use the live account instead of demo")
	flag.Parse()

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(config.MConfig, config.Name)

	// 2. Setup Journal
	journal, err := storage.NewJournal(config, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init journal: %v", err)
	}
	if err := journal.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate journal: %v", err)
	}

	// 3. Terminal session
	var impl interfaces.ITerminal
	if config.Terminal.UseSim {
		appLogger.Warning("Using simulated terminal, no real trades will be placed")
		impl = sim.NewTerminal()
	} else {
		impl = bridge.NewTerminal(config.Terminal.BridgeAddr)
	}

	conn := terminal.NewConnection(&config.Terminal, impl, appLogger)

	account, err := config.Account(*useLive)
	if err != nil {
		appLogger.Critical("No usable account: %v", err)
	}
	if err := conn.Open(account); err != nil {
		appLogger.Critical("Failed to open terminal session: %v", err)
	}

	// 4. Engine, hub and server
	eng := engine.NewEngine(conn, journal, appLogger, account.Magic)
	hub := server.NewHub(appLogger)
	market := utils.NewMarketHours()
	srv := server.NewFastAPIServer(config, appLogger, eng, conn, hub, journal, market)

	// 5. Market data broadcaster
	bc := broadcaster.NewBroadcaster(conn, hub, appLogger, config.WS.IntervalSeconds, config.WS.FetchWorkers)
	go bc.Run()

	// 6. Periodic journal cleanup
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := journal.CleanupOldData(); err != nil {
				appLogger.Warning("Journal cleanup failed: %v", err)
			}
		}
	}()

	// 7. Start Server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	bc.Stop()
	conn.Close()
	if err := journal.Close(); err != nil {
		appLogger.Warning("Journal close failed: %v", err)
	}
}
