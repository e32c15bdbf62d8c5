package broadcaster

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"mt5-gateway/src/interfaces"
	"mt5-gateway/src/logger"
	"mt5-gateway/src/models"
	"mt5-gateway/src/server"
	"mt5-gateway/src/terminal"
)

// -----------------------------------------------------------------------------
// Broadcaster drives the periodic market data push. Every cycle it snapshots
// the hub, deduplicates the fetch work across clients, runs the fetches
// through a bounded worker pool (each fetch still serializes at the session
// guard), then assembles one payload per client under the per-stream diff
// policy. A closed terminal session skips the cycle entirely.
// -----------------------------------------------------------------------------

type Broadcaster struct {
	Conn   *terminal.Connection
	Hub    *server.Hub
	Logger *logger.Logger

	Interval time.Duration
	Workers  int

	stop chan struct{}
	once sync.Once
}

// candleJob is one deduplicated candle fetch for a cycle.
type candleJob struct {
	symbol string
	tfName string
	tfID   int
	count  int
}

// cycleData holds everything fetched during one cycle.
type cycleData struct {
	mu      sync.Mutex
	candles map[string][]models.MCandle
	ticks   map[string]*models.MTick
}

// -----------------------------------------------------------------------------

func NewBroadcaster(conn *terminal.Connection, hub *server.Hub, log *logger.Logger, intervalSeconds, workers int) *Broadcaster {
	if workers <= 0 {
		workers = 4
	}
	return &Broadcaster{
		Conn:     conn,
		Hub:      hub,
		Logger:   log,
		Interval: time.Duration(intervalSeconds) * time.Second,
		Workers:  workers,
		stop:     make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// Run loops until Stop is called.
func (b *Broadcaster) Run() {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	b.Logger.Info("Broadcaster started (interval=%s workers=%d)", b.Interval, b.Workers)

	for {
		select {
		case <-ticker.C:
			b.runCycle()
		case <-b.stop:
			b.Logger.Info("Broadcaster stopped")
			return
		}
	}
}

// -----------------------------------------------------------------------------

func (b *Broadcaster) Stop() {
	b.once.Do(func() { close(b.stop) })
}

// -----------------------------------------------------------------------------

func (b *Broadcaster) runCycle() {
	if !b.Conn.IsOpen() {
		return
	}

	clients := b.Hub.Snapshot()
	if len(clients) == 0 {
		return
	}

	jobs, tickSymbols := collectWork(clients)
	if len(jobs) == 0 && len(tickSymbols) == 0 {
		return
	}

	data := b.fetch(jobs, tickSymbols)

	for _, client := range clients {
		payload := assemblePayload(client, data)
		if len(payload) == 0 {
			continue
		}
		if !client.Push(payload) {
			b.Hub.Drop(client)
		}
	}
}

// -----------------------------------------------------------------------------

// collectWork walks all subscriptions and deduplicates the cycle's fetches.
func collectWork(clients []*server.Client) (map[string]candleJob, map[string]struct{}) {
	jobs := make(map[string]candleJob)
	tickSymbols := make(map[string]struct{})

	for _, client := range clients {
		for _, spec := range client.Subscription() {
			if spec.Live {
				tickSymbols[spec.Symbol] = struct{}{}
			}
			for _, tf := range spec.Timeframes {
				id, ok := models.TimeframeID(tf.Name)
				if !ok {
					continue
				}
				key := candleKey(spec.Symbol, tf.Name, tf.Count)
				jobs[key] = candleJob{
					symbol: spec.Symbol,
					tfName: tf.Name,
					tfID:   id,
					count:  tf.Count,
				}
			}
		}
	}
	return jobs, tickSymbols
}

// -----------------------------------------------------------------------------

// fetch runs the cycle's terminal reads through a bounded worker pool.
func (b *Broadcaster) fetch(jobs map[string]candleJob, tickSymbols map[string]struct{}) *cycleData {
	data := &cycleData{
		candles: make(map[string][]models.MCandle),
		ticks:   make(map[string]*models.MTick),
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, b.Workers)

	for key, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(key string, job candleJob) {
			defer wg.Done()
			defer func() { <-sem }()

			var candles []models.MCandle
			err := b.Conn.WithSession(func(t interfaces.ITerminal) error {
				var err error
				// Position 1 is the most recent closed bar; the forming bar
				// is never broadcast.
				candles, err = t.CopyRatesFromPos(job.symbol, job.tfID, 1, job.count)
				return err
			})
			if err != nil {
				b.Logger.Debug("Candle fetch failed for %s %s: %v", job.symbol, job.tfName, err)
				return
			}

			data.mu.Lock()
			data.candles[key] = candles
			data.mu.Unlock()
		}(key, job)
	}

	for symbol := range tickSymbols {
		wg.Add(1)
		sem <- struct{}{}
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			var tick *models.MTick
			err := b.Conn.WithSession(func(t interfaces.ITerminal) error {
				var err error
				tick, err = t.SymbolTick(symbol)
				return err
			})
			if err != nil {
				b.Logger.Debug("Tick fetch failed for %s: %v", symbol, err)
				return
			}

			data.mu.Lock()
			data.ticks[symbol] = tick
			data.mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return data
}

// -----------------------------------------------------------------------------

// assemblePayload builds one client's update from the cycle data. A candle
// stream carries its bars when the newest one is newer than the last bar the
// client saw, or unconditionally for always_send streams; otherwise the
// timeframe key carries an empty list as a no-new-data signal. Delivery state
// is updated as bars are included.
func assemblePayload(client *server.Client, data *cycleData) []map[string]interface{} {
	payload := make([]map[string]interface{}, 0)

	for _, spec := range client.Subscription() {
		timeframes := make(map[string][]models.MCandle)

		for _, tf := range spec.Timeframes {
			key := strings.ToLower(tf.Name)
			timeframes[key] = []models.MCandle{}

			candles, ok := data.candles[candleKey(spec.Symbol, tf.Name, tf.Count)]
			if !ok || len(candles) == 0 {
				continue
			}

			latest := candles[len(candles)-1].Time
			streamKey := StreamKey(spec.Symbol, tf.Name)
			if !tf.AlwaysSend && latest <= client.LastSentTime(streamKey) {
				continue
			}

			timeframes[key] = candles
			client.MarkSent(streamKey, latest)
		}

		entry := map[string]interface{}{
			"symbol":     spec.Symbol,
			"timeframes": timeframes,
		}
		if spec.Live {
			// A missing quote is still reported, as an explicit null.
			if tick, ok := data.ticks[spec.Symbol]; ok && tick != nil {
				entry["live"] = map[string]float64{"ask": tick.Ask, "bid": tick.Bid}
			} else {
				entry["live"] = nil
			}
		}

		payload = append(payload, entry)
	}

	return payload
}

// -----------------------------------------------------------------------------

// StreamKey identifies one symbol/timeframe delivery stream.
func StreamKey(symbol, tfName string) string {
	return symbol + "_" + strings.ToUpper(tfName)
}

// -----------------------------------------------------------------------------

func candleKey(symbol, tfName string, count int) string {
	return fmt.Sprintf("%s|%s|%d", symbol, strings.ToUpper(tfName), count)
}
