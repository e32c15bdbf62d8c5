package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

// -----------------------------------------------------------------------------
// probe is a smoke client for a running gateway: it walks the REST surface
// with a small order lifecycle and then listens on the market data stream for
// a few payloads. Intended for the simulated terminal; pointing it at a live
// account will trade.
// -----------------------------------------------------------------------------

func main() {
	host := flag.String("host", "127.0.0.1:8000", "gateway host:port")
	symbol := flag.String("symbol", "EURUSD", "symbol to exercise")
	cycles := flag.Int("cycles", 3, "websocket payloads to wait for")
	flag.Parse()

	base := fmt.Sprintf("http://%s/api/v1", *host)

	fmt.Println("--- health ---")
	body := get(base + "/health")
	fmt.Println(body)
	if gjson.Get(body, "mt5_connected").Bool() != true {
		fmt.Println("terminal not connected, aborting")
		os.Exit(1)
	}

	fmt.Println("--- place market order ---")
	body = post(base+"/orders/new", fmt.Sprintf(
		`{"symbol":"%s","volume":0.1,"order_type":"BUY","comment":"probe"}`, *symbol))
	fmt.Println(body)
	if !gjson.Get(body, "success").Bool() {
		fmt.Println("order placement failed")
		os.Exit(1)
	}
	ticket := gjson.Get(body, "ticket").Int()

	fmt.Println("--- open positions ---")
	fmt.Println(get(base + "/positions/open?symbol=" + *symbol))

	fmt.Println("--- close position ---")
	fmt.Println(post(base+"/positions/close", fmt.Sprintf(`{"ticket":%d}`, ticket)))

	fmt.Println("--- place + remove pending order ---")
	body = post(base+"/orders/new", fmt.Sprintf(
		`{"symbol":"%s","volume":0.1,"order_type":"BUY_LIMIT","price":0.5}`, *symbol))
	fmt.Println(body)
	if gjson.Get(body, "success").Bool() {
		pending := gjson.Get(body, "ticket").Int()
		fmt.Println(post(base+"/orders/remove", fmt.Sprintf(`{"ticket":%d}`, pending)))
	}

	fmt.Println("--- executions ---")
	fmt.Println(get(base + "/executions?limit=5"))

	fmt.Println("--- websocket stream ---")
	ws, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws", *host), nil)
	if err != nil {
		fmt.Printf("websocket dial failed: %v\n", err)
		os.Exit(1)
	}
	defer ws.Close()

	sub := fmt.Sprintf(`[{"symbol":"%s","live":true,"timeframes":[{"name":"m1","count":3}]}]`, *symbol)
	if err := ws.WriteMessage(websocket.TextMessage, []byte(sub)); err != nil {
		fmt.Printf("subscribe failed: %v\n", err)
		os.Exit(1)
	}

	ws.SetReadDeadline(time.Now().Add(time.Minute))
	for i := 0; i <= *cycles; i++ {
		_, message, err := ws.ReadMessage()
		if err != nil {
			fmt.Printf("read failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(message))
	}

	fmt.Println("probe completed")
}

// -----------------------------------------------------------------------------

func get(url string) string {
	resp, err := http.Get(url)
	if err != nil {
		fmt.Printf("GET %s failed: %v\n", url, err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return string(data)
}

// -----------------------------------------------------------------------------

func post(url, payload string) string {
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(payload))
	if err != nil {
		fmt.Printf("POST %s failed: %v\n", url, err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return string(data)
}
