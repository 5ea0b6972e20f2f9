// favwatch tails the favorite-event stream from the API server, over
// WebSocket by default or raw TCP with -tcp.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"imovelmap/pkg/utils"
)

type AnyEvent map[string]any

func main() {
	cfg := utils.LoadClientConfig()
	wsURL := flag.String("ws", cfg.PushWSURL, "WebSocket push endpoint")
	tcpAddr := flag.String("tcp", "", "raw TCP push address (overrides -ws)")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	flag.Parse()

	for {
		var err error
		if *tcpAddr != "" {
			err = runTCP(*tcpAddr, *pretty)
		} else {
			err = runWS(*wsURL, *pretty)
		}
		log.Printf("[favwatch] disconnected: %v", err)
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func runWS(url string, pretty bool) error {
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer ws.Close()

	log.Printf("[favwatch] connected to %s", url)

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		print(msg, pretty)
	}
}

func runTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[favwatch] connected to %s", addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		print(sc.Bytes(), pretty)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func print(line []byte, pretty bool) {
	if !pretty {
		fmt.Println(string(line))
		return
	}

	var obj AnyEvent
	if err := json.Unmarshal(line, &obj); err != nil {
		// not JSON? print raw
		fmt.Println(string(line))
		return
	}

	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Println(string(b))
}
