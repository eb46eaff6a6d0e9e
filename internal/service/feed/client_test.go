package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"OptionPulse/internal/domain/models"
)

var upgrader = websocket.Upgrader{}

// wsServer upgrades one connection, records the subscribe frame, and plays
// back the given raw frames.
func wsServer(t *testing.T, frames []string, gotSub chan<- string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, sub, err := conn.ReadMessage()
		if err != nil {
			return
		}
		gotSub <- string(sub)

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// hold the connection open until the client closes it
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientStreamsTrades(t *testing.T) {
	frames := []string{
		`{"type":"ping"}`,
		`not json at all`,
		`{"type":"trade","data":[{"s":"BINANCE:BTCUSDT","p":100000.5,"v":0.02,"t":1720000000000}]}`,
		`{"type":"trade","data":[{"s":"BINANCE:ETHUSDT","p":3500,"v":1,"t":1720000000500},{"s":"BINANCE:BTCUSDT","p":0,"v":1,"t":1720000000500},{"s":"BINANCE:BTCUSDT","p":100001,"v":0.01,"t":1720000001000}]}`,
	}
	gotSub := make(chan string, 1)
	srv := wsServer(t, frames, gotSub)
	defer srv.Close()

	c := New(wsURL(srv), "", "BINANCE:BTCUSDT", time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()
	if !c.IsConnected() {
		t.Fatal("expected connected")
	}
	if err := c.Subscribe(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	var sub map[string]string
	select {
	case raw := <-gotSub:
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			t.Fatalf("subscribe frame: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("no subscribe frame")
	}
	if sub["type"] != "subscribe" || sub["symbol"] != "BINANCE:BTCUSDT" {
		t.Fatalf("subscribe frame = %v", sub)
	}

	ticks, _ := c.Read(ctx)

	first := recvTick(t, ticks)
	if first.Price != 100000.5 || first.Symbol != "BINANCE:BTCUSDT" {
		t.Fatalf("first tick = %+v", first)
	}
	if first.At.UnixMilli() != 1720000000000 {
		t.Fatalf("first tick time = %v", first.At)
	}

	// Foreign symbols and zero prices were filtered out.
	second := recvTick(t, ticks)
	if second.Price != 100001 {
		t.Fatalf("second tick price = %v, want 100001", second.Price)
	}
}

func TestClientReadErrorOnClose(t *testing.T) {
	gotSub := make(chan string, 1)
	srv := wsServer(t, nil, gotSub)
	defer srv.Close()

	c := New(wsURL(srv), "", "BINANCE:BTCUSDT", time.Minute)
	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.Subscribe(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	<-gotSub

	_, errs := c.Read(ctx)
	_ = c.Close()

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("expected read error after close")
		}
	case <-time.After(time.Second):
		t.Fatal("no error after close")
	}
	if c.IsConnected() {
		t.Fatal("closed client reports connected")
	}
}

func TestClientSubscribeRequiresConnection(t *testing.T) {
	c := New("ws://localhost:1", "", "BINANCE:BTCUSDT", time.Minute)
	if err := c.Subscribe(context.Background()); err == nil {
		t.Fatal("expected error without connection")
	}
}

func recvTick(t *testing.T, ticks <-chan *models.Tick) *models.Tick {
	t.Helper()
	select {
	case tick := <-ticks:
		if tick == nil {
			t.Fatal("nil tick")
		}
		return tick
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tick")
		return nil
	}
}
