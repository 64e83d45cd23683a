package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/muse-dev/muse-market/internal/market"
	"github.com/muse-dev/muse-market/pkg/codec"
	"github.com/muse-dev/muse-market/pkg/store"
)

type testRounds struct{ n uint64 }

func (f *testRounds) Round() uint64 { return f.n }

func hexAddr(b byte) string {
	var a codec.Address
	a[0] = b
	return a.String()
}

func newTestRouter() (*Router, *testRounds) {
	rounds := &testRounds{n: 1000}
	var treasury codec.Address
	treasury[0] = 9
	m := market.New(store.NewMemStore(nil, nil), rounds, market.Config{Treasury: treasury}, zap.NewNop())
	return NewRouter(m), rounds
}

// startRouter spins the listener on an ephemeral port and waits for it
// to come up.
func startRouter(t *testing.T, router *Router) string {
	t.Helper()
	go router.Listen("0")

	var port string
	for i := 0; i < 10; i++ {
		time.Sleep(50 * time.Millisecond)
		router.mu.Lock()
		if router.listener != nil {
			port = fmt.Sprintf("%d", router.listener.Addr().(*net.TCPAddr).Port)
			router.mu.Unlock()
			break
		}
		router.mu.Unlock()
	}
	if port == "" {
		t.Fatalf("Server did not start in time")
	}
	return port
}

const mintJSON = `{"name":"Neon Dawn","unit_name":"MUSE","price":1000000,"royalty_bps":1000,"floor_bps":250}`

func TestRouter_TCP_Commands(t *testing.T) {
	router, _ := newTestRouter()
	port := startRouter(t, router)
	defer router.Stop()

	conn, err := net.Dial("tcp", "127.0.0.1:"+port)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	creator := hexAddr(1)
	buyer := hexAddr(2)

	// Test PING
	fmt.Fprintf(conn, "PING\n")
	line, _ := reader.ReadString('\n')
	if line != "PONG\n" {
		t.Errorf("Expected PONG, got %q", line)
	}

	// Test MINT
	fmt.Fprintf(conn, "MINT %s %s\n", creator, mintJSON)
	line, _ = reader.ReadString('\n')
	if !strings.HasPrefix(line, "OK ") || !strings.Contains(line, `"asset_id":1`) {
		t.Fatalf("Expected OK with asset_id 1, got %q", line)
	}

	// Test INFO
	fmt.Fprintf(conn, "INFO 1\n")
	line, _ = reader.ReadString('\n')
	if !strings.HasPrefix(line, "OK ") {
		t.Fatalf("Expected OK, got %q", line)
	}
	var info codec.AssetRecord
	if err := json.Unmarshal([]byte(line[3:]), &info); err != nil {
		t.Fatalf("Bad INFO payload: %v", err)
	}
	if info.Price != 1000000 || info.Creator.String() != creator {
		t.Errorf("Unexpected record: %+v", info)
	}

	// Test BUY
	fmt.Fprintf(conn, "BUY %s 1 1000000\n", buyer)
	line, _ = reader.ReadString('\n')
	if !strings.HasPrefix(line, "OK ") || !strings.Contains(line, `"seller_net":875000`) {
		t.Errorf("Expected OK with breakdown, got %q", line)
	}

	// Test BUY with the wrong amount
	fmt.Fprintf(conn, "BUY %s 1 42\n", buyer)
	line, _ = reader.ReadString('\n')
	if len(line) < 3 || line[:3] != "ERR" {
		t.Errorf("Expected ERR, got %q", line)
	}

	// Test INFO for a missing asset
	fmt.Fprintf(conn, "INFO 404\n")
	line, _ = reader.ReadString('\n')
	if len(line) < 3 || line[:3] != "ERR" {
		t.Errorf("Expected ERR, got %q", line)
	}
}

func TestRouter_AuctionLifecycle(t *testing.T) {
	router, rounds := newTestRouter()
	port := startRouter(t, router)
	defer router.Stop()

	conn, err := net.Dial("tcp", "127.0.0.1:"+port)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	creator := hexAddr(1)
	bidder := hexAddr(3)

	fmt.Fprintf(conn, "MINT %s %s\n", creator, mintJSON)
	reader.ReadString('\n')

	fmt.Fprintf(conn, "START_AUCTION %s 1 500 100\n", creator)
	line, _ := reader.ReadString('\n')
	if !strings.HasPrefix(line, "OK ") {
		t.Fatalf("START_AUCTION: got %q", line)
	}

	// Below reserve.
	fmt.Fprintf(conn, "BID %s 1 50\n", bidder)
	line, _ = reader.ReadString('\n')
	if !strings.HasPrefix(line, "ERR") {
		t.Errorf("Expected ERR for low bid, got %q", line)
	}

	fmt.Fprintf(conn, "BID %s 1 200\n", bidder)
	line, _ = reader.ReadString('\n')
	if !strings.HasPrefix(line, "OK") {
		t.Fatalf("BID: got %q", line)
	}

	fmt.Fprintf(conn, "AUCTION 1\n")
	line, _ = reader.ReadString('\n')
	if !strings.Contains(line, `"HighestBid":200`) {
		t.Errorf("Unexpected auction state: %q", line)
	}

	rounds.n = 2000
	fmt.Fprintf(conn, "SETTLE 1\n")
	line, _ = reader.ReadString('\n')
	if !strings.HasPrefix(line, "OK ") || !strings.Contains(line, `"transfer_asset"`) {
		t.Errorf("SETTLE: got %q", line)
	}

	fmt.Fprintf(conn, "STATS\n")
	line, _ = reader.ReadString('\n')
	if !strings.Contains(line, `"TotalVolume":200`) {
		t.Errorf("Unexpected stats: %q", line)
	}
}

func TestRouter_ConcurrentConnections(t *testing.T) {
	router, _ := newTestRouter()
	port := startRouter(t, router)
	defer router.Stop()

	// Try to open more connections than the semaphore allows; dials
	// must still succeed, excess connections just queue.
	conns := make([]net.Conn, 0)
	for i := 0; i < 110; i++ {
		conn, err := net.DialTimeout("tcp", "127.0.0.1:"+port, 100*time.Millisecond)
		if err == nil {
			conns = append(conns, conn)
		}
	}

	for _, c := range conns {
		c.Close()
	}
}

func TestRouter_MalformedCommands(t *testing.T) {
	router, _ := newTestRouter()
	port := startRouter(t, router)
	defer router.Stop()

	conn, _ := net.Dial("tcp", "127.0.0.1:"+port)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	// Too few arguments: silently skipped.
	fmt.Fprintf(conn, "BUY %s 1\n", hexAddr(2))

	// Bad caller address.
	fmt.Fprintf(conn, "MINT nothex {}\n")

	// Bad JSON.
	fmt.Fprintf(conn, "MINT %s {invalid}\n", hexAddr(1))

	// Flush with a valid command and check we get PONG eventually.
	fmt.Fprintf(conn, "PING\n")

	foundPong := false
	for i := 0; i < 4; i++ {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		if line == "PONG\n" {
			foundPong = true
			break
		}
	}
	if !foundPong {
		t.Error("Did not receive PONG")
	}
}

func TestRouter_Stop(t *testing.T) {
	router, _ := newTestRouter()
	port := startRouter(t, router)

	router.Stop()
	time.Sleep(100 * time.Millisecond)

	if _, err := net.DialTimeout("tcp", "127.0.0.1:"+port, 100*time.Millisecond); err == nil {
		t.Error("Expected dial to fail after Stop")
	}
}
