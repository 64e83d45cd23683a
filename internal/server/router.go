// Package server exposes the marketplace over a line-based TCP
// protocol for low-overhead settlement clients. Each command is a
// single line: the verb, the caller address where one is required,
// then the arguments. Responses are "OK <json>" or "ERR <message>".
package server

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/muse-dev/muse-market/internal/market"
	"github.com/muse-dev/muse-market/pkg/codec"
)

type Router struct {
	market *market.Market
	cert   *tls.Certificate

	mu       sync.Mutex
	listener net.Listener
}

func NewRouter(m *market.Market) *Router {
	return &Router{market: m}
}

// SetCertificate enables TLS on the listener.
func (r *Router) SetCertificate(cert tls.Certificate) {
	r.cert = &cert
}

// Listen starts the TCP server. Pass "0" to bind an ephemeral port.
func (r *Router) Listen(port string) error {
	var listener net.Listener
	var err error

	if r.cert != nil {
		config := &tls.Config{Certificates: []tls.Certificate{*r.cert}}
		listener, err = tls.Listen("tcp", ":"+port, config)
	} else {
		listener, err = net.Listen("tcp", ":"+port)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.listener = listener
	r.mu.Unlock()
	defer listener.Close()

	semaphore := make(chan struct{}, 100) // Max 100 concurrent connections

	for {
		conn, err := listener.Accept()
		if err != nil {
			r.mu.Lock()
			stopped := r.listener == nil
			r.mu.Unlock()
			if stopped {
				return nil
			}
			continue
		}

		conn.SetDeadline(time.Now().Add(5 * time.Minute))

		go func(c net.Conn) {
			semaphore <- struct{}{}
			defer func() {
				<-semaphore
				c.Close()
			}()
			r.HandleConnection(c)
		}(conn)
	}
}

// Stop closes the listener; Listen returns after the close.
func (r *Router) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener != nil {
		r.listener.Close()
		r.listener = nil
	}
}

func ok(conn net.Conn, v any) {
	res, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(conn, "ERR internal error")
		return
	}
	fmt.Fprintln(conn, "OK", string(res))
}

func okOrErr(conn net.Conn, v any, err error) {
	if err != nil {
		fmt.Fprintln(conn, "ERR", err)
		return
	}
	ok(conn, v)
}

func parseAddr(s string) (codec.Address, error) {
	return codec.ParseAddress(s)
}

func parseU64(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// HandleConnection serves one client connection. Exposed so embedding
// callers and tests can drive a connection without the accept loop.
func (r *Router) HandleConnection(conn net.Conn) {
	reader := bufio.NewReader(conn)

	for {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		line, err := reader.ReadString('\n')
		if err != nil {
			return // Connection closed or timeout
		}

		line = strings.TrimSpace(line)
		parts := strings.Fields(line)
		if len(parts) < 1 {
			continue
		}

		command := strings.ToUpper(parts[0])

		switch command {
		case "MINT":
			// MINT <caller> <json params>
			if len(parts) < 3 {
				continue
			}
			from, err := parseAddr(parts[1])
			if err != nil {
				fmt.Fprintln(conn, "ERR invalid caller address")
				continue
			}
			var p market.MintParams
			if err := json.Unmarshal([]byte(strings.Join(parts[2:], " ")), &p); err != nil {
				fmt.Fprintln(conn, "ERR invalid json params")
				continue
			}
			id, effects, err := r.market.MintNFT(from, p)
			okOrErr(conn, map[string]any{"asset_id": id, "effects": effects}, err)

		case "MINT_RWA":
			// MINT_RWA <caller> <json params>
			if len(parts) < 3 {
				continue
			}
			from, err := parseAddr(parts[1])
			if err != nil {
				fmt.Fprintln(conn, "ERR invalid caller address")
				continue
			}
			var p market.RWAParams
			if err := json.Unmarshal([]byte(strings.Join(parts[2:], " ")), &p); err != nil {
				fmt.Fprintln(conn, "ERR invalid json params")
				continue
			}
			id, effects, err := r.market.MintRWA(from, p)
			okOrErr(conn, map[string]any{"asset_id": id, "effects": effects}, err)

		case "MINT_BATCH":
			// MINT_BATCH <caller> <count> <json params>
			if len(parts) < 4 {
				continue
			}
			from, err := parseAddr(parts[1])
			if err != nil {
				fmt.Fprintln(conn, "ERR invalid caller address")
				continue
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil {
				fmt.Fprintln(conn, "ERR invalid count")
				continue
			}
			var p market.MintParams
			if err := json.Unmarshal([]byte(strings.Join(parts[3:], " ")), &p); err != nil {
				fmt.Fprintln(conn, "ERR invalid json params")
				continue
			}
			ids, effects, err := r.market.MintBatch(from, count, p)
			okOrErr(conn, map[string]any{"asset_ids": ids, "effects": effects}, err)

		case "BUY":
			// BUY <caller> <asset_id> <amount>
			if len(parts) < 4 {
				continue
			}
			from, err1 := parseAddr(parts[1])
			id, err2 := parseU64(parts[2])
			amount, err3 := parseU64(parts[3])
			if err1 != nil || err2 != nil || err3 != nil {
				fmt.Fprintln(conn, "ERR invalid arguments")
				continue
			}
			effects, bd, err := r.market.Buy(from, id, market.Payment{From: from, Amount: amount})
			okOrErr(conn, map[string]any{"breakdown": bd, "effects": effects}, err)

		case "BUYOUT":
			// BUYOUT <caller> <asset_id> <amount>
			if len(parts) < 4 {
				continue
			}
			from, err1 := parseAddr(parts[1])
			id, err2 := parseU64(parts[2])
			amount, err3 := parseU64(parts[3])
			if err1 != nil || err2 != nil || err3 != nil {
				fmt.Fprintln(conn, "ERR invalid arguments")
				continue
			}
			effects, err := r.market.BuyOutRoyalty(from, id, market.Payment{From: from, Amount: amount})
			okOrErr(conn, map[string]any{"effects": effects}, err)

		case "RELIST":
			// RELIST <caller> <asset_id> <price>
			if len(parts) < 4 {
				continue
			}
			from, err1 := parseAddr(parts[1])
			id, err2 := parseU64(parts[2])
			price, err3 := parseU64(parts[3])
			if err1 != nil || err2 != nil || err3 != nil {
				fmt.Fprintln(conn, "ERR invalid arguments")
				continue
			}
			if err := r.market.Relist(from, id, price); err != nil {
				fmt.Fprintln(conn, "ERR", err)
			} else {
				fmt.Fprintln(conn, "OK")
			}

		case "SET_ROYALTY":
			// SET_ROYALTY <caller> <asset_id> <bps>
			if len(parts) < 4 {
				continue
			}
			from, err1 := parseAddr(parts[1])
			id, err2 := parseU64(parts[2])
			bps, err3 := parseU64(parts[3])
			if err1 != nil || err2 != nil || err3 != nil {
				fmt.Fprintln(conn, "ERR invalid arguments")
				continue
			}
			if err := r.market.UpdateRoyalty(from, id, bps); err != nil {
				fmt.Fprintln(conn, "ERR", err)
			} else {
				fmt.Fprintln(conn, "OK")
			}

		case "REGISTER":
			// REGISTER <caller> <asset_id> <json entries>
			if len(parts) < 4 {
				continue
			}
			from, err1 := parseAddr(parts[1])
			id, err2 := parseU64(parts[2])
			if err1 != nil || err2 != nil {
				fmt.Fprintln(conn, "ERR invalid arguments")
				continue
			}
			var entries []market.SplitEntry
			if err := json.Unmarshal([]byte(strings.Join(parts[3:], " ")), &entries); err != nil {
				fmt.Fprintln(conn, "ERR invalid json entries")
				continue
			}
			if err := r.market.RegisterCoCreators(from, id, entries); err != nil {
				fmt.Fprintln(conn, "ERR", err)
			} else {
				fmt.Fprintln(conn, "OK")
			}

		case "ACCEPT":
			// ACCEPT <caller> <asset_id>
			if len(parts) < 3 {
				continue
			}
			from, err1 := parseAddr(parts[1])
			id, err2 := parseU64(parts[2])
			if err1 != nil || err2 != nil {
				fmt.Fprintln(conn, "ERR invalid arguments")
				continue
			}
			slot, err := r.market.AcceptCollaboration(from, id)
			okOrErr(conn, map[string]any{"slot": slot}, err)

		case "START_AUCTION":
			// START_AUCTION <caller> <asset_id> <duration_rounds> <reserve>
			if len(parts) < 5 {
				continue
			}
			from, err1 := parseAddr(parts[1])
			id, err2 := parseU64(parts[2])
			duration, err3 := parseU64(parts[3])
			reserve, err4 := parseU64(parts[4])
			if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
				fmt.Fprintln(conn, "ERR invalid arguments")
				continue
			}
			effects, err := r.market.StartAuction(from, id, duration, reserve)
			okOrErr(conn, map[string]any{"effects": effects}, err)

		case "BID":
			// BID <caller> <asset_id> <amount>
			if len(parts) < 4 {
				continue
			}
			from, err1 := parseAddr(parts[1])
			id, err2 := parseU64(parts[2])
			amount, err3 := parseU64(parts[3])
			if err1 != nil || err2 != nil || err3 != nil {
				fmt.Fprintln(conn, "ERR invalid arguments")
				continue
			}
			effects, err := r.market.PlaceBid(from, id, market.Payment{From: from, Amount: amount})
			okOrErr(conn, map[string]any{"effects": effects}, err)

		case "SETTLE":
			// SETTLE <asset_id>
			if len(parts) < 2 {
				continue
			}
			id, err := parseU64(parts[1])
			if err != nil {
				fmt.Fprintln(conn, "ERR invalid asset id")
				continue
			}
			effects, err := r.market.SettleAuction(id)
			okOrErr(conn, map[string]any{"effects": effects}, err)

		case "VALIDATE":
			// VALIDATE <caller> <asset_id>
			if len(parts) < 3 {
				continue
			}
			from, err1 := parseAddr(parts[1])
			id, err2 := parseU64(parts[2])
			if err1 != nil || err2 != nil {
				fmt.Fprintln(conn, "ERR invalid arguments")
				continue
			}
			effects, err := r.market.ValidatePhysicalAsset(from, id)
			okOrErr(conn, map[string]any{"effects": effects}, err)

		case "REDEEM":
			// REDEEM <caller> <asset_id> <memo...>
			if len(parts) < 3 {
				continue
			}
			from, err1 := parseAddr(parts[1])
			id, err2 := parseU64(parts[2])
			if err1 != nil || err2 != nil {
				fmt.Fprintln(conn, "ERR invalid arguments")
				continue
			}
			memo := ""
			if len(parts) > 3 {
				memo = strings.Join(parts[3:], " ")
			}
			effects, err := r.market.RedeemPhysicalAsset(from, id, memo)
			okOrErr(conn, map[string]any{"effects": effects}, err)

		case "INFO":
			// INFO <asset_id>
			if len(parts) < 2 {
				continue
			}
			id, err := parseU64(parts[1])
			if err != nil {
				fmt.Fprintln(conn, "ERR invalid asset id")
				continue
			}
			a, err := r.market.NFTInfo(id)
			okOrErr(conn, a, err)

		case "ROYALTY":
			// ROYALTY <asset_id>
			if len(parts) < 2 {
				continue
			}
			id, err := parseU64(parts[1])
			if err != nil {
				fmt.Fprintln(conn, "ERR invalid asset id")
				continue
			}
			bps, err := r.market.CurrentRoyalty(id)
			okOrErr(conn, map[string]any{"asset_id": id, "royalty_bps": bps}, err)

		case "AUCTION":
			// AUCTION <asset_id>
			if len(parts) < 2 {
				continue
			}
			id, err := parseU64(parts[1])
			if err != nil {
				fmt.Fprintln(conn, "ERR invalid asset id")
				continue
			}
			auc, err := r.market.AuctionInfo(id)
			okOrErr(conn, auc, err)

		case "SPLITS":
			// SPLITS <asset_id>
			if len(parts) < 2 {
				continue
			}
			id, err := parseU64(parts[1])
			if err != nil {
				fmt.Fprintln(conn, "ERR invalid asset id")
				continue
			}
			split, err := r.market.SplitInfo(id)
			okOrErr(conn, split, err)

		case "RWA":
			// RWA <asset_id>
			if len(parts) < 2 {
				continue
			}
			id, err := parseU64(parts[1])
			if err != nil {
				fmt.Fprintln(conn, "ERR invalid asset id")
				continue
			}
			rwa, err := r.market.RWAInfo(id)
			okOrErr(conn, rwa, err)

		case "PREVIEW":
			// PREVIEW <asset_id> <price>
			if len(parts) < 3 {
				continue
			}
			id, err1 := parseU64(parts[1])
			price, err2 := parseU64(parts[2])
			if err1 != nil || err2 != nil {
				fmt.Fprintln(conn, "ERR invalid arguments")
				continue
			}
			bd, err := r.market.SplitPreview(id, price)
			okOrErr(conn, bd, err)

		case "STATS":
			stats, err := r.market.PlatformStats()
			okOrErr(conn, stats, err)

		case "PING":
			fmt.Fprintln(conn, "PONG")

		case "QUIT":
			return
		}
	}
}
