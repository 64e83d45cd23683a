// Package sdk is the client-side library for the Muse marketplace.
// It supports remote connections over TCP/TLS and a local embedded
// mode that runs the settlement engine in-process.
package sdk

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muse-dev/muse-market/internal/market"
	"github.com/muse-dev/muse-market/pkg/codec"
)

// Client is a remote marketplace client speaking the line protocol.
// It implements the Marketplace interface.
type Client struct {
	addr   string
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex // Protects concurrent access to the connection
}

// Connect establishes a TLS-encrypted connection to a remote muse
// daemon. If MUSE_DISABLE_TLS is set to "true", it falls back to
// plain TCP.
func Connect(addr string) (*Client, error) {
	c := &Client{addr: addr}
	if err := c.reconnect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) reconnect() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	var conn net.Conn
	var err error

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 60 * time.Second,
	}

	if os.Getenv("MUSE_DISABLE_TLS") == "true" {
		conn, err = dialer.Dial("tcp", c.addr)
	} else {
		config := &tls.Config{
			InsecureSkipVerify: true, // We use self-signed certs for internal traffic
		}
		conn, err = tls.DialWithDialer(dialer, "tcp", c.addr, config)
	}

	if err != nil {
		return err
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// sendAndReceive writes one command line and reads one response line,
// retrying with backoff across reconnects.
func (c *Client) sendAndReceive(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	var resp string

	for i := 0; i < 3; i++ {
		if c.conn == nil {
			if reconnectErr := c.reconnect(); reconnectErr != nil {
				err = fmt.Errorf("reconnect failed: %w", reconnectErr)
				time.Sleep(time.Duration(i*100) * time.Millisecond)
				continue
			}
		}

		c.conn.SetDeadline(time.Now().Add(30 * time.Second))

		_, err = fmt.Fprint(c.conn, cmd+"\n")
		if err == nil {
			resp, err = c.reader.ReadString('\n')
			if err == nil {
				resp = strings.TrimSpace(resp)
				if strings.HasPrefix(resp, "ERR") {
					return "", fmt.Errorf("%s", strings.TrimPrefix(resp, "ERR "))
				}
				return resp, nil
			}
		}

		fmt.Fprintf(os.Stderr, "[Muse SDK] Attempt %d failed: %v. Reconnecting...\n", i+1, err)

		if closeErr := c.reconnect(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "[Muse SDK] Reconnect attempt failed: %v\n", closeErr)
		}

		time.Sleep(time.Duration((i+1)*200) * time.Millisecond)
	}

	return "", fmt.Errorf("failed after 3 attempts. last error: %v", err)
}

// call sends a command and decodes the "OK <json>" payload into out.
func (c *Client) call(cmd string, out any) error {
	resp, err := c.sendAndReceive(cmd)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	payload := strings.TrimPrefix(resp, "OK ")
	if payload == "OK" {
		return nil
	}
	return json.Unmarshal([]byte(payload), out)
}

type effectsResult struct {
	Effects []market.Effect `json:"effects"`
}

func (c *Client) MintNFT(caller codec.Address, p market.MintParams) (uint64, []market.Effect, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return 0, nil, err
	}
	var out struct {
		AssetID uint64          `json:"asset_id"`
		Effects []market.Effect `json:"effects"`
	}
	if err := c.call(fmt.Sprintf("MINT %s %s", caller, body), &out); err != nil {
		return 0, nil, err
	}
	return out.AssetID, out.Effects, nil
}

func (c *Client) MintRWA(caller codec.Address, p market.RWAParams) (uint64, []market.Effect, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return 0, nil, err
	}
	var out struct {
		AssetID uint64          `json:"asset_id"`
		Effects []market.Effect `json:"effects"`
	}
	if err := c.call(fmt.Sprintf("MINT_RWA %s %s", caller, body), &out); err != nil {
		return 0, nil, err
	}
	return out.AssetID, out.Effects, nil
}

func (c *Client) MintBatch(caller codec.Address, count int, p market.MintParams) ([]uint64, []market.Effect, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	var out struct {
		AssetIDs []uint64        `json:"asset_ids"`
		Effects  []market.Effect `json:"effects"`
	}
	if err := c.call(fmt.Sprintf("MINT_BATCH %s %d %s", caller, count, body), &out); err != nil {
		return nil, nil, err
	}
	return out.AssetIDs, out.Effects, nil
}

func (c *Client) Buy(caller codec.Address, id uint64, payment market.Payment) ([]market.Effect, *market.Breakdown, error) {
	var out struct {
		Breakdown *market.Breakdown `json:"breakdown"`
		Effects   []market.Effect   `json:"effects"`
	}
	if err := c.call(fmt.Sprintf("BUY %s %d %d", caller, id, payment.Amount), &out); err != nil {
		return nil, nil, err
	}
	return out.Effects, out.Breakdown, nil
}

func (c *Client) BuyOutRoyalty(caller codec.Address, id uint64, payment market.Payment) ([]market.Effect, error) {
	var out effectsResult
	if err := c.call(fmt.Sprintf("BUYOUT %s %d %d", caller, id, payment.Amount), &out); err != nil {
		return nil, err
	}
	return out.Effects, nil
}

func (c *Client) Relist(caller codec.Address, id, price uint64) error {
	return c.call(fmt.Sprintf("RELIST %s %d %d", caller, id, price), nil)
}

func (c *Client) UpdateRoyalty(caller codec.Address, id, royaltyBPS uint64) error {
	return c.call(fmt.Sprintf("SET_ROYALTY %s %d %d", caller, id, royaltyBPS), nil)
}

func (c *Client) StartAuction(caller codec.Address, id, durationRounds, reservePrice uint64) ([]market.Effect, error) {
	var out effectsResult
	cmd := fmt.Sprintf("START_AUCTION %s %d %d %d", caller, id, durationRounds, reservePrice)
	if err := c.call(cmd, &out); err != nil {
		return nil, err
	}
	return out.Effects, nil
}

func (c *Client) PlaceBid(caller codec.Address, id uint64, payment market.Payment) ([]market.Effect, error) {
	var out effectsResult
	if err := c.call(fmt.Sprintf("BID %s %d %d", caller, id, payment.Amount), &out); err != nil {
		return nil, err
	}
	return out.Effects, nil
}

func (c *Client) SettleAuction(id uint64) ([]market.Effect, error) {
	var out effectsResult
	if err := c.call(fmt.Sprintf("SETTLE %d", id), &out); err != nil {
		return nil, err
	}
	return out.Effects, nil
}

func (c *Client) RegisterCoCreators(caller codec.Address, id uint64, entries []market.SplitEntry) error {
	body, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.call(fmt.Sprintf("REGISTER %s %d %s", caller, id, body), nil)
}

func (c *Client) AcceptCollaboration(caller codec.Address, id uint64) (int, error) {
	var out struct {
		Slot int `json:"slot"`
	}
	if err := c.call(fmt.Sprintf("ACCEPT %s %d", caller, id), &out); err != nil {
		return 0, err
	}
	return out.Slot, nil
}

func (c *Client) ValidatePhysicalAsset(caller codec.Address, id uint64) ([]market.Effect, error) {
	var out effectsResult
	if err := c.call(fmt.Sprintf("VALIDATE %s %d", caller, id), &out); err != nil {
		return nil, err
	}
	return out.Effects, nil
}

func (c *Client) RedeemPhysicalAsset(caller codec.Address, id uint64, trackingMemo string) ([]market.Effect, error) {
	var out effectsResult
	cmd := fmt.Sprintf("REDEEM %s %d %s", caller, id, trackingMemo)
	if err := c.call(strings.TrimSpace(cmd), &out); err != nil {
		return nil, err
	}
	return out.Effects, nil
}

func (c *Client) NFTInfo(id uint64) (*codec.AssetRecord, error) {
	var out codec.AssetRecord
	if err := c.call(fmt.Sprintf("INFO %d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CurrentRoyalty(id uint64) (uint64, error) {
	var out struct {
		RoyaltyBPS uint64 `json:"royalty_bps"`
	}
	if err := c.call(fmt.Sprintf("ROYALTY %d", id), &out); err != nil {
		return 0, err
	}
	return out.RoyaltyBPS, nil
}

func (c *Client) AuctionInfo(id uint64) (*codec.AuctionRecord, error) {
	var out codec.AuctionRecord
	if err := c.call(fmt.Sprintf("AUCTION %d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SplitInfo(id uint64) (*codec.SplitRecord, error) {
	var out codec.SplitRecord
	if err := c.call(fmt.Sprintf("SPLITS %d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RWAInfo(id uint64) (*codec.RWARecord, error) {
	var out codec.RWARecord
	if err := c.call(fmt.Sprintf("RWA %d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SplitPreview(id uint64, price uint64) (*market.Breakdown, error) {
	var out market.Breakdown
	if err := c.call(fmt.Sprintf("PREVIEW %d %d", id, price), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PlatformStats() (*codec.StatsRecord, error) {
	var out codec.StatsRecord
	if err := c.call("STATS", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Close() error {
	fmt.Fprintln(c.conn, "QUIT")
	return c.conn.Close()
}
