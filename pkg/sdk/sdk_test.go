package sdk_test

import (
	"fmt"
	"net"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/muse-dev/muse-market/internal/market"
	"github.com/muse-dev/muse-market/internal/server"
	"github.com/muse-dev/muse-market/pkg/codec"
	"github.com/muse-dev/muse-market/pkg/sdk"
	"github.com/muse-dev/muse-market/pkg/store"
)

func hexAddr(b byte) codec.Address {
	var a codec.Address
	a[0] = b
	return a
}

// startServer runs a router over an ephemeral listener, bypassing the
// accept loop so the test controls the lifecycle.
func startServer(t *testing.T) (string, *market.Market) {
	t.Helper()
	m := market.New(store.NewMemStore(nil, nil), market.RoundFunc(func() uint64 { return 1000 }),
		market.Config{Treasury: hexAddr(9)}, zap.NewNop())
	router := server.NewRouter(m)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go router.HandleConnection(conn)
		}
	}()

	return fmt.Sprintf("127.0.0.1:%d", listener.Addr().(*net.TCPAddr).Port), m
}

func mintParams() market.MintParams {
	return market.MintParams{
		Name:       "Neon Dawn",
		UnitName:   "MUSE",
		Price:      1_000_000,
		RoyaltyBPS: 1000,
		FloorBPS:   250,
	}
}

func TestClient_Integration(t *testing.T) {
	addr, _ := startServer(t)

	os.Setenv("MUSE_DISABLE_TLS", "true")
	defer os.Unsetenv("MUSE_DISABLE_TLS")

	client, err := sdk.Connect(addr)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	creator := hexAddr(1)
	buyer := hexAddr(2)

	id, effects, err := client.MintNFT(creator, mintParams())
	if err != nil {
		t.Fatalf("MintNFT failed: %v", err)
	}
	if id != 1 {
		t.Errorf("Expected asset 1, got %d", id)
	}
	if len(effects) != 1 || effects[0].Kind != market.EffectCreateAsset {
		t.Errorf("Unexpected effects: %v", effects)
	}

	info, err := client.NFTInfo(id)
	if err != nil {
		t.Fatalf("NFTInfo failed: %v", err)
	}
	if info.Creator != creator || info.Price != 1_000_000 {
		t.Errorf("Unexpected record: %+v", info)
	}

	fx, bd, err := client.Buy(buyer, id, market.Payment{From: buyer, Amount: 1_000_000})
	if err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	if bd.SellerNet != 875_000 {
		t.Errorf("Expected net 875000, got %d", bd.SellerNet)
	}
	if fx[len(fx)-1].To != buyer {
		t.Errorf("Token should go to buyer")
	}

	// Error responses surface as plain errors.
	if _, _, err := client.Buy(buyer, 404, market.Payment{From: buyer, Amount: 1}); err == nil {
		t.Error("Buy of unknown asset should fail")
	}

	stats, err := client.PlatformStats()
	if err != nil {
		t.Fatalf("PlatformStats failed: %v", err)
	}
	if stats.TotalVolume != 1_000_000 {
		t.Errorf("Unexpected volume: %d", stats.TotalVolume)
	}
}

func TestClient_CollaborationAndRoyalty(t *testing.T) {
	addr, _ := startServer(t)

	os.Setenv("MUSE_DISABLE_TLS", "true")
	defer os.Unsetenv("MUSE_DISABLE_TLS")

	client, err := sdk.Connect(addr)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	creator := hexAddr(1)
	partner := hexAddr(3)

	id, _, err := client.MintNFT(creator, mintParams())
	if err != nil {
		t.Fatalf("MintNFT failed: %v", err)
	}

	err = client.RegisterCoCreators(creator, id, []market.SplitEntry{
		{Address: partner, ShareBPS: 4000},
	})
	if err != nil {
		t.Fatalf("RegisterCoCreators failed: %v", err)
	}

	slot, err := client.AcceptCollaboration(partner, id)
	if err != nil || slot != 1 {
		t.Fatalf("AcceptCollaboration: slot=%d err=%v", slot, err)
	}

	split, err := client.SplitInfo(id)
	if err != nil {
		t.Fatalf("SplitInfo failed: %v", err)
	}
	if !split.Slots[0].Accepted || split.Slots[0].Address != partner {
		t.Errorf("Unexpected split: %+v", split.Slots[0])
	}

	bd, err := client.SplitPreview(id, 1_000_000)
	if err != nil {
		t.Fatalf("SplitPreview failed: %v", err)
	}
	if bd.Shares[0] != 40_000 {
		t.Errorf("Expected share 40000, got %d", bd.Shares[0])
	}

	bps, err := client.CurrentRoyalty(id)
	if err != nil || bps != 1000 {
		t.Errorf("CurrentRoyalty: bps=%d err=%v", bps, err)
	}
}

func TestEmbedded_Open(t *testing.T) {
	dir := t.TempDir()
	os.Unsetenv("MUSE_ADDR")
	os.Setenv("MUSE_TREASURY", hexAddr(9).String())
	defer os.Unsetenv("MUSE_TREASURY")

	mk, err := sdk.Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer mk.Close()

	creator := hexAddr(1)
	id, _, err := mk.MintNFT(creator, mintParams())
	if err != nil {
		t.Fatalf("MintNFT failed: %v", err)
	}

	info, err := mk.NFTInfo(id)
	if err != nil || info.Creator != creator {
		t.Fatalf("NFTInfo: %+v err=%v", info, err)
	}
}

func TestEmbedded_RequiresTreasury(t *testing.T) {
	os.Unsetenv("MUSE_ADDR")
	os.Unsetenv("MUSE_TREASURY")

	if _, err := sdk.Open(t.TempDir()); err == nil {
		t.Error("Open without MUSE_TREASURY should fail")
	}
}

func TestClient_RetryLogic(t *testing.T) {
	addr, _ := startServer(t)

	os.Setenv("MUSE_DISABLE_TLS", "true")
	defer os.Unsetenv("MUSE_DISABLE_TLS")

	client, err := sdk.Connect(addr)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	// The cleanup closes the listener; commands after that must error
	// out after the retry loop rather than panic.
	client.Close()
	if _, err := client.PlatformStats(); err == nil {
		// A racing in-flight connection may still answer; either way,
		// we only assert that the client survives.
		t.Log("stats succeeded on a lingering connection")
	}
}
