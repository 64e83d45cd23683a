package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/muse-dev/muse-market/internal/market"
	"github.com/muse-dev/muse-market/pkg/codec"
	"github.com/muse-dev/muse-market/pkg/sdk"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	addr := os.Getenv("MUSE_ADDR")
	if addr == "" {
		addr = "localhost:7101"
	}

	client, err := sdk.Connect(addr)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", addr, err)
	}
	defer client.Close()

	command := strings.ToUpper(os.Args[1])
	args := os.Args[2:]

	switch command {
	case "MINT":
		if len(args) < 1 {
			log.Fatal("Usage: muse MINT <params-json>")
		}
		var p market.MintParams
		if err := json.Unmarshal([]byte(args[0]), &p); err != nil {
			log.Fatalf("Invalid mint params: %v", err)
		}
		id, effects, err := client.MintNFT(caller(), p)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(map[string]any{"asset_id": id, "effects": effects})

	case "MINT_RWA":
		if len(args) < 1 {
			log.Fatal("Usage: muse MINT_RWA <params-json>")
		}
		var p market.RWAParams
		if err := json.Unmarshal([]byte(args[0]), &p); err != nil {
			log.Fatalf("Invalid mint params: %v", err)
		}
		id, effects, err := client.MintRWA(caller(), p)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(map[string]any{"asset_id": id, "effects": effects})

	case "BATCH":
		if len(args) < 2 {
			log.Fatal("Usage: muse BATCH <count> <params-json>")
		}
		count, err := strconv.Atoi(args[0])
		if err != nil {
			log.Fatalf("Invalid count: %v", err)
		}
		var p market.MintParams
		if err := json.Unmarshal([]byte(args[1]), &p); err != nil {
			log.Fatalf("Invalid mint params: %v", err)
		}
		ids, effects, err := client.MintBatch(caller(), count, p)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(map[string]any{"asset_ids": ids, "effects": effects})

	case "BUY":
		if len(args) < 2 {
			log.Fatal("Usage: muse BUY <assetID> <amount>")
		}
		from := caller()
		effects, breakdown, err := client.Buy(from, parseU64(args[0]), market.Payment{From: from, Amount: parseU64(args[1])})
		if err != nil {
			log.Fatal(err)
		}
		printJSON(map[string]any{"effects": effects, "breakdown": breakdown})

	case "BUYOUT":
		if len(args) < 2 {
			log.Fatal("Usage: muse BUYOUT <assetID> <amount>")
		}
		from := caller()
		effects, err := client.BuyOutRoyalty(from, parseU64(args[0]), market.Payment{From: from, Amount: parseU64(args[1])})
		if err != nil {
			log.Fatal(err)
		}
		printJSON(effects)

	case "RELIST":
		if len(args) < 2 {
			log.Fatal("Usage: muse RELIST <assetID> <price>")
		}
		if err := client.Relist(caller(), parseU64(args[0]), parseU64(args[1])); err != nil {
			log.Fatal(err)
		}
		fmt.Println("OK")

	case "SET_ROYALTY":
		if len(args) < 2 {
			log.Fatal("Usage: muse SET_ROYALTY <assetID> <bps>")
		}
		if err := client.UpdateRoyalty(caller(), parseU64(args[0]), parseU64(args[1])); err != nil {
			log.Fatal(err)
		}
		fmt.Println("OK")

	case "REGISTER":
		if len(args) < 2 {
			log.Fatal("Usage: muse REGISTER <assetID> <entries-json>")
		}
		var entries []market.SplitEntry
		if err := json.Unmarshal([]byte(args[1]), &entries); err != nil {
			log.Fatalf("Invalid split entries: %v", err)
		}
		if err := client.RegisterCoCreators(caller(), parseU64(args[0]), entries); err != nil {
			log.Fatal(err)
		}
		fmt.Println("OK")

	case "ACCEPT":
		if len(args) < 1 {
			log.Fatal("Usage: muse ACCEPT <assetID>")
		}
		slot, err := client.AcceptCollaboration(caller(), parseU64(args[0]))
		if err != nil {
			log.Fatal(err)
		}
		printJSON(map[string]any{"slot": slot})

	case "AUCTION":
		if len(args) < 2 {
			log.Fatal("Usage: muse AUCTION <assetID> <durationRounds> [reservePrice]")
		}
		var reserve uint64
		if len(args) > 2 {
			reserve = parseU64(args[2])
		}
		effects, err := client.StartAuction(caller(), parseU64(args[0]), parseU64(args[1]), reserve)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(effects)

	case "BID":
		if len(args) < 2 {
			log.Fatal("Usage: muse BID <assetID> <amount>")
		}
		from := caller()
		effects, err := client.PlaceBid(from, parseU64(args[0]), market.Payment{From: from, Amount: parseU64(args[1])})
		if err != nil {
			log.Fatal(err)
		}
		printJSON(effects)

	case "SETTLE":
		if len(args) < 1 {
			log.Fatal("Usage: muse SETTLE <assetID>")
		}
		effects, err := client.SettleAuction(parseU64(args[0]))
		if err != nil {
			log.Fatal(err)
		}
		printJSON(effects)

	case "VALIDATE":
		if len(args) < 1 {
			log.Fatal("Usage: muse VALIDATE <assetID>")
		}
		effects, err := client.ValidatePhysicalAsset(caller(), parseU64(args[0]))
		if err != nil {
			log.Fatal(err)
		}
		printJSON(effects)

	case "REDEEM":
		if len(args) < 1 {
			log.Fatal("Usage: muse REDEEM <assetID> [trackingMemo]")
		}
		memo := strings.Join(args[1:], " ")
		effects, err := client.RedeemPhysicalAsset(caller(), parseU64(args[0]), memo)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(effects)

	case "INFO":
		if len(args) < 1 {
			log.Fatal("Usage: muse INFO <assetID>")
		}
		rec, err := client.NFTInfo(parseU64(args[0]))
		if err != nil {
			log.Fatal(err)
		}
		printJSON(rec)

	case "ROYALTY":
		if len(args) < 1 {
			log.Fatal("Usage: muse ROYALTY <assetID>")
		}
		bps, err := client.CurrentRoyalty(parseU64(args[0]))
		if err != nil {
			log.Fatal(err)
		}
		printJSON(map[string]any{"royalty_bps": bps})

	case "AUCTION_INFO":
		if len(args) < 1 {
			log.Fatal("Usage: muse AUCTION_INFO <assetID>")
		}
		rec, err := client.AuctionInfo(parseU64(args[0]))
		if err != nil {
			log.Fatal(err)
		}
		printJSON(rec)

	case "SPLITS":
		if len(args) < 1 {
			log.Fatal("Usage: muse SPLITS <assetID>")
		}
		rec, err := client.SplitInfo(parseU64(args[0]))
		if err != nil {
			log.Fatal(err)
		}
		printJSON(rec)

	case "RWA":
		if len(args) < 1 {
			log.Fatal("Usage: muse RWA <assetID>")
		}
		rec, err := client.RWAInfo(parseU64(args[0]))
		if err != nil {
			log.Fatal(err)
		}
		printJSON(rec)

	case "PREVIEW":
		if len(args) < 2 {
			log.Fatal("Usage: muse PREVIEW <assetID> <price>")
		}
		breakdown, err := client.SplitPreview(parseU64(args[0]), parseU64(args[1]))
		if err != nil {
			log.Fatal(err)
		}
		printJSON(breakdown)

	case "STATS":
		stats, err := client.PlatformStats()
		if err != nil {
			log.Fatal(err)
		}
		printJSON(stats)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

// caller resolves the acting address from MUSE_CALLER.
func caller() codec.Address {
	a, err := codec.ParseAddress(os.Getenv("MUSE_CALLER"))
	if err != nil {
		log.Fatal("MUSE_CALLER must be set to a 64-char hex address for this command")
	}
	return a
}

func parseU64(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		log.Fatalf("Invalid number %q: %v", s, err)
	}
	return v
}

func printUsage() {
	fmt.Println("Muse CLI - Interface for the muse-market settlement engine")
	fmt.Println("\nUsage:")
	fmt.Println("  muse MINT <params-json>")
	fmt.Println("  muse MINT_RWA <params-json>")
	fmt.Println("  muse BATCH <count> <params-json>")
	fmt.Println("  muse BUY <assetID> <amount>")
	fmt.Println("  muse BUYOUT <assetID> <amount>")
	fmt.Println("  muse RELIST <assetID> <price>")
	fmt.Println("  muse SET_ROYALTY <assetID> <bps>")
	fmt.Println("  muse REGISTER <assetID> <entries-json>")
	fmt.Println("  muse ACCEPT <assetID>")
	fmt.Println("  muse AUCTION <assetID> <durationRounds> [reservePrice]")
	fmt.Println("  muse BID <assetID> <amount>")
	fmt.Println("  muse SETTLE <assetID>")
	fmt.Println("  muse VALIDATE <assetID>")
	fmt.Println("  muse REDEEM <assetID> [trackingMemo]")
	fmt.Println("  muse INFO | ROYALTY | AUCTION_INFO | SPLITS | RWA <assetID>")
	fmt.Println("  muse PREVIEW <assetID> <price>")
	fmt.Println("  muse STATS")
	fmt.Println("\nEnvironment Variables:")
	fmt.Println("  MUSE_ADDR         Address of the daemon (default: localhost:7101)")
	fmt.Println("  MUSE_CALLER       Hex address acting as the caller")
	fmt.Println("  MUSE_DISABLE_TLS  Set to true to disable TLS")
}

func printJSON(v any) {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(bytes))
}
