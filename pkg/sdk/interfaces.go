package sdk

import (
	"github.com/muse-dev/muse-market/internal/market"
	"github.com/muse-dev/muse-market/pkg/codec"
)

// --- Functional Interfaces (Interface Segregation) ---

// Minter creates new assets.
type Minter interface {
	MintNFT(caller codec.Address, p market.MintParams) (uint64, []market.Effect, error)
	MintRWA(caller codec.Address, p market.RWAParams) (uint64, []market.Effect, error)
	MintBatch(caller codec.Address, count int, p market.MintParams) ([]uint64, []market.Effect, error)
}

// Trader covers fixed-price sales and listing management.
type Trader interface {
	Buy(caller codec.Address, id uint64, payment market.Payment) ([]market.Effect, *market.Breakdown, error)
	BuyOutRoyalty(caller codec.Address, id uint64, payment market.Payment) ([]market.Effect, error)
	Relist(caller codec.Address, id, price uint64) error
	UpdateRoyalty(caller codec.Address, id, royaltyBPS uint64) error
}

// Auctioneer runs English auctions.
type Auctioneer interface {
	StartAuction(caller codec.Address, id, durationRounds, reservePrice uint64) ([]market.Effect, error)
	PlaceBid(caller codec.Address, id uint64, payment market.Payment) ([]market.Effect, error)
	SettleAuction(id uint64) ([]market.Effect, error)
}

// Collaborator manages co-creator royalty registries.
type Collaborator interface {
	RegisterCoCreators(caller codec.Address, id uint64, entries []market.SplitEntry) error
	AcceptCollaboration(caller codec.Address, id uint64) (int, error)
}

// Custodian handles the physical-asset lifecycle.
type Custodian interface {
	ValidatePhysicalAsset(caller codec.Address, id uint64) ([]market.Effect, error)
	RedeemPhysicalAsset(caller codec.Address, id uint64, trackingMemo string) ([]market.Effect, error)
}

// Reader exposes the read-only views.
type Reader interface {
	NFTInfo(id uint64) (*codec.AssetRecord, error)
	CurrentRoyalty(id uint64) (uint64, error)
	AuctionInfo(id uint64) (*codec.AuctionRecord, error)
	SplitInfo(id uint64) (*codec.SplitRecord, error)
	RWAInfo(id uint64) (*codec.RWARecord, error)
	SplitPreview(id uint64, price uint64) (*market.Breakdown, error)
	PlatformStats() (*codec.StatsRecord, error)
}

// --- Composite Interface ---

// Marketplace is the full client surface. Both the remote Client and
// the Embedded engine satisfy it, so applications don't care whether
// the marketplace runs in-process or across the network.
type Marketplace interface {
	Minter
	Trader
	Auctioneer
	Collaborator
	Custodian
	Reader

	Close() error
}
