package market

import "github.com/muse-dev/muse-market/pkg/codec"

// Protocol constants. All prices are in microcredits, all rates in
// basis points (1 bps = 0.01%).
const (
	// FeeBPS is the platform fee taken from every sale (2.5%).
	FeeBPS = 250
	// MaxRoyaltyBPS caps the creator royalty at mint time (20%).
	MaxRoyaltyBPS = 2000
	// BasisPoints is the rate denominator.
	BasisPoints = 10000
	// RoundsPerMonth is one decay unit at roughly 4s per round.
	RoundsPerMonth = 777600
	// AntiSnipeRounds extends an auction when a bid lands inside the
	// final window (~5 minutes).
	AntiSnipeRounds = 75
	// BuyoutCreatorBPS is the creator's share of a royalty buy-out;
	// the rest goes to the treasury.
	BuyoutCreatorBPS = 9500
)

// Payment is the funds attached to an operation. The engine validates
// amounts; moving the money happens through the returned effects.
type Payment struct {
	From   codec.Address
	Amount uint64
}

// EffectKind discriminates the ledger actions an operation emits.
type EffectKind string

const (
	// EffectPay transfers Amount microcredits to To.
	EffectPay EffectKind = "pay"
	// EffectTransferAsset hands the token to To.
	EffectTransferAsset EffectKind = "transfer_asset"
	// EffectEscrowAsset pulls the token from To into marketplace escrow.
	EffectEscrowAsset EffectKind = "escrow_asset"
	// EffectUnfreeze lifts the transfer freeze on a pending RWA token.
	EffectUnfreeze EffectKind = "unfreeze"
	// EffectCreateAsset mints a new token described by Meta.
	EffectCreateAsset EffectKind = "create_asset"
)

// Effect is a single ledger action produced by a successful operation.
// Operations either succeed and return their full effect list or fail
// and return none; there are no partial outcomes.
type Effect struct {
	Kind    EffectKind    `json:"kind"`
	To      codec.Address `json:"to,omitempty"`
	Amount  uint64        `json:"amount,omitempty"`
	AssetID uint64        `json:"asset_id,omitempty"`
	Memo    string        `json:"memo,omitempty"`
	Meta    *AssetMeta    `json:"meta,omitempty"`
}

// AssetMeta describes the token minted by an EffectCreateAsset.
type AssetMeta struct {
	Name         string   `json:"name"`
	UnitName     string   `json:"unit_name"`
	MetadataURL  string   `json:"metadata_url"`
	MetadataHash [32]byte `json:"metadata_hash"`
	Frozen       bool     `json:"frozen"`
}

func pay(to codec.Address, amount uint64, memo string) Effect {
	return Effect{Kind: EffectPay, To: to, Amount: amount, Memo: memo}
}

func transferAsset(to codec.Address, assetID uint64) Effect {
	return Effect{Kind: EffectTransferAsset, To: to, AssetID: assetID}
}

// MintParams are the arguments shared by single and batch mints.
type MintParams struct {
	Name         string   `json:"name"`
	UnitName     string   `json:"unit_name"`
	MetadataURL  string   `json:"metadata_url"`
	MetadataHash [32]byte `json:"metadata_hash"`
	Price        uint64   `json:"price"`
	RoyaltyBPS   uint64   `json:"royalty_bps"`
	FloorBPS     uint64   `json:"floor_bps"`
	// DecayAfter is the round offset at which royalty decay begins.
	// Zero disables decay.
	DecayAfter  uint64 `json:"decay_after"`
	BuyoutPrice uint64 `json:"buyout_price"`
}

// RWAParams extends MintParams with the physical-asset fields.
type RWAParams struct {
	MintParams
	PhysicalHash  [32]byte      `json:"physical_hash"`
	Custodian     codec.Address `json:"custodian"`
	Authenticator codec.Address `json:"authenticator"`
}

// SplitEntry is one co-creator registration. A zero address skips the slot.
type SplitEntry struct {
	Address  codec.Address `json:"address"`
	ShareBPS uint32        `json:"share_bps"`
}

// Breakdown itemizes where a sale price goes. MuseFee plus TotalRoyalty
// plus SellerNet always equals SalePrice, and the share amounts plus
// CreatorRemainder always equal TotalRoyalty.
type Breakdown struct {
	SalePrice        uint64                   `json:"sale_price"`
	RoyaltyBPS       uint64                   `json:"royalty_bps"`
	MuseFee          uint64                   `json:"muse_fee"`
	TotalRoyalty     uint64                   `json:"total_royalty"`
	Shares           [codec.SplitSlots]uint64 `json:"shares"`
	CreatorRemainder uint64                   `json:"creator_remainder"`
	SellerNet        uint64                   `json:"seller_net"`
}
