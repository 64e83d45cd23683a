package codec

import "fmt"

// AssetRecord layout (96 bytes):
//
//	[0:8]   asset_id      uint64
//	[8:16]  price         uint64  (0 = auction only)
//	[16:24] royalty_bps   uint64
//	[24:32] floor_bps     uint64
//	[32:40] decay_start   uint64  (round; 0 = decay disabled)
//	[40:48] buyout_price  uint64  (0 = buy-out disabled)
//	[48:56] transfers     uint64
//	[56:64] flags         uint64
//	[64:96] creator       32 bytes
const AssetRecordSize = 96

const (
	assetOffID        = 0
	assetOffPrice     = 8
	assetOffRoyalty   = 16
	assetOffFloor     = 24
	assetOffDecay     = 32
	assetOffBuyout    = 40
	assetOffTransfers = 48
	assetOffFlags     = 56
	assetOffCreator   = 64
)

// AssetRecord is the per-asset marketplace state.
type AssetRecord struct {
	AssetID     uint64
	Price       uint64
	RoyaltyBPS  uint64
	FloorBPS    uint64
	DecayStart  uint64
	BuyoutPrice uint64
	Transfers   uint64
	Flags       Flags
	Creator     Address
}

// Encode packs the record into its fixed 96-byte layout.
func (r *AssetRecord) Encode() []byte {
	b := make([]byte, AssetRecordSize)
	putU64(b, assetOffID, r.AssetID)
	putU64(b, assetOffPrice, r.Price)
	putU64(b, assetOffRoyalty, r.RoyaltyBPS)
	putU64(b, assetOffFloor, r.FloorBPS)
	putU64(b, assetOffDecay, r.DecayStart)
	putU64(b, assetOffBuyout, r.BuyoutPrice)
	putU64(b, assetOffTransfers, r.Transfers)
	putU64(b, assetOffFlags, uint64(r.Flags))
	copy(b[assetOffCreator:], r.Creator[:])
	return b
}

// DecodeAsset parses a packed asset record.
func DecodeAsset(b []byte) (*AssetRecord, error) {
	if len(b) != AssetRecordSize {
		return nil, fmt.Errorf("%w: asset record is %d bytes, want %d", ErrMalformedRecord, len(b), AssetRecordSize)
	}
	r := &AssetRecord{
		AssetID:     getU64(b, assetOffID),
		Price:       getU64(b, assetOffPrice),
		RoyaltyBPS:  getU64(b, assetOffRoyalty),
		FloorBPS:    getU64(b, assetOffFloor),
		DecayStart:  getU64(b, assetOffDecay),
		BuyoutPrice: getU64(b, assetOffBuyout),
		Transfers:   getU64(b, assetOffTransfers),
		Flags:       Flags(getU64(b, assetOffFlags)),
	}
	copy(r.Creator[:], b[assetOffCreator:assetOffCreator+AddressLen])
	return r, nil
}

// AssetFlagsPatch returns the sub-range write that replaces the flags field.
func AssetFlagsPatch(f Flags) (int, []byte) { return u64Patch(assetOffFlags, uint64(f)) }

// AssetPricePatch returns the sub-range write that replaces the list price.
func AssetPricePatch(price uint64) (int, []byte) { return u64Patch(assetOffPrice, price) }

// AssetRoyaltyPatch returns the sub-range write that replaces royalty_bps.
func AssetRoyaltyPatch(bps uint64) (int, []byte) { return u64Patch(assetOffRoyalty, bps) }

// AssetBuyoutPatch returns the sub-range write that replaces buyout_price.
func AssetBuyoutPatch(price uint64) (int, []byte) { return u64Patch(assetOffBuyout, price) }

// AssetTransfersPatch returns the sub-range write that replaces the transfer
// counter.
func AssetTransfersPatch(n uint64) (int, []byte) { return u64Patch(assetOffTransfers, n) }
