package codec

import "fmt"

// AuctionRecord layout (96 bytes):
//
//	[0:8]   asset_id        uint64
//	[8:16]  end_round       uint64
//	[16:24] highest_bid     uint64
//	[24:56] highest_bidder  32 bytes (zero = no bids yet)
//	[56:88] seller          32 bytes
//	[88:96] reserve_price   uint64
const AuctionRecordSize = 96

const (
	auctionOffID      = 0
	auctionOffEnd     = 8
	auctionOffBid     = 16
	auctionOffBidder  = 24
	auctionOffSeller  = 56
	auctionOffReserve = 88
)

// AuctionRecord is the live state of one English auction. It exists only
// while the auction is open; settlement deletes it.
type AuctionRecord struct {
	AssetID       uint64
	EndRound      uint64
	HighestBid    uint64
	HighestBidder Address
	Seller        Address
	ReservePrice  uint64
}

// Encode packs the record into its fixed 96-byte layout.
func (r *AuctionRecord) Encode() []byte {
	b := make([]byte, AuctionRecordSize)
	putU64(b, auctionOffID, r.AssetID)
	putU64(b, auctionOffEnd, r.EndRound)
	putU64(b, auctionOffBid, r.HighestBid)
	copy(b[auctionOffBidder:], r.HighestBidder[:])
	copy(b[auctionOffSeller:], r.Seller[:])
	putU64(b, auctionOffReserve, r.ReservePrice)
	return b
}

// DecodeAuction parses a packed auction record.
func DecodeAuction(b []byte) (*AuctionRecord, error) {
	if len(b) != AuctionRecordSize {
		return nil, fmt.Errorf("%w: auction record is %d bytes, want %d", ErrMalformedRecord, len(b), AuctionRecordSize)
	}
	r := &AuctionRecord{
		AssetID:      getU64(b, auctionOffID),
		EndRound:     getU64(b, auctionOffEnd),
		HighestBid:   getU64(b, auctionOffBid),
		ReservePrice: getU64(b, auctionOffReserve),
	}
	copy(r.HighestBidder[:], b[auctionOffBidder:auctionOffBidder+AddressLen])
	copy(r.Seller[:], b[auctionOffSeller:auctionOffSeller+AddressLen])
	return r, nil
}

// AuctionBidPatch returns the sub-range write that replaces the highest bid
// and bidder in one contiguous span.
func AuctionBidPatch(bid uint64, bidder Address) (int, []byte) {
	b := make([]byte, 8+AddressLen)
	putU64(b, 0, bid)
	copy(b[8:], bidder[:])
	return auctionOffBid, b
}

// AuctionEndPatch returns the sub-range write that replaces end_round (used
// by the anti-snipe extension).
func AuctionEndPatch(end uint64) (int, []byte) { return u64Patch(auctionOffEnd, end) }
