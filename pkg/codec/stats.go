package codec

import "fmt"

// StatsRecord layout (40 bytes):
//
//	[0:8]   total_volume          uint64
//	[8:16]  total_royalties_paid  uint64
//	[16:24] nft_count             uint64
//	[24:32] live_auctions         uint64
//	[32:40] last_asset_id         uint64 (allocation counter)
const StatsRecordSize = 40

const (
	statsOffVolume    = 0
	statsOffRoyalties = 8
	statsOffCount     = 16
	statsOffAuctions  = 24
	statsOffLastID    = 32
)

// StatsRecord holds the platform-wide aggregates. total_volume,
// total_royalties_paid and nft_count are monotonic; live_auctions moves both
// ways; last_asset_id backs mint's ID allocation.
type StatsRecord struct {
	TotalVolume        uint64
	TotalRoyaltiesPaid uint64
	NFTCount           uint64
	LiveAuctions       uint64
	LastAssetID        uint64
}

// Encode packs the record into its fixed 40-byte layout.
func (r *StatsRecord) Encode() []byte {
	b := make([]byte, StatsRecordSize)
	putU64(b, statsOffVolume, r.TotalVolume)
	putU64(b, statsOffRoyalties, r.TotalRoyaltiesPaid)
	putU64(b, statsOffCount, r.NFTCount)
	putU64(b, statsOffAuctions, r.LiveAuctions)
	putU64(b, statsOffLastID, r.LastAssetID)
	return b
}

// DecodeStats parses a packed stats record.
func DecodeStats(b []byte) (*StatsRecord, error) {
	if len(b) != StatsRecordSize {
		return nil, fmt.Errorf("%w: stats record is %d bytes, want %d", ErrMalformedRecord, len(b), StatsRecordSize)
	}
	return &StatsRecord{
		TotalVolume:        getU64(b, statsOffVolume),
		TotalRoyaltiesPaid: getU64(b, statsOffRoyalties),
		NFTCount:           getU64(b, statsOffCount),
		LiveAuctions:       getU64(b, statsOffAuctions),
		LastAssetID:        getU64(b, statsOffLastID),
	}, nil
}
