package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(b byte) Address {
	var a Address
	for i := range a {
		a[i] = b
	}
	return a
}

func TestAssetRecordRoundTrip(t *testing.T) {
	rec := &AssetRecord{
		AssetID:     42,
		Price:       10_000_000,
		RoyaltyBPS:  1000,
		FloorBPS:    500,
		DecayStart:  777_600,
		BuyoutPrice: 5_000_000,
		Transfers:   3,
		Flags:       FlagIsRWA | FlagRWAAuthenticated,
		Creator:     addr(0xAA),
	}

	b := rec.Encode()
	require.Len(t, b, AssetRecordSize)

	got, err := DecodeAsset(b)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestAuctionRecordRoundTrip(t *testing.T) {
	rec := &AuctionRecord{
		AssetID:       7,
		EndRound:      12_345,
		HighestBid:    150,
		HighestBidder: addr(0x01),
		Seller:        addr(0x02),
		ReservePrice:  100,
	}

	got, err := DecodeAuction(rec.Encode())
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestSplitRecordRoundTrip(t *testing.T) {
	rec := &SplitRecord{}
	rec.Slots[0] = SplitSlot{Address: addr(0x11), ShareBPS: 5000, Accepted: true}
	rec.Slots[1] = SplitSlot{Address: addr(0x22), ShareBPS: 2500}
	rec.Slots[3] = SplitSlot{Address: addr(0x44), ShareBPS: 1000}

	got, err := DecodeSplit(rec.Encode())
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, uint64(8500), got.TotalShareBPS())
}

func TestRWARecordRoundTrip(t *testing.T) {
	rec := &RWARecord{
		Custodian:       addr(0x33),
		Authenticator:   addr(0x44),
		RedemptionRound: 99,
		TrackingMemo:    []byte("DHL-1234567890"),
	}
	hash := addr(0x55)
	copy(rec.PhysicalHash[:], hash[:])

	got, err := DecodeRWA(rec.Encode())
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestRWARecordWithoutMemo(t *testing.T) {
	rec := &RWARecord{Custodian: addr(0x01), Authenticator: addr(0x02)}

	b := rec.Encode()
	require.Len(t, b, RWAHeaderSize)

	got, err := DecodeRWA(b)
	require.NoError(t, err)
	assert.Nil(t, got.TrackingMemo)
}

func TestStatsRecordRoundTrip(t *testing.T) {
	rec := &StatsRecord{
		TotalVolume:        1_000_000,
		TotalRoyaltiesPaid: 25_000,
		NFTCount:           12,
		LiveAuctions:       2,
		LastAssetID:        12,
	}

	got, err := DecodeStats(rec.Encode())
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	cases := []struct {
		name   string
		decode func([]byte) error
		size   int
	}{
		{"asset", func(b []byte) error { _, err := DecodeAsset(b); return err }, AssetRecordSize},
		{"auction", func(b []byte) error { _, err := DecodeAuction(b); return err }, AuctionRecordSize},
		{"split", func(b []byte) error { _, err := DecodeSplit(b); return err }, SplitRecordSize},
		{"rwa", func(b []byte) error { _, err := DecodeRWA(b); return err }, RWAHeaderSize},
		{"stats", func(b []byte) error { _, err := DecodeStats(b); return err }, StatsRecordSize},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.decode(make([]byte, tc.size-1)), ErrMalformedRecord)
			assert.ErrorIs(t, tc.decode(nil), ErrMalformedRecord)
		})
	}
}

func TestAssetPatchesLeaveOtherFieldsIntact(t *testing.T) {
	rec := &AssetRecord{
		AssetID:    9,
		Price:      500,
		RoyaltyBPS: 1000,
		FloorBPS:   200,
		Creator:    addr(0x77),
	}
	b := rec.Encode()

	off, data := AssetFlagsPatch(FlagRoyaltyWaived | FlagInAuction)
	copy(b[off:], data)
	off, data = AssetTransfersPatch(5)
	copy(b[off:], data)
	off, data = AssetBuyoutPatch(0)
	copy(b[off:], data)

	got, err := DecodeAsset(b)
	require.NoError(t, err)
	assert.Equal(t, FlagRoyaltyWaived|FlagInAuction, got.Flags)
	assert.Equal(t, uint64(5), got.Transfers)
	assert.Equal(t, uint64(500), got.Price)
	assert.Equal(t, uint64(1000), got.RoyaltyBPS)
	assert.Equal(t, addr(0x77), got.Creator)
}

func TestAuctionBidPatch(t *testing.T) {
	rec := &AuctionRecord{AssetID: 1, EndRound: 100, Seller: addr(0x05), ReservePrice: 50}
	b := rec.Encode()

	off, data := AuctionBidPatch(75, addr(0x06))
	copy(b[off:], data)
	off, data = AuctionEndPatch(175)
	copy(b[off:], data)

	got, err := DecodeAuction(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(75), got.HighestBid)
	assert.Equal(t, addr(0x06), got.HighestBidder)
	assert.Equal(t, uint64(175), got.EndRound)
	assert.Equal(t, addr(0x05), got.Seller)
	assert.Equal(t, uint64(50), got.ReservePrice)
}

func TestSplitAcceptedPatch(t *testing.T) {
	rec := &SplitRecord{}
	rec.Slots[2] = SplitSlot{Address: addr(0x09), ShareBPS: 100}
	b := rec.Encode()

	off, data := SplitAcceptedPatch(2)
	copy(b[off:], data)

	got, err := DecodeSplit(b)
	require.NoError(t, err)
	assert.True(t, got.Slots[2].Accepted)
	assert.False(t, got.Slots[0].Accepted)
}

func TestAddressHexRoundTrip(t *testing.T) {
	a := addr(0xAB)
	parsed, err := ParseAddress(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	_, err = ParseAddress("abcd")
	assert.Error(t, err)
	_, err = ParseAddress("zz")
	assert.Error(t, err)

	assert.True(t, ZeroAddress.IsZero())
	assert.False(t, a.IsZero())
}
