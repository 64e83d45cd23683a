package codec

import "fmt"

// RWARecord layout (104-byte fixed header plus variable tracking memo):
//
//	[0:32]   physical_hash     32 bytes (SHA-256 of the certificate of authenticity)
//	[32:64]  custodian         32 bytes
//	[64:96]  authenticator     32 bytes
//	[96:104] redemption_round  uint64 (0 = not redeemed)
//	[104:]   tracking memo     variable (set at redemption; may be ciphertext)
const RWAHeaderSize = 104

const (
	rwaOffHash       = 0
	rwaOffCustodian  = 32
	rwaOffAuth       = 64
	rwaOffRedemption = 96
)

// RWARecord tethers an asset to its physical counterpart.
type RWARecord struct {
	PhysicalHash    [32]byte
	Custodian       Address
	Authenticator   Address
	RedemptionRound uint64
	TrackingMemo    []byte
}

// Encode packs the record: fixed header followed by the tracking memo.
func (r *RWARecord) Encode() []byte {
	b := make([]byte, RWAHeaderSize+len(r.TrackingMemo))
	copy(b[rwaOffHash:], r.PhysicalHash[:])
	copy(b[rwaOffCustodian:], r.Custodian[:])
	copy(b[rwaOffAuth:], r.Authenticator[:])
	putU64(b, rwaOffRedemption, r.RedemptionRound)
	copy(b[RWAHeaderSize:], r.TrackingMemo)
	return b
}

// DecodeRWA parses a packed RWA record. Anything past the fixed header is
// the tracking memo.
func DecodeRWA(b []byte) (*RWARecord, error) {
	if len(b) < RWAHeaderSize {
		return nil, fmt.Errorf("%w: rwa record is %d bytes, want at least %d", ErrMalformedRecord, len(b), RWAHeaderSize)
	}
	r := &RWARecord{RedemptionRound: getU64(b, rwaOffRedemption)}
	copy(r.PhysicalHash[:], b[rwaOffHash:rwaOffHash+32])
	copy(r.Custodian[:], b[rwaOffCustodian:rwaOffCustodian+AddressLen])
	copy(r.Authenticator[:], b[rwaOffAuth:rwaOffAuth+AddressLen])
	if len(b) > RWAHeaderSize {
		r.TrackingMemo = append([]byte(nil), b[RWAHeaderSize:]...)
	}
	return r, nil
}
