package codec

import "fmt"

// SplitRecord layout (160 bytes): 4 slots of 40 bytes each.
//
//	Per slot:
//	[0:32]  address    32 bytes (zero = unused slot)
//	[32:36] share_bps  uint32
//	[36:40] accepted   uint32 (0 = pending, 1 = accepted)
const (
	SplitSlots      = 4
	splitSlotSize   = 40
	SplitRecordSize = SplitSlots * splitSlotSize

	slotOffShare    = 32
	slotOffAccepted = 36
)

// SplitSlot is one co-creator royalty share.
type SplitSlot struct {
	Address  Address
	ShareBPS uint32
	Accepted bool
}

// SplitRecord holds up to four co-creator shares for one asset.
type SplitRecord struct {
	Slots [SplitSlots]SplitSlot
}

// TotalShareBPS sums the share of every slot, used and unused alike (unused
// slots carry zero).
func (r *SplitRecord) TotalShareBPS() uint64 {
	var total uint64
	for _, s := range r.Slots {
		total += uint64(s.ShareBPS)
	}
	return total
}

// Encode packs the record into its fixed 160-byte layout.
func (r *SplitRecord) Encode() []byte {
	b := make([]byte, SplitRecordSize)
	for i, s := range r.Slots {
		off := i * splitSlotSize
		copy(b[off:], s.Address[:])
		putU32(b, off+slotOffShare, s.ShareBPS)
		if s.Accepted {
			putU32(b, off+slotOffAccepted, 1)
		}
	}
	return b
}

// DecodeSplit parses a packed co-creator split record.
func DecodeSplit(b []byte) (*SplitRecord, error) {
	if len(b) != SplitRecordSize {
		return nil, fmt.Errorf("%w: split record is %d bytes, want %d", ErrMalformedRecord, len(b), SplitRecordSize)
	}
	r := &SplitRecord{}
	for i := range r.Slots {
		off := i * splitSlotSize
		copy(r.Slots[i].Address[:], b[off:off+AddressLen])
		r.Slots[i].ShareBPS = getU32(b, off+slotOffShare)
		r.Slots[i].Accepted = getU32(b, off+slotOffAccepted) == 1
	}
	return r, nil
}

// SplitAcceptedPatch returns the sub-range write that marks slot (0-based)
// as accepted.
func SplitAcceptedPatch(slot int) (int, []byte) {
	b := make([]byte, 4)
	putU32(b, 0, 1)
	return slot*splitSlotSize + slotOffAccepted, b
}
