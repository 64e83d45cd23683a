// Package codec encodes and decodes the fixed-layout binary records the
// marketplace persists per asset. All integer fields are big-endian and all
// address fields are 32 bytes, matching the on-chain box layouts the engine
// settled against historically. Domain code works with the decoded structs;
// sub-range patches for hot fields are produced here so callers never touch
// raw offsets themselves.
package codec

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrMalformedRecord is returned when a buffer cannot be decoded as the
// requested record kind (wrong length or out-of-bounds field).
var ErrMalformedRecord = errors.New("malformed record")

// AddressLen is the fixed byte length of a participant address.
const AddressLen = 32

// Address identifies a wallet, custodian, authenticator or treasury.
type Address [AddressLen]byte

// ZeroAddress is the empty address; it marks unused slots and "no bidder".
var ZeroAddress Address

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == ZeroAddress }

// String renders the address as lowercase hex.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// ParseAddress decodes a 64-character hex string into an Address.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("parse address: %w", err)
	}
	if len(b) != AddressLen {
		return a, fmt.Errorf("parse address: want %d bytes, got %d", AddressLen, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// MarshalText implements encoding.TextMarshaler (hex form for JSON and logs).
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Flags is the asset status bit set. The raw bit positions are part of the
// serialized format and must not be reordered.
type Flags uint64

const (
	// FlagIsRWA marks an asset backed by a physical counterpart.
	FlagIsRWA Flags = 1 << iota
	// FlagRWAAuthenticated is set once the registered authenticator has
	// verified the physical item.
	FlagRWAAuthenticated
	// FlagRWARedeemed is set once the custodian has shipped the physical
	// item; the asset can no longer be sold or auctioned.
	FlagRWARedeemed
	// FlagRoyaltyWaived is set by a successful royalty buy-out.
	FlagRoyaltyWaived
	// FlagInAuction is set while an auction record is open for the asset.
	FlagInAuction
	// FlagCollabPending is set when co-creators have been registered.
	FlagCollabPending
)

// Has reports whether every bit in mask is set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// With returns the flags with mask set.
func (f Flags) With(mask Flags) Flags { return f | mask }

// Without returns the flags with mask cleared.
func (f Flags) Without(mask Flags) Flags { return f &^ mask }

func putU64(b []byte, off int, v uint64) { binary.BigEndian.PutUint64(b[off:off+8], v) }
func getU64(b []byte, off int) uint64    { return binary.BigEndian.Uint64(b[off : off+8]) }
func putU32(b []byte, off int, v uint32) { binary.BigEndian.PutUint32(b[off:off+4], v) }
func getU32(b []byte, off int) uint32    { return binary.BigEndian.Uint32(b[off : off+4]) }

func u64Patch(off int, v uint64) (int, []byte) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return off, b
}
