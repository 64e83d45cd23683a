// Package store persists one packed binary record per asset, namespaced by
// record kind so the different record families sharing an asset identifier
// never collide. Two backends implement the same contract: an in-memory map
// with background file persistence, and SQLite.
package store

import "errors"

// Record kinds. The kind strings are part of the persisted key format.
const (
	KindAsset   = "NFT"
	KindAuction = "AUC"
	KindSplit   = "SPL"
	KindRWA     = "RWA"
	KindSystem  = "SYS"
)

var (
	// ErrRecordNotFound is returned when no record exists under (kind, id).
	ErrRecordNotFound = errors.New("record not found")
	// ErrPatchOutOfRange is returned when a sub-range write does not fit
	// inside the stored record.
	ErrPatchOutOfRange = errors.New("patch out of range")
)

// RecordStore is the keyed persistence contract for packed records.
type RecordStore interface {
	// Get returns a copy of the record stored under (kind, id).
	Get(kind string, id uint64) ([]byte, error)
	// Put stores data under (kind, id), replacing any existing record.
	Put(kind string, id uint64, data []byte) error
	// Patch overwrites data's length of bytes at off within an existing
	// record, without rewriting the rest.
	Patch(kind string, id uint64, off int, data []byte) error
	// Delete removes the record under (kind, id). Deleting a missing
	// record is not an error.
	Delete(kind string, id uint64) error
	// List returns the IDs of every record of the given kind.
	List(kind string) ([]uint64, error)
	// Close releases the backend and flushes pending writes.
	Close() error
}
