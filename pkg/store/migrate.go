package store

import "fmt"

// kinds lists every record family a marketplace can hold.
var kinds = []string{KindAsset, KindAuction, KindSplit, KindRWA, KindSystem}

// Migrate copies every record from a source store to a destination
// store. This works for:
// - file -> sqlite (backend upgrades)
// - sqlite -> file (backup/offline)
func Migrate(src RecordStore, dst RecordStore) error {
	for _, kind := range kinds {
		ids, err := src.List(kind)
		if err != nil {
			return fmt.Errorf("failed to list %s records: %w", kind, err)
		}

		for _, id := range ids {
			data, err := src.Get(kind, id)
			if err != nil {
				return fmt.Errorf("failed to read %s record %d: %w", kind, id, err)
			}
			if err := dst.Put(kind, id, data); err != nil {
				return fmt.Errorf("failed to write %s record %d: %w", kind, id, err)
			}
		}
	}

	return nil
}
