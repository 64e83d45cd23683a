package market

import (
	"go.uber.org/zap"

	"github.com/muse-dev/muse-market/pkg/codec"
	"github.com/muse-dev/muse-market/pkg/store"
)

// RegisterCoCreators records up to four royalty split recipients for an
// asset. Creator only; the shares must total at most 100%. Calling it
// again replaces the whole registry, resetting all acceptances.
func (m *Market) RegisterCoCreators(caller codec.Address, id uint64, entries []SplitEntry) error {
	if len(entries) > codec.SplitSlots {
		return ErrTooManySlots
	}
	var total uint64
	for _, e := range entries {
		total += uint64(e.ShareBPS)
	}
	if total > BasisPoints {
		return ErrSharesExceed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.loadAsset(id)
	if err != nil {
		return err
	}
	if a.Creator != caller {
		return ErrNotCreator
	}

	var rec codec.SplitRecord
	for i, e := range entries {
		rec.Slots[i] = codec.SplitSlot{Address: e.Address, ShareBPS: e.ShareBPS}
	}
	if err := m.store.Put(store.KindSplit, id, rec.Encode()); err != nil {
		return err
	}

	off, data := codec.AssetFlagsPatch(a.Flags.With(codec.FlagCollabPending))
	if err := m.store.Patch(store.KindAsset, id, off, data); err != nil {
		return err
	}

	m.log.Info("registered co-creators",
		zap.Uint64("asset_id", id),
		zap.Int("slots", len(entries)),
		zap.Uint64("total_share_bps", total),
	)
	return nil
}

// AcceptCollaboration marks the caller's registry slot as accepted and
// returns its 1-based position. The caller must occupy a slot that has
// not already been accepted.
func (m *Market) AcceptCollaboration(caller codec.Address, id uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	split, err := m.loadSplit(id)
	if err != nil {
		return 0, err
	}
	if split == nil {
		return 0, ErrSplitNotFound
	}

	registered := false
	for i, slot := range split.Slots {
		if slot.Address != caller {
			continue
		}
		registered = true
		if slot.Accepted {
			continue
		}
		off, data := codec.SplitAcceptedPatch(i)
		if err := m.store.Patch(store.KindSplit, id, off, data); err != nil {
			return 0, err
		}
		return i + 1, nil
	}
	if registered {
		return 0, ErrAlreadyAccepted
	}
	return 0, ErrNotCoCreator
}
