package market

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/muse-dev/muse-market/pkg/codec"
	"github.com/muse-dev/muse-market/pkg/store"
)

func validateMintParams(p MintParams) error {
	if p.RoyaltyBPS > MaxRoyaltyBPS {
		return ErrRoyaltyTooHigh
	}
	if p.FloorBPS > p.RoyaltyBPS {
		return ErrFloorAboveRate
	}
	return nil
}

// MintNFT creates a new asset owned by caller and returns its ID along
// with the create effect. A zero price means auction-only; a zero
// DecayAfter disables royalty decay; a zero BuyoutPrice disables the
// royalty buy-out.
func (m *Market) MintNFT(caller codec.Address, p MintParams) (uint64, []Effect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mintLocked(caller, p, nil)
}

// MintRWA creates a physical-backed asset. The token starts frozen and
// stays unsellable until the authenticator validates the physical item.
func (m *Market) MintRWA(caller codec.Address, p RWAParams) (uint64, []Effect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mintLocked(caller, p.MintParams, &p)
}

// MintBatch mints up to an edition run of identical NFTs, numbering
// each name. All records are created or none are.
func (m *Market) MintBatch(caller codec.Address, count int, p MintParams) ([]uint64, []Effect, error) {
	if count < 1 {
		return nil, nil, ErrEmptyBatch
	}
	if err := validateMintParams(p); err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]uint64, 0, count)
	var effects []Effect
	for i := 1; i <= count; i++ {
		edition := p
		edition.Name = fmt.Sprintf("%s #%d", p.Name, i)
		id, fx, err := m.mintLocked(caller, edition, nil)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		effects = append(effects, fx...)
	}
	return ids, effects, nil
}

func (m *Market) mintLocked(caller codec.Address, p MintParams, rwa *RWAParams) (uint64, []Effect, error) {
	if err := validateMintParams(p); err != nil {
		return 0, nil, err
	}

	stats, err := m.loadStats()
	if err != nil {
		return 0, nil, err
	}
	id := stats.LastAssetID + 1

	var decayStart uint64
	if p.DecayAfter > 0 {
		decayStart = m.rounds.Round() + p.DecayAfter
	}

	rec := codec.AssetRecord{
		AssetID:     id,
		Price:       p.Price,
		RoyaltyBPS:  p.RoyaltyBPS,
		FloorBPS:    p.FloorBPS,
		DecayStart:  decayStart,
		BuyoutPrice: p.BuyoutPrice,
		Creator:     caller,
	}
	if rwa != nil {
		rec.Flags = rec.Flags.With(codec.FlagIsRWA)
	}
	if err := m.store.Put(store.KindAsset, id, rec.Encode()); err != nil {
		return 0, nil, err
	}

	if rwa != nil {
		phys := codec.RWARecord{
			PhysicalHash:  rwa.PhysicalHash,
			Custodian:     rwa.Custodian,
			Authenticator: rwa.Authenticator,
		}
		if err := m.store.Put(store.KindRWA, id, phys.Encode()); err != nil {
			return 0, nil, err
		}
	}

	stats.LastAssetID = id
	stats.NFTCount++
	if err := m.saveStats(stats); err != nil {
		return 0, nil, err
	}

	m.log.Info("minted asset",
		zap.Uint64("asset_id", id),
		zap.Uint64("price", p.Price),
		zap.Uint64("royalty_bps", p.RoyaltyBPS),
		zap.Bool("rwa", rwa != nil),
	)

	effect := Effect{
		Kind:    EffectCreateAsset,
		To:      caller,
		AssetID: id,
		Memo:    "muse:mint",
		Meta: &AssetMeta{
			Name:         p.Name,
			UnitName:     p.UnitName,
			MetadataURL:  p.MetadataURL,
			MetadataHash: p.MetadataHash,
			Frozen:       rwa != nil,
		},
	}
	return id, []Effect{effect}, nil
}

// Relist sets a new fixed list price. Only the creator can relist, and
// only while the asset is not locked in an auction or redeemed. A zero
// price delists fixed-price sales.
func (m *Market) Relist(caller codec.Address, id, price uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.loadAsset(id)
	if err != nil {
		return err
	}
	if a.Creator != caller {
		return ErrNotCreator
	}
	if a.Flags.Has(codec.FlagInAuction) {
		return ErrInAuction
	}
	if a.Flags.Has(codec.FlagRWARedeemed) {
		return ErrRedeemed
	}
	if a.Flags.Has(codec.FlagIsRWA) && !a.Flags.Has(codec.FlagRWAAuthenticated) {
		return ErrNotAuthenticated
	}

	off, data := codec.AssetPricePatch(price)
	return m.store.Patch(store.KindAsset, id, off, data)
}

// UpdateRoyalty lowers or raises the base royalty rate. Creator only,
// capped at the maximum, never below the configured floor, and
// pointless once waived.
func (m *Market) UpdateRoyalty(caller codec.Address, id, royaltyBPS uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.loadAsset(id)
	if err != nil {
		return err
	}
	if a.Creator != caller {
		return ErrNotCreator
	}
	if a.Flags.Has(codec.FlagRoyaltyWaived) {
		return ErrRoyaltyWaived
	}
	if royaltyBPS > MaxRoyaltyBPS {
		return ErrRoyaltyTooHigh
	}
	if royaltyBPS < a.FloorBPS {
		return ErrFloorAboveRate
	}

	off, data := codec.AssetRoyaltyPatch(royaltyBPS)
	return m.store.Patch(store.KindAsset, id, off, data)
}
