package market

import (
	"go.uber.org/zap"

	"github.com/muse-dev/muse-market/pkg/codec"
	"github.com/muse-dev/muse-market/pkg/store"
)

// Buy purchases an asset at its fixed list price. Payment must equal
// the price exactly; the proceeds split into platform fee, royalties
// and seller net per the effective royalty rate at this round.
func (m *Market) Buy(caller codec.Address, id uint64, payment Payment) ([]Effect, *Breakdown, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.loadAsset(id)
	if err != nil {
		return nil, nil, err
	}
	if a.Price == 0 {
		return nil, nil, ErrAuctionOnly
	}
	if a.Flags.Has(codec.FlagInAuction) {
		return nil, nil, ErrInAuction
	}
	if a.Flags.Has(codec.FlagRWARedeemed) {
		return nil, nil, ErrRedeemed
	}
	if a.Flags.Has(codec.FlagIsRWA) && !a.Flags.Has(codec.FlagRWAAuthenticated) {
		return nil, nil, ErrNotAuthenticated
	}
	if payment.Amount != a.Price {
		return nil, nil, ErrWrongPrice
	}

	split, err := m.loadSplit(id)
	if err != nil {
		return nil, nil, err
	}
	bps := effectiveRoyalty(a, m.rounds.Round())
	effects, bd := distribute(a, split, a.Price, bps, a.Creator, m.cfg.Treasury)
	effects = append(effects, transferAsset(caller, id))

	off, data := codec.AssetTransfersPatch(a.Transfers + 1)
	if err := m.store.Patch(store.KindAsset, id, off, data); err != nil {
		return nil, nil, err
	}

	stats, err := m.loadStats()
	if err != nil {
		return nil, nil, err
	}
	stats.TotalVolume += a.Price
	stats.TotalRoyaltiesPaid += bd.TotalRoyalty
	if err := m.saveStats(stats); err != nil {
		return nil, nil, err
	}

	m.log.Info("asset sold",
		zap.Uint64("asset_id", id),
		zap.Uint64("price", a.Price),
		zap.String("buyer", caller.String()),
	)
	return effects, bd, nil
}

// BuyOutRoyalty pays the configured one-time price to waive all future
// royalties on an asset. The payment splits 95% to the creator and 5%
// to the treasury, and the buy-out offer closes permanently.
func (m *Market) BuyOutRoyalty(caller codec.Address, id uint64, payment Payment) ([]Effect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.loadAsset(id)
	if err != nil {
		return nil, err
	}
	if a.BuyoutPrice == 0 {
		return nil, ErrBuyoutDisabled
	}
	if a.Flags.Has(codec.FlagRoyaltyWaived) {
		return nil, ErrRoyaltyWaived
	}
	if payment.Amount != a.BuyoutPrice {
		return nil, ErrWrongBuyout
	}

	creatorCut := a.BuyoutPrice * BuyoutCreatorBPS / BasisPoints
	museCut := a.BuyoutPrice - creatorCut
	effects := []Effect{
		pay(a.Creator, creatorCut, "muse:buyout"),
		pay(m.cfg.Treasury, museCut, "muse:buyout"),
	}

	off, data := codec.AssetFlagsPatch(a.Flags.With(codec.FlagRoyaltyWaived))
	if err := m.store.Patch(store.KindAsset, id, off, data); err != nil {
		return nil, err
	}
	off, data = codec.AssetBuyoutPatch(0)
	if err := m.store.Patch(store.KindAsset, id, off, data); err != nil {
		return nil, err
	}

	m.log.Info("royalty bought out",
		zap.Uint64("asset_id", id),
		zap.Uint64("price", a.BuyoutPrice),
		zap.String("payer", caller.String()),
	)
	return effects, nil
}
