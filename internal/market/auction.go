package market

import (
	"go.uber.org/zap"

	"github.com/muse-dev/muse-market/pkg/codec"
	"github.com/muse-dev/muse-market/pkg/store"
)

// StartAuction opens an English auction. The caller becomes the seller
// and the token moves into marketplace escrow via the returned effect.
// Bids below the reserve are rejected outright.
func (m *Market) StartAuction(caller codec.Address, id, durationRounds, reservePrice uint64) ([]Effect, error) {
	if durationRounds == 0 {
		return nil, ErrZeroDuration
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.loadAsset(id)
	if err != nil {
		return nil, err
	}
	if a.Flags.Has(codec.FlagInAuction) {
		return nil, ErrInAuction
	}
	if a.Flags.Has(codec.FlagRWARedeemed) {
		return nil, ErrRedeemed
	}

	now := m.rounds.Round()
	auc := codec.AuctionRecord{
		AssetID:      id,
		EndRound:     now + durationRounds,
		Seller:       caller,
		ReservePrice: reservePrice,
	}
	if err := m.store.Put(store.KindAuction, id, auc.Encode()); err != nil {
		return nil, err
	}

	off, data := codec.AssetFlagsPatch(a.Flags.With(codec.FlagInAuction))
	if err := m.store.Patch(store.KindAsset, id, off, data); err != nil {
		return nil, err
	}

	stats, err := m.loadStats()
	if err != nil {
		return nil, err
	}
	stats.LiveAuctions++
	if err := m.saveStats(stats); err != nil {
		return nil, err
	}

	m.log.Info("auction started",
		zap.Uint64("asset_id", id),
		zap.Uint64("end_round", auc.EndRound),
		zap.Uint64("reserve", reservePrice),
	)
	return []Effect{{Kind: EffectEscrowAsset, To: caller, AssetID: id, Memo: "muse:escrow"}}, nil
}

// PlaceBid records a new highest bid. The bid must beat the current
// highest bid and meet the reserve; the previous bidder is refunded in
// the same operation. A bid inside the closing window pushes the end
// out by the anti-snipe extension.
func (m *Market) PlaceBid(caller codec.Address, id uint64, payment Payment) ([]Effect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	auc, err := m.loadAuction(id)
	if err != nil {
		return nil, err
	}
	now := m.rounds.Round()
	if now >= auc.EndRound {
		return nil, ErrAuctionEnded
	}
	if payment.Amount <= auc.HighestBid {
		return nil, ErrBidTooLow
	}
	if payment.Amount < auc.ReservePrice {
		return nil, ErrBidBelowReserve
	}

	var effects []Effect
	if !auc.HighestBidder.IsZero() {
		effects = append(effects, pay(auc.HighestBidder, auc.HighestBid, "muse:refund"))
	}

	off, data := codec.AuctionBidPatch(payment.Amount, caller)
	if err := m.store.Patch(store.KindAuction, id, off, data); err != nil {
		return nil, err
	}

	if auc.EndRound-now < AntiSnipeRounds {
		off, data := codec.AuctionEndPatch(auc.EndRound + AntiSnipeRounds)
		if err := m.store.Patch(store.KindAuction, id, off, data); err != nil {
			return nil, err
		}
	}

	m.log.Info("bid placed",
		zap.Uint64("asset_id", id),
		zap.Uint64("bid", payment.Amount),
		zap.String("bidder", caller.String()),
	)
	return effects, nil
}

// SettleAuction closes an ended auction. Anyone can call it once the
// end round has passed. With a winner the sale settles like a purchase
// at the winning bid; with no bids the token simply returns to the
// seller.
func (m *Market) SettleAuction(id uint64) ([]Effect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	auc, err := m.loadAuction(id)
	if err != nil {
		return nil, err
	}
	now := m.rounds.Round()
	if now < auc.EndRound {
		return nil, ErrAuctionRunning
	}
	a, err := m.loadAsset(id)
	if err != nil {
		return nil, err
	}
	stats, err := m.loadStats()
	if err != nil {
		return nil, err
	}

	var effects []Effect
	if auc.HighestBidder.IsZero() {
		effects = append(effects, transferAsset(auc.Seller, id))
	} else {
		split, err := m.loadSplit(id)
		if err != nil {
			return nil, err
		}
		bps := effectiveRoyalty(a, now)
		fx, bd := distribute(a, split, auc.HighestBid, bps, auc.Seller, m.cfg.Treasury)
		effects = append(effects, fx...)
		effects = append(effects, transferAsset(auc.HighestBidder, id))

		off, data := codec.AssetTransfersPatch(a.Transfers + 1)
		if err := m.store.Patch(store.KindAsset, id, off, data); err != nil {
			return nil, err
		}
		stats.TotalVolume += auc.HighestBid
		stats.TotalRoyaltiesPaid += bd.TotalRoyalty
	}

	off, data := codec.AssetFlagsPatch(a.Flags.Without(codec.FlagInAuction))
	if err := m.store.Patch(store.KindAsset, id, off, data); err != nil {
		return nil, err
	}
	if err := m.store.Delete(store.KindAuction, id); err != nil {
		return nil, err
	}
	stats.LiveAuctions--
	if err := m.saveStats(stats); err != nil {
		return nil, err
	}

	m.log.Info("auction settled",
		zap.Uint64("asset_id", id),
		zap.Uint64("winning_bid", auc.HighestBid),
		zap.Bool("sold", !auc.HighestBidder.IsZero()),
	)
	return effects, nil
}
