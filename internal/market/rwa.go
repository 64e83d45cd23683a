package market

import (
	"go.uber.org/zap"

	"github.com/muse-dev/muse-market/internal/vault"
	"github.com/muse-dev/muse-market/pkg/codec"
	"github.com/muse-dev/muse-market/pkg/store"
)

// ValidatePhysicalAsset marks a physical-backed asset as authenticated
// and unfreezes the token. Only the registered authenticator can call
// it, and only once.
func (m *Market) ValidatePhysicalAsset(caller codec.Address, id uint64) ([]Effect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rwa, err := m.loadRWA(id)
	if err != nil {
		return nil, err
	}
	a, err := m.loadAsset(id)
	if err != nil {
		return nil, err
	}
	if rwa.Authenticator != caller {
		return nil, ErrNotAuthenticator
	}
	if a.Flags.Has(codec.FlagRWAAuthenticated) {
		return nil, ErrAlreadyAuthenticated
	}

	off, data := codec.AssetFlagsPatch(a.Flags.With(codec.FlagRWAAuthenticated))
	if err := m.store.Patch(store.KindAsset, id, off, data); err != nil {
		return nil, err
	}

	m.log.Info("physical asset authenticated", zap.Uint64("asset_id", id))
	return []Effect{{Kind: EffectUnfreeze, AssetID: id, Memo: "muse:authenticated"}}, nil
}

// RedeemPhysicalAsset records that the custodian has released the
// physical item. The asset must be authenticated first. Redemption
// permanently locks the asset from sales; an open auction is cancelled
// and its highest bidder refunded. The tracking memo is encrypted at
// rest when the marketplace carries a memo key.
func (m *Market) RedeemPhysicalAsset(caller codec.Address, id uint64, trackingMemo string) ([]Effect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rwa, err := m.loadRWA(id)
	if err != nil {
		return nil, err
	}
	a, err := m.loadAsset(id)
	if err != nil {
		return nil, err
	}
	if rwa.Custodian != caller {
		return nil, ErrNotCustodian
	}
	if a.Flags.Has(codec.FlagRWARedeemed) {
		return nil, ErrRedeemed
	}
	if !a.Flags.Has(codec.FlagRWAAuthenticated) {
		return nil, ErrNotAuthenticated
	}

	memo := trackingMemo
	if len(m.cfg.MemoKey) > 0 {
		memo, err = vault.Encrypt(trackingMemo, m.cfg.MemoKey)
		if err != nil {
			return nil, err
		}
	}

	var effects []Effect
	if a.Flags.Has(codec.FlagInAuction) {
		auc, err := m.loadAuction(id)
		if err != nil {
			return nil, err
		}
		if !auc.HighestBidder.IsZero() {
			effects = append(effects, pay(auc.HighestBidder, auc.HighestBid, "muse:refund"))
		}
		if err := m.store.Delete(store.KindAuction, id); err != nil {
			return nil, err
		}
		stats, err := m.loadStats()
		if err != nil {
			return nil, err
		}
		stats.LiveAuctions--
		if err := m.saveStats(stats); err != nil {
			return nil, err
		}
	}

	rwa.RedemptionRound = m.rounds.Round()
	rwa.TrackingMemo = []byte(memo)
	if err := m.store.Put(store.KindRWA, id, rwa.Encode()); err != nil {
		return nil, err
	}

	flags := a.Flags.With(codec.FlagRWARedeemed).Without(codec.FlagInAuction)
	off, data := codec.AssetFlagsPatch(flags)
	if err := m.store.Patch(store.KindAsset, id, off, data); err != nil {
		return nil, err
	}

	m.log.Info("physical asset redeemed",
		zap.Uint64("asset_id", id),
		zap.Uint64("round", rwa.RedemptionRound),
	)
	return effects, nil
}

// RWAInfo returns the physical-asset record. The tracking memo is
// decrypted when the marketplace carries a memo key.
func (m *Market) RWAInfo(id uint64) (*codec.RWARecord, error) {
	rwa, err := m.loadRWA(id)
	if err != nil {
		return nil, err
	}
	if len(m.cfg.MemoKey) > 0 && len(rwa.TrackingMemo) > 0 {
		plain, err := vault.Decrypt(string(rwa.TrackingMemo), m.cfg.MemoKey)
		if err != nil {
			return nil, err
		}
		rwa.TrackingMemo = []byte(plain)
	}
	return rwa, nil
}
