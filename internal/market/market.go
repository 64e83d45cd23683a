// Package market implements the settlement engine: deterministic,
// atomic operations over packed asset, auction, split and RWA records.
package market

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/muse-dev/muse-market/pkg/codec"
	"github.com/muse-dev/muse-market/pkg/store"
)

// statsID is the record ID of the single platform stats record.
const statsID = 0

// Config carries the deployment-time settings of a marketplace.
type Config struct {
	// Treasury receives the platform fee and the buy-out cut.
	Treasury codec.Address
	// MemoKey, when set, is the AES-256 key used to encrypt redemption
	// tracking memos at rest. Nil stores memos in the clear.
	MemoKey []byte
}

// Market is the settlement engine. All mutating operations validate
// fully before touching any record, then apply their writes and return
// the ledger effects; a returned error means nothing changed.
type Market struct {
	mu     sync.Mutex
	store  store.RecordStore
	rounds RoundSource
	cfg    Config
	log    *zap.Logger
}

// New builds a Market on top of a record store.
func New(s store.RecordStore, rounds RoundSource, cfg Config, log *zap.Logger) *Market {
	if log == nil {
		log = zap.NewNop()
	}
	return &Market{store: s, rounds: rounds, cfg: cfg, log: log}
}

func (m *Market) loadAsset(id uint64) (*codec.AssetRecord, error) {
	raw, err := m.store.Get(store.KindAsset, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return codec.DecodeAsset(raw)
}

func (m *Market) loadAuction(id uint64) (*codec.AuctionRecord, error) {
	raw, err := m.store.Get(store.KindAuction, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, ErrAuctionNotFound
	}
	if err != nil {
		return nil, err
	}
	return codec.DecodeAuction(raw)
}

// loadSplit returns (nil, nil) when no registry exists; royalty
// distribution treats that as "everything to the creator".
func (m *Market) loadSplit(id uint64) (*codec.SplitRecord, error) {
	raw, err := m.store.Get(store.KindSplit, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return codec.DecodeSplit(raw)
}

func (m *Market) loadRWA(id uint64) (*codec.RWARecord, error) {
	raw, err := m.store.Get(store.KindRWA, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, ErrRWANotFound
	}
	if err != nil {
		return nil, err
	}
	return codec.DecodeRWA(raw)
}

func (m *Market) loadStats() (*codec.StatsRecord, error) {
	raw, err := m.store.Get(store.KindSystem, statsID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return &codec.StatsRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	return codec.DecodeStats(raw)
}

func (m *Market) saveStats(s *codec.StatsRecord) error {
	return m.store.Put(store.KindSystem, statsID, s.Encode())
}

// NFTInfo returns the asset record.
func (m *Market) NFTInfo(id uint64) (*codec.AssetRecord, error) {
	return m.loadAsset(id)
}

// CurrentRoyalty returns the effective royalty rate at the current
// round, after waiver and decay.
func (m *Market) CurrentRoyalty(id uint64) (uint64, error) {
	a, err := m.loadAsset(id)
	if err != nil {
		return 0, err
	}
	return effectiveRoyalty(a, m.rounds.Round()), nil
}

// AuctionInfo returns the open auction record for an asset.
func (m *Market) AuctionInfo(id uint64) (*codec.AuctionRecord, error) {
	return m.loadAuction(id)
}

// SplitInfo returns the co-creator registry for an asset.
func (m *Market) SplitInfo(id uint64) (*codec.SplitRecord, error) {
	split, err := m.loadSplit(id)
	if err != nil {
		return nil, err
	}
	if split == nil {
		return nil, ErrSplitNotFound
	}
	return split, nil
}

// PlatformStats returns the aggregate counters.
func (m *Market) PlatformStats() (*codec.StatsRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadStats()
}

// SplitPreview itemizes where a hypothetical sale at price would go,
// using the royalty rate effective right now. Nothing is written.
func (m *Market) SplitPreview(id uint64, price uint64) (*Breakdown, error) {
	a, err := m.loadAsset(id)
	if err != nil {
		return nil, err
	}
	split, err := m.loadSplit(id)
	if err != nil {
		return nil, err
	}
	bps := effectiveRoyalty(a, m.rounds.Round())
	_, bd := distribute(a, split, price, bps, a.Creator, m.cfg.Treasury)
	return bd, nil
}
