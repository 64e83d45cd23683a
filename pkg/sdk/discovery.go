package sdk

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/muse-dev/muse-market/internal/market"
	"github.com/muse-dev/muse-market/internal/vault"
	"github.com/muse-dev/muse-market/pkg/codec"
	"github.com/muse-dev/muse-market/pkg/store"
)

// Genesis anchors the wall-clock round counter so embedded instances
// agree on round numbers across restarts.
var Genesis = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// RoundInterval is the embedded block time.
const RoundInterval = 4 * time.Second

// Embedded runs the settlement engine in-process, persisting records
// to the local data directory.
type Embedded struct {
	*market.Market
	store store.RecordStore
}

func (e *Embedded) Close() error { return e.store.Close() }

// Open initializes a marketplace handle based on the environment.
// When MUSE_ADDR points at a remote daemon it returns a network
// client; otherwise it falls back to embedded mode, which requires
// MUSE_TREASURY (hex address) and honors MUSE_MEMO_KEY.
func Open(dataDir string) (Marketplace, error) {
	if remoteAddr := os.Getenv("MUSE_ADDR"); remoteAddr != "" {
		client, err := Connect(remoteAddr)
		if err == nil {
			return client, nil
		}
		// Connection failed; fall back to embedded mode below.
	}

	treasury, err := codec.ParseAddress(os.Getenv("MUSE_TREASURY"))
	if err != nil || treasury.IsZero() {
		return nil, fmt.Errorf("embedded mode requires MUSE_TREASURY to be a hex address")
	}

	cfg := market.Config{Treasury: treasury}
	if keyHex := os.Getenv("MUSE_MEMO_KEY"); keyHex != "" {
		key, err := vault.ParseKey(keyHex)
		if err != nil {
			return nil, err
		}
		cfg.MemoKey = key
	}

	p, err := store.NewPersistence(dataDir)
	if err != nil {
		return nil, err
	}
	records, err := p.LoadAll()
	if err != nil {
		return nil, err
	}
	st := store.NewMemStore(records, p)

	rounds := market.WallClock(Genesis, RoundInterval)
	return &Embedded{
		Market: market.New(st, rounds, cfg, zap.NewNop()),
		store:  st,
	}, nil
}
