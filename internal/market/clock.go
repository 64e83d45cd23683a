package market

import "time"

// RoundSource supplies the current round number. Auctions and royalty
// decay are driven entirely by rounds, never by wall-clock reads inside
// the engine, so tests can pin time exactly.
type RoundSource interface {
	Round() uint64
}

// RoundFunc adapts a plain function to a RoundSource.
type RoundFunc func() uint64

func (f RoundFunc) Round() uint64 { return f() }

// WallClock derives rounds from elapsed time since genesis at a fixed
// interval, mimicking a ~4s block chain.
func WallClock(genesis time.Time, interval time.Duration) RoundSource {
	return RoundFunc(func() uint64 {
		elapsed := time.Since(genesis)
		if elapsed < 0 {
			return 0
		}
		return uint64(elapsed / interval)
	})
}
