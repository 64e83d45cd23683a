package market

import "github.com/muse-dev/muse-market/pkg/codec"

// effectiveRoyalty computes the royalty rate in force at round.
//
// Decay is linear in whole elapsed months: each month after DecayStart
// removes (royalty-floor)/100 of the span, clamped at the floor. A
// waived royalty is always zero, and decay never applies before
// DecayStart or when DecayStart is zero.
func effectiveRoyalty(a *codec.AssetRecord, round uint64) uint64 {
	if a.Flags.Has(codec.FlagRoyaltyWaived) {
		return 0
	}
	if a.DecayStart == 0 || round < a.DecayStart {
		return a.RoyaltyBPS
	}
	months := (round - a.DecayStart) / RoundsPerMonth
	span := a.RoyaltyBPS - a.FloorBPS
	cut := span * months / 100
	if cut > span {
		return a.FloorBPS
	}
	return a.RoyaltyBPS - cut
}

// distribute produces the payment effects of a sale: platform fee to
// the treasury, royalty shares to each registered co-creator, royalty
// remainder to the creator, and the net to the seller. All divisions
// floor; the remainder routing guarantees the amounts sum exactly to
// the sale price.
//
// Shares are paid whether or not the slot has accepted; acceptance is
// consent bookkeeping, not a payment gate.
func distribute(a *codec.AssetRecord, split *codec.SplitRecord, price, royaltyBPS uint64, seller, treasury codec.Address) ([]Effect, *Breakdown) {
	bd := &Breakdown{
		SalePrice:    price,
		RoyaltyBPS:   royaltyBPS,
		MuseFee:      price * FeeBPS / BasisPoints,
		TotalRoyalty: price * royaltyBPS / BasisPoints,
	}

	var effects []Effect
	if bd.MuseFee > 0 {
		effects = append(effects, pay(treasury, bd.MuseFee, "muse:fee"))
	}

	var paidToSplits uint64
	if split != nil {
		for i, slot := range split.Slots {
			if slot.Address.IsZero() {
				continue
			}
			share := bd.TotalRoyalty * uint64(slot.ShareBPS) / BasisPoints
			bd.Shares[i] = share
			if share > 0 {
				effects = append(effects, pay(slot.Address, share, "muse:royalty"))
			}
			paidToSplits += share
		}
	}

	bd.CreatorRemainder = bd.TotalRoyalty - paidToSplits
	if bd.CreatorRemainder > 0 {
		effects = append(effects, pay(a.Creator, bd.CreatorRemainder, "muse:royalty"))
	}

	bd.SellerNet = price - bd.TotalRoyalty - bd.MuseFee
	if bd.SellerNet > 0 {
		effects = append(effects, pay(seller, bd.SellerNet, "muse:sale"))
	}
	return effects, bd
}
