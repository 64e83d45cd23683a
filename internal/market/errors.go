package market

import (
	"errors"
	"fmt"
)

// Error categories. Every operation failure wraps exactly one of these,
// so transports can map errors to status codes with errors.Is.
var (
	ErrValidation      = errors.New("invalid request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrStateConflict   = errors.New("state conflict")
	ErrPaymentMismatch = errors.New("payment mismatch")
	ErrNotFound        = errors.New("not found")
)

var (
	ErrAssetNotFound   = fmt.Errorf("%w: unknown asset", ErrNotFound)
	ErrAuctionNotFound = fmt.Errorf("%w: no active auction for this asset", ErrNotFound)
	ErrSplitNotFound   = fmt.Errorf("%w: no co-creator registry for this asset", ErrNotFound)
	ErrRWANotFound     = fmt.Errorf("%w: not a physical-backed asset", ErrNotFound)

	ErrRoyaltyTooHigh   = fmt.Errorf("%w: royalty exceeds 20%%", ErrValidation)
	ErrFloorAboveRate   = fmt.Errorf("%w: floor must be <= royalty", ErrValidation)
	ErrSharesExceed     = fmt.Errorf("%w: total split exceeds 100%%", ErrValidation)
	ErrTooManySlots     = fmt.Errorf("%w: at most 4 co-creators", ErrValidation)
	ErrZeroDuration     = fmt.Errorf("%w: auction duration must be positive", ErrValidation)
	ErrBidTooLow        = fmt.Errorf("%w: bid must exceed current highest bid", ErrValidation)
	ErrBidBelowReserve  = fmt.Errorf("%w: bid below reserve price", ErrValidation)
	ErrEmptyBatch       = fmt.Errorf("%w: batch must contain at least one item", ErrValidation)

	ErrNotCreator       = fmt.Errorf("%w: only the creator may do this", ErrUnauthorized)
	ErrNotCustodian     = fmt.Errorf("%w: only the custodian can redeem", ErrUnauthorized)
	ErrNotAuthenticator = fmt.Errorf("%w: only the registered authenticator can validate", ErrUnauthorized)
	ErrNotCoCreator     = fmt.Errorf("%w: caller is not a registered co-creator", ErrUnauthorized)

	ErrAuctionOnly          = fmt.Errorf("%w: asset is auction-only", ErrStateConflict)
	ErrInAuction            = fmt.Errorf("%w: asset is locked in an auction", ErrStateConflict)
	ErrAuctionEnded         = fmt.Errorf("%w: auction has ended", ErrStateConflict)
	ErrAuctionRunning       = fmt.Errorf("%w: auction still running", ErrStateConflict)
	ErrRedeemed             = fmt.Errorf("%w: physical item already redeemed", ErrStateConflict)
	ErrNotAuthenticated     = fmt.Errorf("%w: physical item not yet authenticated", ErrStateConflict)
	ErrAlreadyAuthenticated = fmt.Errorf("%w: physical item already authenticated", ErrStateConflict)
	ErrAlreadyAccepted      = fmt.Errorf("%w: collaboration already accepted", ErrStateConflict)
	ErrBuyoutDisabled       = fmt.Errorf("%w: royalty buy-out not enabled", ErrStateConflict)
	ErrRoyaltyWaived        = fmt.Errorf("%w: royalties already waived", ErrStateConflict)

	ErrWrongPrice  = fmt.Errorf("%w: payment must equal the list price", ErrPaymentMismatch)
	ErrWrongBuyout = fmt.Errorf("%w: payment must equal the buy-out price", ErrPaymentMismatch)
)
