package biddingerrors

import (
	"errors"
	"fmt"
)

// Repository-level errors
var (
	ErrProductNotFound = errors.New("product not found")
	ErrBidNotFound     = errors.New("bid not found")
	ErrNoBids          = errors.New("no bids found for product")
	ErrDuplicateBid    = errors.New("duplicate bid id")
	ErrContention      = errors.New("product is busy, retry the bid")
	ErrPersistence     = errors.New("persistence failure")
)

// business logic errors
var (
	ErrInvalidBid            = errors.New("invalid bid")
	ErrInvalidProduct        = errors.New("invalid product")
	ErrBidTooLow             = errors.New("bid amount too low")
	ErrBelowMinimumIncrement = errors.New("bid below minimum increment")
	ErrReserveNotMet         = errors.New("reserve price not met")
	ErrAuctionClosed         = errors.New("auction is closed")
	ErrInvalidTransition     = errors.New("invalid bid status transition")
)

// BidRejection reports why a bid was refused and the smallest amount that
// would have been accepted.
type BidRejection struct {
	Reason     error
	CurrentBid float64
	MinimumBid float64
}

func (e *BidRejection) Error() string {
	return fmt.Sprintf("%v: current bid %.2f, minimum acceptable %.2f", e.Reason, e.CurrentBid, e.MinimumBid)
}

func (e *BidRejection) Unwrap() error {
	return e.Reason
}

// Reject builds a BidRejection for the given reason
func Reject(reason error, current, minimum float64) error {
	return &BidRejection{Reason: reason, CurrentBid: current, MinimumBid: minimum}
}

// IsRetryable reports whether the caller may safely resubmit the same bid
func IsRetryable(err error) bool {
	return errors.Is(err, ErrContention) || errors.Is(err, ErrPersistence)
}
