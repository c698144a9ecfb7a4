package bidding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"agentbay/internal/biddingerrors"
	"agentbay/internal/metrics"
	"agentbay/internal/models"
	"agentbay/internal/repository"
	"agentbay/utils"

	"github.com/shopspring/decimal"
)

const (
	DefaultLimit       = 100
	MaxLimit           = 500
	defaultLockTimeout = 5 * time.Second
	defaultMaxAttempts = 3
)

// BidEvent is published after a bid commits
type BidEvent struct {
	ProductID int64
	BidID     string
	UserID    string
	Amount    float64
	IsAutoBid bool
}

// Notifier receives accepted bids. Implementations must not block.
type Notifier interface {
	BidAccepted(event BidEvent)
}

// Option configures a BiddingService
type Option func(*BiddingService)

// WithLockTimeout bounds how long a submission waits for the product lock
func WithLockTimeout(d time.Duration) Option {
	return func(s *BiddingService) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithMaxAttempts bounds retries after a stale current bid
func WithMaxAttempts(n int) Option {
	return func(s *BiddingService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithIncrementPolicy replaces the default step table
func WithIncrementPolicy(p IncrementPolicy) Option {
	return func(s *BiddingService) {
		s.policy = p
	}
}

// WithNotifier registers a listener for accepted bids
func WithNotifier(n Notifier) Option {
	return func(s *BiddingService) {
		s.notifier = n
	}
}

// BiddingService is the ranking engine: it validates bids, records them and
// keeps exactly one winning bid per open auction.
type BiddingService struct {
	repo        repository.AuctionDB
	policy      IncrementPolicy
	lockTimeout time.Duration
	maxAttempts int
	notifier    Notifier
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, opts ...Option) *BiddingService {
	s := &BiddingService{
		repo:        repo,
		policy:      DefaultIncrementPolicy(),
		lockTimeout: defaultLockTimeout,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetNotifier registers a listener after construction. It must be called
// before the service handles bids.
func (s *BiddingService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Policy returns the increment policy in use
func (s *BiddingService) Policy() IncrementPolicy {
	return s.policy
}

// SubmitBid validates and records a bid. On success the bid is the product's
// only winning bid and every earlier eligible bid is outbid.
func (s *BiddingService) SubmitBid(ctx context.Context, req models.BidRequest) (models.Bid, error) {
	return s.submit(ctx, req, true)
}

// SubmitProxyBid records a bid placed by the auto-bidder. It follows the same
// path as SubmitBid but does not notify listeners.
func (s *BiddingService) SubmitProxyBid(ctx context.Context, req models.BidRequest) (models.Bid, error) {
	return s.submit(ctx, req, false)
}

func (s *BiddingService) submit(ctx context.Context, req models.BidRequest, notify bool) (models.Bid, error) {
	start := time.Now()
	bid, err := s.placeWithRetry(ctx, req)
	metrics.BidLatency.Observe(time.Since(start).Seconds())
	metrics.BidsSubmitted.WithLabelValues(outcome(err)).Inc()

	if err != nil {
		fields := map[string]any{
			"product_id": req.ProductID,
			"bid_id":     req.BidID,
			"user_id":    req.UserID,
			"amount":     req.Amount,
			"error":      err.Error(),
		}
		if isRejection(err) {
			utils.Warn("bid rejected", fields)
		} else {
			utils.Error("bid failed", fields)
		}
		return models.Bid{}, err
	}

	utils.Info("bid accepted", map[string]any{
		"product_id":  bid.ProductID,
		"bid_id":      bid.BidID,
		"user_id":     bid.UserID,
		"amount":      bid.Amount,
		"is_auto_bid": bid.IsAutoBid,
	})

	if notify && s.notifier != nil {
		s.notifier.BidAccepted(BidEvent{
			ProductID: bid.ProductID,
			BidID:     bid.BidID,
			UserID:    bid.UserID,
			Amount:    bid.Amount,
			IsAutoBid: bid.IsAutoBid,
		})
	}
	return bid, nil
}

func (s *BiddingService) placeWithRetry(ctx context.Context, req models.BidRequest) (models.Bid, error) {
	if err := validateRequest(req); err != nil {
		return models.Bid{}, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		bid, err := s.placeOnce(ctx, req)
		if err == nil {
			return bid, nil
		}
		if !errors.Is(err, repository.ErrStaleCurrentBid) {
			return models.Bid{}, classify(err)
		}
		metrics.BidRetries.Inc()
		utils.Warn("current bid moved during submission, retrying", map[string]any{
			"product_id": req.ProductID,
			"bid_id":     req.BidID,
			"attempt":    attempt,
		})
	}
	return models.Bid{}, fmt.Errorf("service: product %d after %d attempts: %w", req.ProductID, s.maxAttempts, biddingerrors.ErrContention)
}

// placeOnce runs one bid transaction under the lock timeout
func (s *BiddingService) placeOnce(ctx context.Context, req models.BidRequest) (models.Bid, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	var placed models.Bid
	err := s.repo.RunInTx(ctx, func(tx repository.LedgerTx) error {
		product, err := tx.LockProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}

		exists, err := tx.BidExists(ctx, req.BidID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("service: bid %s: %w", req.BidID, biddingerrors.ErrDuplicateBid)
		}

		if product.AuctionStatus == models.AuctionClosed {
			return fmt.Errorf("service: product %d: %w", product.ID, biddingerrors.ErrAuctionClosed)
		}

		if err := s.checkAmount(product, req.Amount); err != nil {
			return err
		}

		placed, err = tx.AppendBid(ctx, models.Bid{
			BidID:      req.BidID,
			ProductID:  product.ID,
			UserID:     req.UserID,
			Amount:     req.Amount,
			Status:     models.BidWinning,
			IsAutoBid:  req.IsAutoBid,
			MaxAutoBid: req.MaxAutoBid,
			CreatedAt:  time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		if _, err := tx.SetStatusBulk(ctx, product.ID, placed.ID, models.EligibleStatuses, models.BidOutbid); err != nil {
			return err
		}

		return tx.UpdateCurrentBid(ctx, product.ID, product.CurrentBid, req.Amount)
	})
	if err != nil {
		return models.Bid{}, err
	}
	return placed, nil
}

// checkAmount applies the strict-raise, increment and reserve rules
func (s *BiddingService) checkAmount(product models.Product, amount float64) error {
	current := product.CurrentBid
	minimum, above, meets := s.policy.check(current, amount)

	if !above {
		return biddingerrors.Reject(biddingerrors.ErrBidTooLow, current, minimum)
	}
	if !meets {
		return biddingerrors.Reject(biddingerrors.ErrBelowMinimumIncrement, current, minimum)
	}
	if product.ReservePrice != nil {
		reserve := decimal.NewFromFloat(*product.ReservePrice)
		if decimal.NewFromFloat(amount).LessThan(reserve) {
			return biddingerrors.Reject(biddingerrors.ErrReserveNotMet, current, math.Max(minimum, *product.ReservePrice))
		}
	}
	return nil
}

// MinimumNextBid returns the smallest amount the product would accept now
func (s *BiddingService) MinimumNextBid(product models.Product) float64 {
	next := s.policy.MinimumNext(product.CurrentBid)
	if product.ReservePrice != nil && *product.ReservePrice > next {
		return *product.ReservePrice
	}
	return next
}

// CloseAuction ends bidding on a product: the winning bid becomes won and
// every other bid is lost.
func (s *BiddingService) CloseAuction(ctx context.Context, productID int64) (models.AuctionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	result := models.AuctionResult{ProductID: productID}
	err := s.repo.RunInTx(ctx, func(tx repository.LedgerTx) error {
		product, err := tx.LockProduct(ctx, productID)
		if err != nil {
			return err
		}
		if product.AuctionStatus == models.AuctionClosed {
			return fmt.Errorf("service: product %d: %w", productID, biddingerrors.ErrAuctionClosed)
		}
		result.FinalPrice = product.CurrentBid

		var winnerID int64
		winner, err := tx.HighestActiveBid(ctx, productID)
		switch {
		case err == nil:
			winnerID = winner.ID
			if err := tx.SetStatus(ctx, winner.ID, models.BidWon); err != nil {
				return err
			}
			winner.Status = models.BidWon
			result.Winner = &winner
			result.FinalPrice = winner.Amount
		case errors.Is(err, biddingerrors.ErrNoBids):
		default:
			return err
		}

		lost, err := tx.SetStatusBulk(ctx, productID, winnerID,
			[]models.BidStatus{models.BidActive, models.BidWinning, models.BidOutbid}, models.BidLost)
		if err != nil {
			return err
		}
		result.BidsLost = lost

		return tx.SetAuctionStatus(ctx, productID, models.AuctionClosed)
	})
	if err != nil {
		return models.AuctionResult{}, classify(err)
	}

	utils.Info("auction closed", map[string]any{
		"product_id":  productID,
		"final_price": result.FinalPrice,
		"has_winner":  result.Winner != nil,
		"bids_lost":   result.BidsLost,
	})
	return result, nil
}

// GetBidsForProduct returns a product's bids, highest amount first or newest first
func (s *BiddingService) GetBidsForProduct(ctx context.Context, productID int64, order models.BidOrder, limit int) ([]models.Bid, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("service: %w - invalid product ID", biddingerrors.ErrInvalidBid)
	}
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, fmt.Errorf("service: failed to get bids for product %d: %w", productID, err)
	}

	bids, err := s.repo.GetBidsByProduct(ctx, productID, order, NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for product %d: %w", productID, err)
	}
	return bids, nil
}

// GetHighestBid returns the current winning bid for a product
func (s *BiddingService) GetHighestBid(ctx context.Context, productID int64) (models.Bid, error) {
	if productID <= 0 {
		return models.Bid{}, fmt.Errorf("service: %w - invalid product ID", biddingerrors.ErrInvalidBid)
	}
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get highest bid for product %d: %w", productID, err)
	}

	bid, err := s.repo.GetHighestActiveBid(ctx, productID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get highest bid for product %d: %w", productID, err)
	}
	return bid, nil
}

// GetBidsByUser returns a user's bid history, newest first
func (s *BiddingService) GetBidsByUser(ctx context.Context, userID string, activeOnly bool, limit int) ([]models.Bid, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", biddingerrors.ErrInvalidBid)
	}

	bids, err := s.repo.GetBidsByUser(ctx, userID, activeOnly, NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for user %s: %w", userID, err)
	}
	return bids, nil
}

// NormalizeLimit applies the default page size and clamps to MaxLimit
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func validateRequest(req models.BidRequest) error {
	switch {
	case req.ProductID <= 0:
		return fmt.Errorf("service: %w - invalid product ID", biddingerrors.ErrInvalidBid)
	case req.BidID == "" || req.UserID == "":
		return fmt.Errorf("service: %w - missing bid ID or user ID", biddingerrors.ErrInvalidBid)
	case req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0):
		return fmt.Errorf("service: %w - non-positive bid amount", biddingerrors.ErrInvalidBid)
	}
	if req.MaxAutoBid != nil {
		if !req.IsAutoBid {
			return fmt.Errorf("service: %w - max_auto_bid requires is_auto_bid", biddingerrors.ErrInvalidBid)
		}
		if *req.MaxAutoBid < req.Amount {
			return fmt.Errorf("service: %w - max_auto_bid below bid amount", biddingerrors.ErrInvalidBid)
		}
	} else if req.IsAutoBid {
		return fmt.Errorf("service: %w - auto bid without max_auto_bid", biddingerrors.ErrInvalidBid)
	}
	return nil
}

// known taxonomy errors pass through; anything else is a persistence failure
func classify(err error) error {
	for _, known := range []error{
		biddingerrors.ErrProductNotFound,
		biddingerrors.ErrDuplicateBid,
		biddingerrors.ErrBidTooLow,
		biddingerrors.ErrBelowMinimumIncrement,
		biddingerrors.ErrReserveNotMet,
		biddingerrors.ErrAuctionClosed,
		biddingerrors.ErrContention,
		biddingerrors.ErrPersistence,
		biddingerrors.ErrInvalidBid,
		context.Canceled,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("service: %w: %w", biddingerrors.ErrPersistence, err)
}

func isRejection(err error) bool {
	var rej *biddingerrors.BidRejection
	return errors.As(err, &rej) ||
		errors.Is(err, biddingerrors.ErrDuplicateBid) ||
		errors.Is(err, biddingerrors.ErrAuctionClosed) ||
		errors.Is(err, biddingerrors.ErrInvalidBid) ||
		errors.Is(err, biddingerrors.ErrProductNotFound)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return "invalid"
	case errors.Is(err, biddingerrors.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, biddingerrors.ErrDuplicateBid):
		return "duplicate"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return "too_low"
	case errors.Is(err, biddingerrors.ErrBelowMinimumIncrement):
		return "below_increment"
	case errors.Is(err, biddingerrors.ErrReserveNotMet):
		return "reserve_not_met"
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return "closed"
	case errors.Is(err, biddingerrors.ErrContention):
		return "contention"
	default:
		return "error"
	}
}
