package autobid

import (
	"context"
	"errors"
	"fmt"
	"math"

	bidding "agentbay/internal/biddingService"
	"agentbay/internal/biddingerrors"
	"agentbay/internal/metrics"
	"agentbay/internal/models"
	"agentbay/internal/repository"
	"agentbay/utils"
)

const (
	DefaultQueueSize = 256
	DefaultMaxRounds = 100
)

// ProxyBidder places bids on behalf of auto-bidders
type ProxyBidder interface {
	SubmitProxyBid(ctx context.Context, req models.BidRequest) (models.Bid, error)
	MinimumNextBid(product models.Product) float64
}

// Worker answers accepted bids with counter-bids from standing auto-bid
// declarations. A counter-bid never exceeds the declaring bidder's ceiling.
type Worker struct {
	ledger    repository.AuctionDB
	bidder    ProxyBidder
	events    chan bidding.BidEvent
	maxRounds int
}

// NewWorker creates a worker with a buffered event queue
func NewWorker(ledger repository.AuctionDB, bidder ProxyBidder, queueSize, maxRounds int) *Worker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Worker{
		ledger:    ledger,
		bidder:    bidder,
		events:    make(chan bidding.BidEvent, queueSize),
		maxRounds: maxRounds,
	}
}

// BidAccepted queues an event without blocking. Events are dropped when the
// queue is full.
func (w *Worker) BidAccepted(event bidding.BidEvent) {
	select {
	case w.events <- event:
	default:
		metrics.ProxyBids.WithLabelValues("dropped").Inc()
		utils.Warn("auto-bid queue full, dropping event", map[string]any{
			"product_id": event.ProductID,
			"bid_id":     event.BidID,
		})
	}
}

// Run processes events until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	utils.Info("auto-bid worker started", map[string]any{"max_rounds": w.maxRounds})
	for {
		select {
		case <-ctx.Done():
			utils.Info("auto-bid worker stopped", nil)
			return nil
		case event := <-w.events:
			placed, err := w.Respond(ctx, event.ProductID)
			if err != nil && !errors.Is(err, context.Canceled) {
				utils.Error("auto-bid round failed", map[string]any{
					"product_id": event.ProductID,
					"error":      err.Error(),
				})
			}
			if placed > 0 {
				utils.Debug("auto-bid rounds finished", map[string]any{
					"product_id": event.ProductID,
					"placed":     placed,
				})
			}
		}
	}
}

// Respond drives the proxy war on a product until no auto-bidder can beat
// the current winner. Each round places one bid chosen by counterBid, so a
// war between two declarations settles in at most two bids. A war still
// running after maxRounds bids is queued again. It returns the number of
// proxy bids placed.
func (w *Worker) Respond(ctx context.Context, productID int64) (int, error) {
	placed := 0
	for round := 0; ; round++ {
		product, err := w.ledger.GetProduct(ctx, productID)
		if err != nil {
			return placed, fmt.Errorf("autobid: %w", err)
		}
		if product.AuctionStatus != models.AuctionOpen {
			return placed, nil
		}

		winner, err := w.ledger.GetHighestActiveBid(ctx, productID)
		if errors.Is(err, biddingerrors.ErrNoBids) {
			return placed, nil
		}
		if err != nil {
			return placed, fmt.Errorf("autobid: %w", err)
		}

		declarations, err := w.ledger.GetAutoBids(ctx, productID)
		if err != nil {
			return placed, fmt.Errorf("autobid: %w", err)
		}

		bidder, amount, ok := w.counterBid(product, winner, declarations)
		if !ok {
			return placed, nil
		}
		if round == w.maxRounds {
			utils.Warn("auto-bid round limit reached, requeueing product", map[string]any{
				"product_id": productID,
				"max_rounds": w.maxRounds,
			})
			w.BidAccepted(bidding.BidEvent{ProductID: productID})
			return placed, nil
		}

		ceiling := *bidder.MaxAutoBid
		bid, err := w.bidder.SubmitProxyBid(ctx, models.BidRequest{
			ProductID:  productID,
			BidID:      utils.PrefixedID("auto"),
			UserID:     bidder.UserID,
			Amount:     amount,
			IsAutoBid:  true,
			MaxAutoBid: &ceiling,
		})
		switch {
		case err == nil:
			placed++
			metrics.ProxyBids.WithLabelValues("placed").Inc()
			utils.Info("proxy bid placed", map[string]any{
				"product_id": productID,
				"bid_id":     bid.BidID,
				"user_id":    bid.UserID,
				"amount":     bid.Amount,
				"ceiling":    ceiling,
			})
		case isTransient(err):
			// the product moved under us; re-read and try again
			metrics.ProxyBids.WithLabelValues("retried").Inc()
		default:
			metrics.ProxyBids.WithLabelValues("failed").Inc()
			return placed, fmt.Errorf("autobid: proxy bid for %s: %w", bidder.UserID, err)
		}
	}
}

// counterBid picks the next proxy bid for the product. The highest ceiling
// ends up winning at one increment over the runner-up's ceiling, capped at
// its own ceiling. On equal ceilings the standing winner keeps the lead.
func (w *Worker) counterBid(product models.Product, winner models.Bid, declarations []models.Bid) (models.Bid, float64, bool) {
	next := w.bidder.MinimumNextBid(product)
	challenger, ok := pickChallenger(declarations, winner.UserID, next)
	if !ok {
		return models.Bid{}, 0, false
	}
	holder, held := strongestDeclaration(declarations, winner.UserID)

	// the standing winner's reach: its best ceiling, or the bid itself
	winnerCeiling := winner.Amount
	if held && *holder.MaxAutoBid > winnerCeiling {
		winnerCeiling = *holder.MaxAutoBid
	}
	challengerCeiling := *challenger.MaxAutoBid

	over := func(amount float64) float64 {
		p := product
		p.CurrentBid = amount
		return w.bidder.MinimumNextBid(p)
	}

	if challengerCeiling > winnerCeiling {
		// the winner first spends its own ceiling when the challenger can still top it
		if winnerCeiling > product.CurrentBid && winnerCeiling >= next && over(winnerCeiling) <= challengerCeiling {
			return holder, winnerCeiling, true
		}
		return challenger, math.Max(next, math.Min(challengerCeiling, over(winnerCeiling))), true
	}

	if over(challengerCeiling) <= winnerCeiling {
		return challenger, challengerCeiling, true
	}
	// the challenger's ceiling sits within one increment of the winner's
	return holder, winnerCeiling, true
}

// pickChallenger returns the declaration with the highest ceiling that is not
// held by the current winner and can still cover next. Declarations are
// oldest first, so the earliest wins a tie.
func pickChallenger(declarations []models.Bid, winnerID string, next float64) (models.Bid, bool) {
	var best models.Bid
	found := false
	for _, d := range declarations {
		if d.UserID == winnerID || d.MaxAutoBid == nil || *d.MaxAutoBid < next {
			continue
		}
		if !found || *d.MaxAutoBid > *best.MaxAutoBid {
			best = d
			found = true
		}
	}
	return best, found
}

// strongestDeclaration returns the user's declaration with the highest ceiling
func strongestDeclaration(declarations []models.Bid, userID string) (models.Bid, bool) {
	var best models.Bid
	found := false
	for _, d := range declarations {
		if d.UserID != userID || d.MaxAutoBid == nil {
			continue
		}
		if !found || *d.MaxAutoBid > *best.MaxAutoBid {
			best = d
			found = true
		}
	}
	return best, found
}

func isTransient(err error) bool {
	return errors.Is(err, biddingerrors.ErrBidTooLow) ||
		errors.Is(err, biddingerrors.ErrBelowMinimumIncrement) ||
		errors.Is(err, biddingerrors.ErrContention)
}
