package helpers

import (
	"time"

	model "agentbay/internal/models"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	BidID      string   `json:"bid_id" binding:"required"`
	UserID     string   `json:"user_id" binding:"required"`
	Amount     float64  `json:"amount" binding:"required,gt=0"`
	IsAutoBid  bool     `json:"is_auto_bid"`
	MaxAutoBid *float64 `json:"max_auto_bid" binding:"omitempty,gt=0"`
}

type BidResponse struct {
	ID         int64    `json:"id"`
	BidID      string   `json:"bid_id"`
	ProductID  int64    `json:"product_id"`
	UserID     string   `json:"user_id"`
	Amount     float64  `json:"amount"`
	Status     string   `json:"status"`
	IsAutoBid  bool     `json:"is_auto_bid"`
	MaxAutoBid *float64 `json:"max_auto_bid,omitempty"`
	CreatedAt  string   `json:"created_at"`
}

type AuctionResultResponse struct {
	ProductID  int64        `json:"product_id"`
	Winner     *BidResponse `json:"winner"`
	FinalPrice float64      `json:"final_price"`
	BidsLost   int64        `json:"bids_lost"`
}

// RejectionDetails tells the bidder the smallest amount that would be accepted
type RejectionDetails struct {
	CurrentBid float64 `json:"current_bid"`
	MinimumBid float64 `json:"minimum_bid"`
}

func ToBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		ID:         bid.ID,
		BidID:      bid.BidID,
		ProductID:  bid.ProductID,
		UserID:     bid.UserID,
		Amount:     bid.Amount,
		Status:     string(bid.Status),
		IsAutoBid:  bid.IsAutoBid,
		MaxAutoBid: bid.MaxAutoBid,
		CreatedAt:  bid.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func ToBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, ToBidResponse(b))
	}
	return out
}

func ToAuctionResultResponse(r model.AuctionResult) AuctionResultResponse {
	resp := AuctionResultResponse{
		ProductID:  r.ProductID,
		FinalPrice: r.FinalPrice,
		BidsLost:   r.BidsLost,
	}
	if r.Winner != nil {
		w := ToBidResponse(*r.Winner)
		resp.Winner = &w
	}
	return resp
}
