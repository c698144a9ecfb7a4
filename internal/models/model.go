package models

import "time"

// Product represents a catalog listing that can be bid on
type Product struct {
	ID              int64         `json:"id" db:"id"`
	Title           string        `json:"title" db:"title"`
	Description     string        `json:"description" db:"description"`
	Condition       Condition     `json:"condition" db:"condition"`
	Category        string        `json:"category" db:"category"`
	Brand           string        `json:"brand" db:"brand"`
	Model           string        `json:"model" db:"model"`
	Tags            Tags          `json:"tags" db:"tags"`
	SuggestedPrice  float64       `json:"suggested_price" db:"suggested_price"`
	CurrentBid      float64       `json:"current_bid" db:"current_bid"`
	ReservePrice    *float64      `json:"reserve_price,omitempty" db:"reserve_price"`
	BidCount        int64         `json:"bid_count" db:"bid_count"`
	ConfidenceScore float64       `json:"confidence_score" db:"confidence_score"`
	ImageURL        string        `json:"image_url" db:"image_url"`
	AuctionStatus   AuctionStatus `json:"auction_status" db:"auction_status"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// Bid represents a ledger entry for an accepted bid on a product
type Bid struct {
	ID         int64     `json:"id" db:"id"`
	BidID      string    `json:"bid_id" db:"bid_id"`
	ProductID  int64     `json:"product_id" db:"product_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Amount     float64   `json:"amount" db:"amount"`
	Status     BidStatus `json:"status" db:"status"`
	IsAutoBid  bool      `json:"is_auto_bid" db:"is_auto_bid"`
	MaxAutoBid *float64  `json:"max_auto_bid,omitempty" db:"max_auto_bid"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// BidRequest is a bid submission before it reaches the ledger
type BidRequest struct {
	ProductID  int64
	BidID      string
	UserID     string
	Amount     float64
	IsAutoBid  bool
	MaxAutoBid *float64
}

// ListingFields are the descriptive fields a new listing is created from
type ListingFields struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Condition       string   `json:"condition"`
	Category        string   `json:"category"`
	SuggestedPrice  float64  `json:"suggested_price"`
	ReservePrice    *float64 `json:"reserve_price,omitempty"`
	Tags            []string `json:"tags"`
	Brand           string   `json:"brand"`
	Model           string   `json:"model"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	ImageURL        string   `json:"image_url"`
}

// ProductPatch holds the editable, non-auction fields of a product.
// Nil fields are left unchanged.
type ProductPatch struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Condition       *Condition `json:"condition"`
	Category        *string    `json:"category"`
	SuggestedPrice  *float64   `json:"suggested_price"`
	Tags            *Tags      `json:"tags"`
	Brand           *string    `json:"brand"`
	Model           *string    `json:"model"`
	ConfidenceScore *float64   `json:"confidence_score"`
	ImageURL        *string    `json:"image_url"`
}

// Empty reports whether the patch changes nothing
func (p ProductPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Condition == nil && p.Category == nil &&
		p.SuggestedPrice == nil && p.Tags == nil && p.Brand == nil && p.Model == nil &&
		p.ConfidenceScore == nil && p.ImageURL == nil
}

// SearchFilter narrows a catalog query. Zero values mean "no filter".
type SearchFilter struct {
	Text     string
	Category string
	Brand    string
	MinPrice *float64
	MaxPrice *float64
	Limit    int
	Offset   int
}

// BidOrder selects the ordering of a product's bid listing
type BidOrder int

const (
	OrderByAmount BidOrder = iota
	OrderByTime
)

// ReconcileReport summarizes a recovery pass over the catalog
type ReconcileReport struct {
	ProductsChecked  int `json:"products_checked"`
	ProductsRepaired int `json:"products_repaired"`
	BidsPromoted     int `json:"bids_promoted"`
	BidsDemoted      int `json:"bids_demoted"`
}

// AuctionResult is the outcome of closing an auction
type AuctionResult struct {
	ProductID  int64   `json:"product_id"`
	Winner     *Bid    `json:"winner,omitempty"`
	FinalPrice float64 `json:"final_price"`
	BidsLost   int64   `json:"bids_lost"`
}
