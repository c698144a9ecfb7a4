package repository

import (
	"context"
	"errors"

	model "agentbay/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// ErrStaleCurrentBid is returned by LedgerTx.UpdateCurrentBid when the product's
// current bid changed after it was read.
var ErrStaleCurrentBid = errors.New("current bid changed concurrently")

// AuctionDB defines the bid ledger used by the ranking engine
type AuctionDB interface {
	RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error
	GetProduct(ctx context.Context, productID int64) (model.Product, error)
	GetBidsByProduct(ctx context.Context, productID int64, order model.BidOrder, limit int) ([]model.Bid, error)
	GetBidsByUser(ctx context.Context, userID string, activeOnly bool, limit int) ([]model.Bid, error)
	GetHighestActiveBid(ctx context.Context, productID int64) (model.Bid, error)
	GetBidByBidID(ctx context.Context, bidID string) (model.Bid, error)
	GetAutoBids(ctx context.Context, productID int64) ([]model.Bid, error)
	SetBidStatus(ctx context.Context, bidID string, status model.BidStatus) error
}

// LedgerTx is the set of ledger operations available inside a bid transaction.
// Everything done through one LedgerTx commits or rolls back together.
type LedgerTx interface {
	LockProduct(ctx context.Context, productID int64) (model.Product, error)
	BidExists(ctx context.Context, bidID string) (bool, error)
	AppendBid(ctx context.Context, bid model.Bid) (model.Bid, error)
	HighestActiveBid(ctx context.Context, productID int64) (model.Bid, error)
	SetStatus(ctx context.Context, id int64, status model.BidStatus) error
	SetStatusBulk(ctx context.Context, productID, excludeID int64, from []model.BidStatus, to model.BidStatus) (int64, error)
	UpdateCurrentBid(ctx context.Context, productID int64, expected, amount float64) error
	SetAuctionStatus(ctx context.Context, productID int64, status model.AuctionStatus) error
}

// Catalog defines product storage and search
type Catalog interface {
	CreateProduct(ctx context.Context, product model.Product) (model.Product, error)
	GetProduct(ctx context.Context, productID int64) (model.Product, error)
	UpdateProduct(ctx context.Context, productID int64, patch model.ProductPatch) (model.Product, error)
	DeleteProduct(ctx context.Context, productID int64) (bool, error)
	SearchProducts(ctx context.Context, filter model.SearchFilter) ([]model.Product, error)
}
