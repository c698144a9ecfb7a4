package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"agentbay/internal/biddingerrors"
	model "agentbay/internal/models"
	"agentbay/services/bidding/helpers"
	"agentbay/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=bidding_handler.go -destination=mock_bidding_service.go -package=handler

type BiddingServiceInterface interface {
	SubmitBid(ctx context.Context, req model.BidRequest) (model.Bid, error)
	GetBidsForProduct(ctx context.Context, productID int64, order model.BidOrder, limit int) ([]model.Bid, error)
	GetHighestBid(ctx context.Context, productID int64) (model.Bid, error)
	GetBidsByUser(ctx context.Context, userID string, activeOnly bool, limit int) ([]model.Bid, error)
	CloseAuction(ctx context.Context, productID int64) (model.AuctionResult, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// SubmitBidHandler handles POST /products/:id/bids
func (h *BiddingHandler) SubmitBidHandler(c *gin.Context) {
	productID, err := helpers.ParseID(c, "id")
	if err != nil {
		helpers.HandleParamError(c, "SubmitBidHandler", err)
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SubmitBidHandler", err)
		return
	}

	bid, err := h.service.SubmitBid(c.Request.Context(), model.BidRequest{
		ProductID:  productID,
		BidID:      req.BidID,
		UserID:     req.UserID,
		Amount:     req.Amount,
		IsAutoBid:  req.IsAutoBid,
		MaxAutoBid: req.MaxAutoBid,
	})
	if err != nil {
		helpers.RespondError(c, "SubmitBidHandler", err, map[string]any{
			"product_id": productID,
			"bid_id":     req.BidID,
			"user_id":    req.UserID,
			"amount":     req.Amount,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("SubmitBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"product_id": bid.ProductID,
		"user_id":    bid.UserID,
		"amount":     bid.Amount,
	})
}

// GetBidsByProductHandler handles GET /products/:id/bids
func (h *BiddingHandler) GetBidsByProductHandler(c *gin.Context) {
	productID, err := helpers.ParseID(c, "id")
	if err != nil {
		helpers.HandleParamError(c, "GetBidsByProductHandler", err)
		return
	}
	limit, err := helpers.ParseLimit(c)
	if err != nil {
		helpers.HandleParamError(c, "GetBidsByProductHandler", err)
		return
	}

	order := model.OrderByAmount
	switch c.DefaultQuery("order", "amount") {
	case "amount":
	case "time":
		order = model.OrderByTime
	default:
		helpers.HandleParamError(c, "GetBidsByProductHandler", fmt.Errorf("invalid order %q", c.Query("order")))
		return
	}

	bids, err := h.service.GetBidsForProduct(c.Request.Context(), productID, order, limit)
	if err != nil {
		helpers.RespondError(c, "GetBidsByProductHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByProductHandler", "bids retrieved successfully", map[string]any{
		"product_id": productID,
		"count":      len(bids),
	})
}

// GetHighestBidHandler handles GET /products/:id/highest-bid
func (h *BiddingHandler) GetHighestBidHandler(c *gin.Context) {
	productID, err := helpers.ParseID(c, "id")
	if err != nil {
		helpers.HandleParamError(c, "GetHighestBidHandler", err)
		return
	}

	bid, err := h.service.GetHighestBid(c.Request.Context(), productID)
	if errors.Is(err, biddingerrors.ErrNoBids) {
		utils.JSONResponse(c, http.StatusOK, nil, "no bids found for product")
		utils.Info("GetHighestBidHandler: no bids found", map[string]any{"product_id": productID})
		return
	}
	if err != nil {
		helpers.RespondError(c, "GetHighestBidHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponse(bid), "highest bid retrieved successfully")
	helpers.LogSuccess("GetHighestBidHandler", "highest bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"product_id": bid.ProductID,
		"amount":     bid.Amount,
	})
}

// GetBidsByUserHandler handles GET /users/:user_id/bids
func (h *BiddingHandler) GetBidsByUserHandler(c *gin.Context) {
	userID := c.Param("user_id")
	activeOnly, err := helpers.ParseBool(c, "active_only")
	if err != nil {
		helpers.HandleParamError(c, "GetBidsByUserHandler", err)
		return
	}
	limit, err := helpers.ParseLimit(c)
	if err != nil {
		helpers.HandleParamError(c, "GetBidsByUserHandler", err)
		return
	}

	bids, err := h.service.GetBidsByUser(c.Request.Context(), userID, activeOnly, limit)
	if err != nil {
		helpers.RespondError(c, "GetBidsByUserHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByUserHandler", "bids retrieved successfully", map[string]any{
		"user_id":     userID,
		"active_only": activeOnly,
		"count":       len(bids),
	})
}

// CloseAuctionHandler handles POST /products/:id/close
func (h *BiddingHandler) CloseAuctionHandler(c *gin.Context) {
	productID, err := helpers.ParseID(c, "id")
	if err != nil {
		helpers.HandleParamError(c, "CloseAuctionHandler", err)
		return
	}

	result, err := h.service.CloseAuction(c.Request.Context(), productID)
	if err != nil {
		helpers.RespondError(c, "CloseAuctionHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResultResponse(result), "auction closed")
	helpers.LogSuccess("CloseAuctionHandler", "auction closed", map[string]any{
		"product_id":  productID,
		"final_price": result.FinalPrice,
	})
}
