package helpers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	bidding "agentbay/internal/biddingService"
	"agentbay/internal/biddingerrors"
	"agentbay/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrProductNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, biddingerrors.ErrBidNotFound):
		return http.StatusNotFound, "bid not found"
	case errors.Is(err, biddingerrors.ErrDuplicateBid):
		return http.StatusConflict, "duplicate bid"
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return http.StatusConflict, "auction is closed"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusUnprocessableEntity, "bid amount too low"
	case errors.Is(err, biddingerrors.ErrBelowMinimumIncrement):
		return http.StatusUnprocessableEntity, "bid below minimum increment"
	case errors.Is(err, biddingerrors.ErrReserveNotMet):
		return http.StatusUnprocessableEntity, "reserve price not met"
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, biddingerrors.ErrInvalidProduct):
		return http.StatusBadRequest, "invalid product details"
	case errors.Is(err, biddingerrors.ErrContention), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "product is busy, retry the request"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// retryAfterSeconds is sent with errors the client may resubmit unchanged
const retryAfterSeconds = "1"

// RespondError writes the mapped error response. Bid rejections carry the
// current and minimum acceptable amounts.
func RespondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	if biddingerrors.IsRetryable(err) {
		c.Header("Retry-After", retryAfterSeconds)
	}

	var rej *biddingerrors.BidRejection
	if errors.As(err, &rej) {
		utils.JSONErrorWithDetails(c, status, fmt.Errorf("%s: %w", message, err), message, RejectionDetails{
			CurrentBid: rej.CurrentBid,
			MinimumBid: rej.MinimumBid,
		})
	} else {
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
	}

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
	} else {
		utils.Warn(handlerName+": request rejected", fields)
	}
}

// ParseID reads a positive integer path parameter
func ParseID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, c.Param(name))
	}
	return id, nil
}

// ParseLimit reads the limit query parameter. A missing limit selects the
// default page size; present values are clamped to [1, bidding.MaxLimit].
func ParseLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return bidding.DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	switch {
	case limit < 1:
		return 1, nil
	case limit > bidding.MaxLimit:
		return bidding.MaxLimit, nil
	}
	return limit, nil
}

// ParseOffset reads the offset query parameter, defaulting to zero
func ParseOffset(c *gin.Context) (int, error) {
	raw := c.Query("offset")
	if raw == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid offset %q", raw)
	}
	return offset, nil
}

// ParseBool reads an optional boolean query parameter
func ParseBool(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

// HandleParamError sends a 400 for malformed path or query parameters
func HandleParamError(c *gin.Context, handlerName string, err error) {
	utils.JSONError(c, http.StatusBadRequest, err, "invalid request parameters")
	utils.Warn(handlerName+": parameter error", map[string]any{"error": err.Error()})
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
