package server

import (
	"context"
	"net/http"
	"time"

	bidhandler "agentbay/services/bidding/handler"
	cataloghandler "agentbay/services/catalog/handler"
	"agentbay/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(biddingService bidhandler.BiddingServiceInterface, catalogService cataloghandler.CatalogServiceInterface, db Pinger) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery()) // recover from panics
	router.Use(RequestIDMiddleware)
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(MetricsMiddleware)

	biddingHandler := bidhandler.NewBiddingHandler(biddingService)
	catalogHandler := cataloghandler.NewCatalogHandler(catalogService)

	products := router.Group("/products")
	{
		products.POST("", catalogHandler.CreateProductHandler)
		products.GET("", catalogHandler.SearchProductsHandler)
		products.GET("/:id", catalogHandler.GetProductHandler)
		products.PATCH("/:id", catalogHandler.UpdateProductHandler)
		products.DELETE("/:id", catalogHandler.DeleteProductHandler)

		products.POST("/:id/bids", biddingHandler.SubmitBidHandler)
		products.GET("/:id/bids", biddingHandler.GetBidsByProductHandler)
		products.GET("/:id/highest-bid", biddingHandler.GetHighestBidHandler)
		products.POST("/:id/close", biddingHandler.CloseAuctionHandler)
	}

	router.POST("/listings", catalogHandler.CreateListingHandler)

	users := router.Group("/users")
	{
		users.GET("/:user_id/bids", biddingHandler.GetBidsByUserHandler)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", healthHandler(db))

	return router
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				utils.JSONError(c, http.StatusServiceUnavailable, err, "database unavailable")
				return
			}
		}
		utils.JSONResponse(c, http.StatusOK, gin.H{"database": "ok"}, "healthy")
	}
}
