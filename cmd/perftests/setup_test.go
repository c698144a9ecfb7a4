package perftests

import (
	"context"
	"fmt"
	"testing"

	bidding "agentbay/internal/biddingService"
	model "agentbay/internal/models"
	"agentbay/internal/repository"
)

// setupStore creates an in-memory store and bidding service seeded with products
func setupStore(tb testing.TB, numProducts int, suggested float64) (*repository.Store, *bidding.BiddingService, []int64) {
	tb.Helper()
	ctx := context.Background()

	store, err := repository.Open(ctx, repository.DriverSQLite, ":memory:")
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	ids := make([]int64, 0, numProducts)
	for i := 0; i < numProducts; i++ {
		p, err := store.CreateProduct(ctx, model.Product{
			Title:          fmt.Sprintf("title_%d", i),
			Description:    "Load test product",
			Condition:      model.ConditionGood,
			SuggestedPrice: suggested,
		})
		if err != nil {
			tb.Fatalf("failed to create product: %v", err)
		}
		ids = append(ids, p.ID)
	}
	return store, bidding.NewBiddingService(store), ids
}
