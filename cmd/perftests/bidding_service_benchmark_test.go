package perftests

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	model "agentbay/internal/models"
)

// Benchmark 1: SubmitBid - Isolated Products (Low Contention - Micro Benchmark)
func Benchmark_SubmitBid_Isolated(b *testing.B) {
	ctx := context.Background()
	_, svc, ids := setupStore(b, b.N, 20)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req := model.BidRequest{
			ProductID: ids[i],
			BidID:     fmt.Sprintf("bid_%d", i),
			UserID:    fmt.Sprintf("user_%d", i),
			Amount:    float64(21 + rand.Intn(100)),
		}
		if _, err := svc.SubmitBid(ctx, req); err != nil {
			b.Fatalf("failed to submit bid: %v", err)
		}
	}
}

// Benchmark 2: SubmitBid - Shared Product (High Contention - Concurrency Benchmark)
func Benchmark_SubmitBid_ConcurrentSharedProduct(b *testing.B) {
	ctx := context.Background()
	_, svc, ids := setupStore(b, 1, 20)
	productID := ids[0]

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 20
	var seq int64

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			n := atomic.AddInt64(&seq, 1)
			nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1))
			// out-of-order arrivals are rejected as too low; that is part of the load
			_, _ = svc.SubmitBid(ctx, model.BidRequest{
				ProductID: productID,
				BidID:     fmt.Sprintf("shared_%d", n),
				UserID:    fmt.Sprintf("user_parallel_%d", rnd.Int()),
				Amount:    float64(nextBid) * 10,
			})
		}
	})
}

// Benchmark 3: GetHighestBid - Single-Threaded (Low Contention)
func Benchmark_GetHighestBid_SingleThreaded(b *testing.B) {
	ctx := context.Background()
	_, svc, ids := setupStore(b, b.N, 50)

	for i, id := range ids {
		for j := 0; j < 10; j++ {
			_, _ = svc.SubmitBid(ctx, model.BidRequest{
				ProductID: id,
				BidID:     fmt.Sprintf("seed_%d_%d", i, j),
				UserID:    fmt.Sprintf("user_%d_%d", i, j),
				Amount:    float64(60 + j*10),
			})
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := svc.GetHighestBid(ctx, ids[i]); err != nil {
			b.Fatalf("failed to get highest bid: %v", err)
		}
	}
}

// Benchmark 4: GetHighestBid - Concurrent (High Contention)
func Benchmark_GetHighestBid_ConcurrentSharedProduct(b *testing.B) {
	ctx := context.Background()
	_, svc, ids := setupStore(b, 1, 50)
	productID := ids[0]

	for j := 0; j < 100; j++ {
		_, _ = svc.SubmitBid(ctx, model.BidRequest{
			ProductID: productID,
			BidID:     fmt.Sprintf("seed_%d", j),
			UserID:    fmt.Sprintf("user_%d", j),
			Amount:    float64(60 + j*10),
		})
	}

	b.ReportAllocs()
	b.ResetTimer()

	var counter int64

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := svc.GetHighestBid(ctx, productID); err != nil {
				b.Errorf("failed to get highest bid: %v", err)
				return
			}
			atomic.AddInt64(&counter, 1)
		}
	})
}

// Benchmark 5: Mixed Workload (Readers + Writers concurrently)
func Benchmark_MixedWorkload_SharedProduct(b *testing.B) {
	ctx := context.Background()
	_, svc, ids := setupStore(b, 1, 50)
	productID := ids[0]

	for j := 0; j < 50; j++ {
		_, _ = svc.SubmitBid(ctx, model.BidRequest{
			ProductID: productID,
			BidID:     fmt.Sprintf("seed_%d", j),
			UserID:    fmt.Sprintf("user_seed_%d", j),
			Amount:    float64(60 + j*10),
		})
	}

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 600
	var seq, counter int64

	// Ratio: 70% readers, 30% writers
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			opType := rnd.Intn(10)
			switch {
			case opType < 3:
				n := atomic.AddInt64(&seq, 1)
				nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1)*10)
				_, _ = svc.SubmitBid(ctx, model.BidRequest{
					ProductID: productID,
					BidID:     fmt.Sprintf("mixed_%d", n),
					UserID:    fmt.Sprintf("user_writer_%d", rnd.Int()),
					Amount:    float64(nextBid),
				})
			default:
				_, _ = svc.GetHighestBid(ctx, productID)
			}
			atomic.AddInt64(&counter, 1)
		}
	})
}
