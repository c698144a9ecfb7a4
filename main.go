package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agentbay/internal/autobid"
	bidding "agentbay/internal/biddingService"
	catalog "agentbay/internal/catalogService"
	"agentbay/internal/config"
	model "agentbay/internal/models"
	"agentbay/internal/repository"
	"agentbay/internal/server"
	"agentbay/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load config", map[string]any{"error": err.Error()})
	}
	utils.Configure(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.Fatal("server stopped with error", map[string]any{"error": err.Error()})
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := repository.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.ReconcileOnStart {
		if _, err := store.Reconcile(ctx); err != nil {
			return err
		}
	}

	biddingSvc := bidding.NewBiddingService(store,
		bidding.WithLockTimeout(cfg.BidLockTimeout),
		bidding.WithMaxAttempts(cfg.BidMaxAttempts),
		bidding.WithIncrementPolicy(cfg.BidIncrements),
	)
	catalogSvc := catalog.NewCatalogService(store, catalog.FallbackGenerator{})

	if cfg.SeedDemoData {
		if err := prepopulateProducts(ctx, store); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AutoBidEnabled {
		worker := autobid.NewWorker(store, biddingSvc, cfg.AutoBidQueueSize, cfg.AutoBidMaxRounds)
		biddingSvc.SetNotifier(worker)
		g.Go(func() error { return worker.Run(gctx) })
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.SetupRouter(biddingSvc, catalogSvc, store),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		utils.Info("starting auction server", map[string]any{"addr": srv.Addr, "driver": cfg.DBDriver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		utils.Info("shutting down auction server", nil)
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// prepopulateProducts adds sample listings when the catalog is empty
func prepopulateProducts(ctx context.Context, store *repository.Store) error {
	existing, err := store.SearchProducts(ctx, model.SearchFilter{Limit: 1})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	reserve := 150.0
	products := []model.Product{
		{Title: "Canon AE-1 film camera", Description: "35mm SLR with 50mm lens", Condition: model.ConditionExcellent,
			Category: "Electronics", Brand: "Canon", Model: "AE-1", Tags: model.Tags{"camera", "film", "vintage"},
			SuggestedPrice: 24, ConfidenceScore: 0.9},
		{Title: "Herman Miller Aeron chair", Description: "Size B, fully adjustable", Condition: model.ConditionGood,
			Category: "Furniture", Brand: "Herman Miller", Model: "Aeron", Tags: model.Tags{"office", "chair"},
			SuggestedPrice: 90, ReservePrice: &reserve, ConfidenceScore: 0.8},
		{Title: "Fender Stratocaster", Description: "Player series, sunburst", Condition: model.ConditionLikeNew,
			Category: "Music", Brand: "Fender", Model: "Stratocaster", Tags: model.Tags{"guitar", "electric"},
			SuggestedPrice: 480, ConfidenceScore: 0.85},
	}

	for _, p := range products {
		created, err := store.CreateProduct(ctx, p)
		if err != nil {
			return err
		}
		utils.Info("seeded product", map[string]any{"product_id": created.ID, "title": created.Title})
	}
	return nil
}
