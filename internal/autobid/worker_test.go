package autobid

import (
	"context"
	"testing"
	"time"

	bidding "agentbay/internal/biddingService"
	model "agentbay/internal/models"
	"agentbay/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func setup(t *testing.T, maxRounds int) (*repository.Store, *bidding.BiddingService, *Worker, model.Product) {
	t.Helper()
	ctx := context.Background()

	store, err := repository.Open(ctx, repository.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	product, err := store.CreateProduct(ctx, model.Product{Title: "camera", Condition: model.ConditionGood, SuggestedPrice: 20})
	require.NoError(t, err)

	service := bidding.NewBiddingService(store)
	worker := NewWorker(store, service, 8, maxRounds)
	return store, service, worker, product
}

func autoBid(productID int64, bidID, userID string, amount, ceiling float64) model.BidRequest {
	return model.BidRequest{ProductID: productID, BidID: bidID, UserID: userID, Amount: amount, IsAutoBid: true, MaxAutoBid: floatPtr(ceiling)}
}

func TestWorker_RespondCountersHumanBid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, service, worker, p := setup(t, DefaultMaxRounds)

	_, err := service.SubmitBid(ctx, autoBid(p.ID, "alice-1", "alice", 21, 50))
	require.NoError(t, err)

	placed, err := worker.Respond(ctx, p.ID)
	require.NoError(t, err)
	require.Zero(t, placed, "the winner never bids against itself")

	_, err = service.SubmitBid(ctx, model.BidRequest{ProductID: p.ID, BidID: "bob-1", UserID: "bob", Amount: 30})
	require.NoError(t, err)

	placed, err = worker.Respond(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, placed)

	highest, err := store.GetHighestActiveBid(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", highest.UserID)
	require.Equal(t, 32.5, highest.Amount)
	require.True(t, highest.IsAutoBid)
}

func TestWorker_RespondProxyWarStopsAtLowerCeiling(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, service, worker, p := setup(t, DefaultMaxRounds)

	_, err := service.SubmitBid(ctx, autoBid(p.ID, "alice-1", "alice", 30, 50))
	require.NoError(t, err)
	_, err = service.SubmitBid(ctx, autoBid(p.ID, "carol-1", "carol", 35, 40))
	require.NoError(t, err)

	placed, err := worker.Respond(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 2, placed, "carol spends her ceiling, alice tops it once")

	bids, err := store.GetBidsByProduct(ctx, p.ID, model.OrderByAmount, 10)
	require.NoError(t, err)
	require.Len(t, bids, 4)
	require.Equal(t, "carol", bids[1].UserID)
	require.Equal(t, 40.0, bids[1].Amount)
	require.Equal(t, model.BidOutbid, bids[1].Status)

	highest, err := store.GetHighestActiveBid(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", highest.UserID)
	require.Equal(t, 42.5, highest.Amount)

	product, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 42.5, product.CurrentBid)
}

func TestWorker_RespondRequeuesAtRoundLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, service, worker, p := setup(t, 1)

	_, err := service.SubmitBid(ctx, autoBid(p.ID, "alice-1", "alice", 30, 50))
	require.NoError(t, err)
	_, err = service.SubmitBid(ctx, autoBid(p.ID, "carol-1", "carol", 35, 40))
	require.NoError(t, err)

	placed, err := worker.Respond(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, placed)

	highest, err := store.GetHighestActiveBid(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "carol", highest.UserID)
	require.Equal(t, 40.0, highest.Amount)

	// the unfinished war is queued again and settles on the next pass
	require.Len(t, worker.events, 1)
	event := <-worker.events
	require.Equal(t, p.ID, event.ProductID)

	placed, err = worker.Respond(ctx, event.ProductID)
	require.NoError(t, err)
	require.Equal(t, 1, placed)

	highest, err = store.GetHighestActiveBid(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", highest.UserID)
	require.Equal(t, 42.5, highest.Amount)
	require.Empty(t, worker.events)
}

func TestWorker_RespondResolvesProxyWar(t *testing.T) {
	t.Parallel()

	type declaration struct {
		user    string
		amount  float64
		ceiling float64
	}

	tests := []struct {
		name           string
		first, second  declaration
		expectedWinner string
		expectedAmount float64
		expectedPlaced int
	}{
		{
			name:           "higher_ceiling_declared_first",
			first:          declaration{user: "alice", amount: 21, ceiling: 700},
			second:         declaration{user: "carol", amount: 22, ceiling: 600},
			expectedWinner: "alice",
			expectedAmount: 610,
			expectedPlaced: 2,
		},
		{
			name:           "higher_ceiling_declared_second",
			first:          declaration{user: "carol", amount: 21, ceiling: 600},
			second:         declaration{user: "alice", amount: 22, ceiling: 700},
			expectedWinner: "alice",
			expectedAmount: 610,
			expectedPlaced: 2,
		},
		{
			name:           "ceilings_within_one_increment",
			first:          declaration{user: "carol", amount: 21, ceiling: 600},
			second:         declaration{user: "alice", amount: 22, ceiling: 605},
			expectedWinner: "alice",
			expectedAmount: 605,
			expectedPlaced: 1,
		},
		{
			name:           "equal_ceilings_keep_standing_winner",
			first:          declaration{user: "carol", amount: 21, ceiling: 600},
			second:         declaration{user: "alice", amount: 22, ceiling: 600},
			expectedWinner: "alice",
			expectedAmount: 600,
			expectedPlaced: 1,
		},
		{
			name:           "challenger_within_increment_of_lower_ceiling",
			first:          declaration{user: "carol", amount: 21, ceiling: 600},
			second:         declaration{user: "alice", amount: 22, ceiling: 595},
			expectedWinner: "carol",
			expectedAmount: 600,
			expectedPlaced: 1,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store, service, worker, p := setup(t, DefaultMaxRounds)

			_, err := service.SubmitBid(ctx, autoBid(p.ID, tc.first.user+"-1", tc.first.user, tc.first.amount, tc.first.ceiling))
			require.NoError(t, err)
			_, err = service.SubmitBid(ctx, autoBid(p.ID, tc.second.user+"-1", tc.second.user, tc.second.amount, tc.second.ceiling))
			require.NoError(t, err)

			placed, err := worker.Respond(ctx, p.ID)
			require.NoError(t, err)
			require.Equal(t, tc.expectedPlaced, placed)
			require.Empty(t, worker.events, "the war settles without hitting the round limit")

			highest, err := store.GetHighestActiveBid(ctx, p.ID)
			require.NoError(t, err)
			require.Equal(t, tc.expectedWinner, highest.UserID)
			require.Equal(t, tc.expectedAmount, highest.Amount)

			product, err := store.GetProduct(ctx, p.ID)
			require.NoError(t, err)
			require.Equal(t, tc.expectedAmount, product.CurrentBid)
		})
	}
}

func TestWorker_RespondSkipsClosedAuction(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, service, worker, p := setup(t, DefaultMaxRounds)

	_, err := service.SubmitBid(ctx, autoBid(p.ID, "alice-1", "alice", 21, 50))
	require.NoError(t, err)
	_, err = service.SubmitBid(ctx, model.BidRequest{ProductID: p.ID, BidID: "bob-1", UserID: "bob", Amount: 30})
	require.NoError(t, err)
	_, err = service.CloseAuction(ctx, p.ID)
	require.NoError(t, err)

	placed, err := worker.Respond(ctx, p.ID)
	require.NoError(t, err)
	require.Zero(t, placed)
}

func TestWorker_RunReactsToAcceptedBids(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, service, worker, p := setup(t, DefaultMaxRounds)
	service.SetNotifier(worker)

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	_, err := service.SubmitBid(ctx, autoBid(p.ID, "alice-1", "alice", 21, 50))
	require.NoError(t, err)
	_, err = service.SubmitBid(ctx, model.BidRequest{ProductID: p.ID, BidID: "bob-1", UserID: "bob", Amount: 30})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		highest, err := store.GetHighestActiveBid(context.Background(), p.ID)
		return err == nil && highest.UserID == "alice"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWorker_BidAcceptedDropsWhenFull(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	worker := NewWorker(repository.NewMockAuctionDB(ctrl), nil, 1, 1)

	worker.BidAccepted(bidding.BidEvent{ProductID: 1, BidID: "a"})
	worker.BidAccepted(bidding.BidEvent{ProductID: 1, BidID: "b"})

	require.Len(t, worker.events, 1)
	require.Equal(t, "a", (<-worker.events).BidID)
}

func TestWorker_RespondPropagatesLedgerErrors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ledger := repository.NewMockAuctionDB(ctrl)
	worker := NewWorker(ledger, nil, 1, 1)

	ledger.EXPECT().GetProduct(gomock.Any(), int64(3)).Return(model.Product{}, context.DeadlineExceeded)

	_, err := worker.Respond(context.Background(), 3)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPickChallenger(t *testing.T) {
	t.Parallel()

	declarations := []model.Bid{
		{UserID: "alice", MaxAutoBid: floatPtr(50)},
		{UserID: "bob", MaxAutoBid: floatPtr(80)},
		{UserID: "carol", MaxAutoBid: floatPtr(80)},
		{UserID: "dave", MaxAutoBid: floatPtr(10)},
	}

	tests := []struct {
		name     string
		winner   string
		next     float64
		expected string
		found    bool
	}{
		{name: "highest_ceiling_earliest_first", winner: "alice", next: 20, expected: "bob", found: true},
		{name: "winner_excluded", winner: "bob", next: 20, expected: "carol", found: true},
		{name: "ceiling_exactly_next", winner: "bob", next: 80, expected: "carol", found: true},
		{name: "nobody_can_cover", winner: "alice", next: 80.5, found: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := pickChallenger(declarations, tc.winner, tc.next)
			require.Equal(t, tc.found, ok)
			if ok {
				require.Equal(t, tc.expected, got.UserID)
			}
		})
	}
}

func TestStrongestDeclaration(t *testing.T) {
	t.Parallel()

	declarations := []model.Bid{
		{BidID: "a1", UserID: "alice", MaxAutoBid: floatPtr(50)},
		{BidID: "b1", UserID: "bob", MaxAutoBid: floatPtr(90)},
		{BidID: "a2", UserID: "alice", MaxAutoBid: floatPtr(70)},
		{BidID: "a3", UserID: "alice"},
	}

	got, ok := strongestDeclaration(declarations, "alice")
	require.True(t, ok)
	require.Equal(t, "a2", got.BidID)

	_, ok = strongestDeclaration(declarations, "carol")
	require.False(t, ok)
}
