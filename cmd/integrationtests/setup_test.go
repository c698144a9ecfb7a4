package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	bidding "agentbay/internal/biddingService"
	catalog "agentbay/internal/catalogService"
	model "agentbay/internal/models"
	"agentbay/internal/repository"
	"agentbay/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// TestEnv bundles a router with the store behind it so tests can seed and inspect state.
type TestEnv struct {
	Router *gin.Engine
	Store  *repository.Store
}

// SetupTestRouter initializes the router over an in-memory sqlite store.
func SetupTestRouter(t *testing.T) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := repository.Open(context.Background(), repository.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	bidSvc := bidding.NewBiddingService(store)
	catSvc := catalog.NewCatalogService(store, catalog.FallbackGenerator{})
	router := server.SetupRouter(bidSvc, catSvc, store)
	return &TestEnv{Router: router, Store: store}
}

// SetupTestRouterWithProducts initializes the router and seeds the store with products.
// Seeded products come back with their assigned ids.
func SetupTestRouterWithProducts(t *testing.T, products ...model.Product) (*TestEnv, []model.Product) {
	t.Helper()
	env := SetupTestRouter(t)

	seeded := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.Condition == "" {
			p.Condition = model.ConditionGood
		}
		created, err := env.Store.CreateProduct(context.Background(), p)
		require.NoError(t, err)
		seeded = append(seeded, created)
	}
	return env, seeded
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		if err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}

// Data returns the "data" object of a response envelope
func Data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", resp)
	return data
}
