package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	bidhandler "agentbay/services/bidding/handler"
	cataloghandler "agentbay/services/catalog/handler"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newRouter(t *testing.T, db Pinger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	return SetupRouter(
		bidhandler.NewMockBiddingServiceInterface(ctrl),
		cataloghandler.NewMockCatalogServiceInterface(ctrl),
		db,
	)
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name           string
		db             Pinger
		expectedStatus int
	}{
		{name: "healthy", db: fakePinger{}, expectedStatus: http.StatusOK},
		{name: "database_down", db: fakePinger{err: errors.New("connection refused")}, expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			router := newRouter(t, tc.db)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			require.Equal(t, tc.expectedStatus, w.Code)
		})
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router := newRouter(t, fakePinger{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, "req-42", w.Header().Get(requestIDHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	router := newRouter(t, fakePinger{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "agentbay_http_requests_total"))
}
