package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BidsSubmitted counts bid submissions by outcome (accepted, too_low, duplicate, ...)
var BidsSubmitted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "agentbay_bids_submitted_total",
		Help: "Total number of bid submissions by outcome",
	},
	[]string{"outcome"},
)

// BidLatency records how long a bid submission takes end to end
var BidLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "agentbay_bid_latency_seconds",
		Help:    "Latency in seconds to process a bid submission",
		Buckets: prometheus.DefBuckets,
	},
)

// BidRetries counts transactions retried after a stale current bid
var BidRetries = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "agentbay_bid_retries_total",
		Help: "Bid transactions retried because the current bid moved",
	},
)

// ProxyBids counts bids placed automatically on behalf of auto-bidders
var ProxyBids = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "agentbay_proxy_bids_total",
		Help: "Proxy bids placed by the auto-bid worker by outcome",
	},
	[]string{"outcome"},
)

// HTTP request metrics
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentbay_http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		},
		[]string{"path", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentbay_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

func init() {
	prometheus.MustRegister(BidsSubmitted, BidLatency, BidRetries, ProxyBids)
	prometheus.MustRegister(HTTPRequestsTotal, HTTPRequestDuration)
}
