package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WSConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vietshare_ws_active_connections",
		Help: "Active websocket connections",
	})

	WSDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vietshare_ws_dropped_frames_total",
		Help: "Frames dropped because a client's send buffer was full",
	})

	EventsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vietshare_events_delivered_total",
		Help: "Domain events pushed to local sockets, by type",
	}, []string{"type"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vietshare_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vietshare_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	MediaDeletes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vietshare_media_deletes_total",
		Help: "Media delete jobs handled by the janitor, by outcome",
	}, []string{"outcome"})
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(WSConnections, WSDropped, EventsDelivered, HTTPRequests, HTTPDuration, MediaDeletes)
}

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
