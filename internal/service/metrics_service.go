package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the bag desk.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	checkinsTotal   prometheus.Counter
	checkoutsTotal  *prometheus.CounterVec
	tagCollisions   prometheus.Counter
	notifications   *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	checkinsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bag_checkins_total",
		Help: "Total successful bag check-ins",
	})

	checkoutsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bag_checkouts_total",
		Help: "Total successful bag check-outs by selector",
	}, []string{"selector"})

	tagCollisions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tag_code_collisions_total",
		Help: "Tag code candidates rejected because an active record held them",
	})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notification delivery attempts by type and outcome",
	}, []string{"type", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, checkinsTotal, checkoutsTotal, tagCollisions, notifications, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		checkinsTotal:   checkinsTotal,
		checkoutsTotal:  checkoutsTotal,
		tagCollisions:   tagCollisions,
		notifications:   notifications,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// IncCheckin counts a successful check-in.
func (m *MetricsService) IncCheckin() {
	if m == nil {
		return
	}
	m.checkinsTotal.Inc()
}

// IncCheckout counts a successful check-out with its selector kind.
func (m *MetricsService) IncCheckout(selector string) {
	if m == nil {
		return
	}
	m.checkoutsTotal.WithLabelValues(selector).Inc()
}

// IncTagCollision counts a rejected tag code candidate.
func (m *MetricsService) IncTagCollision() {
	if m == nil {
		return
	}
	m.tagCollisions.Inc()
}

// IncNotification counts one notification delivery attempt.
func (m *MetricsService) IncNotification(noticeType string, success bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.notifications.WithLabelValues(noticeType, outcome).Inc()
}
