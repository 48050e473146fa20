package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialnet_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnectionsTotal is the gauge of active notification sockets.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "socialnet_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// MessagesSent counts accepted direct messages.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialnet_messages_sent_total",
		Help: "Total number of direct messages accepted",
	})

	// MessagesRateLimited counts direct messages rejected by the sender window.
	MessagesRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialnet_messages_rate_limited_total",
		Help: "Total number of direct messages rejected by the rate limit",
	})

	// NotificationsCreated counts persisted notifications by kind.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_notifications_created_total",
		Help: "Total number of notifications created",
	}, []string{"kind"})

	// NotificationPushFailures counts realtime deliveries that failed after persistence.
	NotificationPushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialnet_notification_push_failures_total",
		Help: "Total number of notification pushes that failed",
	})

	// FeedAssemblySeconds records how long feed pages take to build.
	FeedAssemblySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "socialnet_feed_assembly_seconds",
		Help:    "Time spent assembling a feed page",
		Buckets: prometheus.DefBuckets,
	})

	// FollowMutations counts follow and unfollow calls by outcome.
	FollowMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_follow_mutations_total",
		Help: "Total number of follow graph mutations",
	}, []string{"op", "result"})
)

// DatabaseMetrics records query latency for repository calls.
type DatabaseMetrics struct{}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics() *DatabaseMetrics {
	return &DatabaseMetrics{}
}

// ObserveQuery records the latency of a database query.
func (*DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
