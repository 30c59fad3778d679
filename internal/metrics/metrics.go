package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricVotesApplied        = "agora_votes_applied_total"
	MetricVoteConflicts       = "agora_vote_cas_conflicts_total"
	MetricBadgesAwarded       = "agora_badges_awarded_total"
	MetricNotificationsFailed = "agora_notifications_failed_total"
	MetricRequestDuration     = "agora_http_request_duration_seconds"
)

// MetricService owns the process collectors. It uses its own registry so that
// several instances (one per test) never collide.
type MetricService struct {
	registry *prometheus.Registry

	votesApplied        *prometheus.CounterVec
	voteConflicts       *prometheus.CounterVec
	badgesAwarded       *prometheus.CounterVec
	notificationsFailed prometheus.Counter
	requestDuration     *prometheus.HistogramVec
}

func NewMetricService() *MetricService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ms := &MetricService{registry: registry}

	ms.votesApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricVotesApplied,
		Help: "Votes that changed a tally, by target kind and action",
	}, []string{"target", "action"})
	registry.MustRegister(ms.votesApplied)

	ms.voteConflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricVoteConflicts,
		Help: "Optimistic write conflicts that forced a retry, by target kind",
	}, []string{"target"})
	registry.MustRegister(ms.voteConflicts)

	ms.badgesAwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricBadgesAwarded,
		Help: "Badges granted to users",
	}, []string{"badge"})
	registry.MustRegister(ms.badgesAwarded)

	ms.notificationsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricNotificationsFailed,
		Help: "Best-effort notifications that could not be stored",
	})
	registry.MustRegister(ms.notificationsFailed)

	ms.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricRequestDuration,
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	registry.MustRegister(ms.requestDuration)

	return ms
}

func (m *MetricService) VoteApplied(target, action string) {
	m.votesApplied.WithLabelValues(target, action).Inc()
}

func (m *MetricService) VoteConflict(target string) {
	m.voteConflicts.WithLabelValues(target).Inc()
}

func (m *MetricService) BadgeAwarded(badge string) {
	m.badgesAwarded.WithLabelValues(badge).Inc()
}

func (m *MetricService) NotificationFailed() {
	m.notificationsFailed.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records the latency of every request under its route pattern.
func (m *MetricService) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricService) Registry() *prometheus.Registry {
	return m.registry
}
