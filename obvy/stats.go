package fallwatch

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsInternal holds the prometheus collectors on a private registry
// so tests can build as many as they like.
type StatsInternal struct {
	Registry    *prometheus.Registry
	Frames      prometheus.Counter
	Absent      prometheus.Counter
	Statuses    *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Classify    prometheus.Histogram
	Alerts      *prometheus.CounterVec
	Sessions    prometheus.Gauge
	WWW         *prometheus.CounterVec
}

func NewStatsInternal() *StatsInternal {
	reg := prometheus.NewRegistry()

	s := &StatsInternal{
		Registry: reg,
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fallwatch_frames_total",
			Help: "Landmark frames classified",
		}),
		Absent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fallwatch_frames_absent_total",
			Help: "Frames where no body was detected",
		}),
		Statuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fallwatch_status_total",
			Help: "Reported status per classified frame",
		}, []string{"status"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fallwatch_transitions_total",
			Help: "Detection state changes",
		}, []string{"from", "to"}),
		Classify: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fallwatch_classify_seconds",
			Help:    "Time spent in one pipeline pass",
			Buckets: prometheus.ExponentialBuckets(0.000005, 4, 8),
		}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fallwatch_alerts_total",
			Help: "Alerts handed to the output plugin",
		}, []string{"status"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fallwatch_sessions_active",
			Help: "Open websocket sessions",
		}),
		WWW: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fallwatch_http_requests_total",
			Help: "API requests by status code and method",
		}, []string{"code", "method"}),
	}

	reg.MustRegister(s.Frames, s.Absent, s.Statuses, s.Transitions,
		s.Classify, s.Alerts, s.Sessions, s.WWW)

	return s
}

// Handler serves this registry for /metrics
func (s *StatsInternal) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})
}

func (s *StatsInternal) RecFrame(status string, d time.Duration) {
	s.Frames.Inc()
	s.Statuses.WithLabelValues(status).Inc()
	s.Classify.Observe(d.Seconds())
}

func (s *StatsInternal) RecAbsent()                    { s.Absent.Inc() }
func (s *StatsInternal) RecTransition(from, to string) { s.Transitions.WithLabelValues(from, to).Inc() }
func (s *StatsInternal) RecAlert(status string)        { s.Alerts.WithLabelValues(status).Inc() }
func (s *StatsInternal) SessionOpen()                  { s.Sessions.Inc() }
func (s *StatsInternal) SessionClose()                 { s.Sessions.Dec() }
func (s *StatsInternal) RecWWW(code, method string)    { s.WWW.WithLabelValues(code, method).Inc() }
