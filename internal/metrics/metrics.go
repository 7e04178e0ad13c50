package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for generation attempts.
const (
	OutcomeOK        = "ok"
	OutcomeShortfall = "shortfall"
	OutcomeEmpty     = "empty"
	OutcomeError     = "error"
)

// Metrics holds every collector the server exports.
type Metrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	QuizzesGenerated   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	ParseShortfalls    *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	ScoreRatio         prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "endpoint"},
		),
		QuizzesGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edututor_quizzes_generated_total",
				Help: "Quiz generation attempts by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		GenerationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edututor_generation_duration_seconds",
				Help:    "Time spent waiting for the LLM provider",
				Buckets: []float64{1, 2, 5, 10, 20, 40, 80, 120},
			},
			[]string{"provider"},
		),
		ParseShortfalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edututor_parse_shortfalls_total",
				Help: "Generated quizzes that parsed short, by warning code",
			},
			[]string{"code"},
		),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edututor_quiz_submissions_total",
				Help: "Quiz submissions by result",
			},
			[]string{"result"},
		),
		ScoreRatio: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "edututor_quiz_score_ratio",
				Help:    "Score divided by total for graded quizzes",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.QuizzesGenerated,
		m.GenerationDuration,
		m.ParseShortfalls,
		m.Submissions,
		m.ScoreRatio,
	)
	return m
}

// NewDefault registers on a fresh registry that also carries the Go runtime and
// process collectors.
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return New(reg)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
