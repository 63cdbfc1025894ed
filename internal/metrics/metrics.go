package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the portal's study-tracking collectors.
type Metrics struct {
	AssessmentsScored *prometheus.CounterVec
	RewardAwarded     prometheus.Counter
	ScorePercent      prometheus.Histogram
	UnknownAnswers    prometheus.Counter
	TopicToggles      *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		AssessmentsScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_assessments_scored_total",
				Help: "Assessment scoring calls by outcome",
			},
			[]string{"outcome"},
		),
		RewardAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_reward_points_awarded_total",
			Help: "Experience points awarded for correct answers",
		}),
		ScorePercent: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "portal_assessment_percent_correct",
			Help:    "Percentage correct of scored assessments",
			Buckets: []float64{10, 25, 50, 70, 90, 100},
		}),
		UnknownAnswers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_unknown_answers_total",
			Help: "Answers referencing question ids absent from the quiz",
		}),
		TopicToggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_topic_toggles_total",
				Help: "Checklist item toggles by subject",
			},
			[]string{"subject"},
		),
		gatherer: reg,
	}
	reg.MustRegister(m.AssessmentsScored, m.RewardAwarded, m.ScorePercent, m.UnknownAnswers, m.TopicToggles)
	return m
}

// NewNop returns collectors bound to a private registry, for tests and tools.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
