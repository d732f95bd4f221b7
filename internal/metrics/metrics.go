// Package metrics provides Prometheus metrics for the survey bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery channels.
const (
	ChannelNotify    = "notify_all"
	ChannelBroadcast = "broadcast"
	ChannelRelay     = "relay"
)

// Metrics holds all Prometheus metrics of the bot. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SurveysStarted   prometheus.Counter
	SurveysCompleted prometheus.Counter
	SurveysDeclined  prometheus.Counter
	SurveyRejections *prometheus.CounterVec

	Deliveries    *prometheus.CounterVec
	BroadcastRuns prometheus.Counter
	Events        *prometheus.CounterVec
}

// New creates the metrics on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SurveysStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "surveybot_surveys_started_total",
			Help: "Total number of survey flows started with /start",
		}),
		SurveysCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "surveybot_surveys_completed_total",
			Help: "Total number of surveys persisted",
		}),
		SurveysDeclined: factory.NewCounter(prometheus.CounterOpts{
			Name: "surveybot_surveys_declined_total",
			Help: "Total number of surveys declined at a consent gate",
		}),
		SurveyRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "surveybot_survey_rejections_total",
			Help: "Total number of survey answers outside the accepted vocabulary",
		}, []string{"state"}),
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "surveybot_deliveries_total",
			Help: "Total number of outbound sends by channel and outcome",
		}, []string{"channel", "outcome"}),
		BroadcastRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "surveybot_broadcast_runs_total",
			Help: "Total number of broadcast campaigns run",
		}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "surveybot_events_total",
			Help: "Total number of inbound events by sender role and intent",
		}, []string{"role", "intent"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterGauge exposes fn as a gauge, e.g. the number of live sessions.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	if m == nil {
		return
	}
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn)
}

// Delivered records the outcome of one send on channel.
func (m *Metrics) Delivered(channel string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failed"
	}
	m.Deliveries.WithLabelValues(channel, outcome).Inc()
}

// SurveyStarted records a /start.
func (m *Metrics) SurveyStarted() {
	if m != nil {
		m.SurveysStarted.Inc()
	}
}

// SurveyCompleted records a persisted survey.
func (m *Metrics) SurveyCompleted() {
	if m != nil {
		m.SurveysCompleted.Inc()
	}
}

// SurveyDeclined records a declined survey.
func (m *Metrics) SurveyDeclined() {
	if m != nil {
		m.SurveysDeclined.Inc()
	}
}

// SurveyRejected records an answer rejected in state.
func (m *Metrics) SurveyRejected(state string) {
	if m != nil {
		m.SurveyRejections.WithLabelValues(state).Inc()
	}
}

// BroadcastRun records a finished campaign.
func (m *Metrics) BroadcastRun() {
	if m != nil {
		m.BroadcastRuns.Inc()
	}
}

// Event records one dispatched event.
func (m *Metrics) Event(role, intent string) {
	if m != nil {
		m.Events.WithLabelValues(role, intent).Inc()
	}
}
