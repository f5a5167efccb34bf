package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hiit"

// PrometheusRecorder implements Recorder with Prometheus collectors
type PrometheusRecorder struct {
	ticksTotal          prometheus.Counter
	tickHandling        prometheus.Histogram
	stagesTotal         *prometheus.CounterVec
	announcementsTotal  *prometheus.CounterVec
	speechFailuresTotal *prometheus.CounterVec
	completionsTotal    *prometheus.CounterVec
}

// NewPrometheusRecorder registers the session collectors on reg
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		ticksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ticks_total",
				Help:      "Clock ticks processed while running",
			},
		),
		tickHandling: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tick_handling_seconds",
				Help:      "Time spent handling one clock tick",
				Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025},
			},
		),
		stagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stages_entered_total",
				Help:      "Stage transitions by intensity",
			},
			[]string{"intensity"},
		),
		announcementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "announcements_total",
				Help:      "Announcements emitted by kind",
			},
			[]string{"kind"},
		),
		speechFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "speech_failures_total",
				Help:      "Announcements that could not be played",
			},
			[]string{"backend"},
		),
		completionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completions_total",
				Help:      "Finished runs by whether the completion was recorded",
			},
			[]string{"result"},
		),
	}
}

func (p *PrometheusRecorder) ObserveTick(handling time.Duration) {
	p.ticksTotal.Inc()
	p.tickHandling.Observe(handling.Seconds())
}

func (p *PrometheusRecorder) ObserveStageEntered(highIntensity bool) {
	intensity := "low"
	if highIntensity {
		intensity = "high"
	}
	p.stagesTotal.WithLabelValues(intensity).Inc()
}

func (p *PrometheusRecorder) ObserveAnnouncement(kind string) {
	p.announcementsTotal.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) ObserveSpeechFailure(backend string) {
	p.speechFailuresTotal.WithLabelValues(backend).Inc()
}

func (p *PrometheusRecorder) ObserveCompletion(recorded bool) {
	result := "recorded"
	if !recorded {
		result = "debounced"
	}
	p.completionsTotal.WithLabelValues(result).Inc()
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
