package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.ObserveTick(100 * time.Microsecond)
	r.ObserveTick(200 * time.Microsecond)
	r.ObserveStageEntered(true)
	r.ObserveStageEntered(false)
	r.ObserveStageEntered(false)
	r.ObserveAnnouncement("stage")
	r.ObserveAnnouncement("countdown")
	r.ObserveAnnouncement("countdown")
	r.ObserveSpeechFailure("clip+tts")
	r.ObserveCompletion(true)
	r.ObserveCompletion(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ticksTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stagesTotal.WithLabelValues("high")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.stagesTotal.WithLabelValues("low")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.announcementsTotal.WithLabelValues("countdown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.speechFailuresTotal.WithLabelValues("clip+tts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.completionsTotal.WithLabelValues("recorded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.completionsTotal.WithLabelValues("debounced")))
}

func TestPrometheusRecorder_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPrometheusRecorder(prometheus.NewRegistry())
		NewPrometheusRecorder(prometheus.NewRegistry())
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewPrometheusRecorder(reg)
	r.ObserveAnnouncement("complete")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `hiit_announcements_total{kind="complete"} 1`)
}

func TestNop(t *testing.T) {
	r := Nop()
	assert.NotPanics(t, func() {
		r.ObserveTick(time.Millisecond)
		r.ObserveStageEntered(true)
		r.ObserveAnnouncement("stage")
		r.ObserveSpeechFailure("tts")
		r.ObserveCompletion(true)
	})
}
