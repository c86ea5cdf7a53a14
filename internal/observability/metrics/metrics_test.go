package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInterviewMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewInterviewMetrics(reg)

	m.ObserveTurn("SCAN", "ok")
	m.ObserveTurn("SCAN", "ok")
	m.ObserveValidation("explain_better")
	m.ObserveValidation("")
	m.ObserveDuplicate("exact")
	m.ObserveLeadField("email")
	m.ObservePhaseTransition("SCAN", "DEEP_OFFER_ASK")
	m.ObservePhaseTransition("SCAN", "SCAN") // self-loop is not a transition

	assert.Equal(t, float64(2), testutil.ToFloat64(m.turnsTotal.WithLabelValues("SCAN", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.validationTotal.WithLabelValues("explain_better")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.validationTotal.WithLabelValues("valid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.duplicatesTotal.WithLabelValues("exact")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.leadFieldsTotal.WithLabelValues("email")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.phaseTransitions.WithLabelValues("SCAN", "DEEP_OFFER_ASK")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.phaseTransitions.WithLabelValues("SCAN", "SCAN")))
}

func TestInterviewMetricsNilReceiverIsSafe(t *testing.T) {
	var m *InterviewMetrics
	assert.NotPanics(t, func() {
		m.ObserveTurn("SCAN", "ok")
		m.ObserveValidation("x")
		m.ObserveDuplicate("none")
		m.ObserveLeadField("name")
		m.ObserveTurnLatency("SCAN", 0.1)
		m.ObservePhaseTransition("a", "b")
	})
}
