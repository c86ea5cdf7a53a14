package metrics

import "github.com/prometheus/client_golang/prometheus"

// InterviewMetrics exposes counters/histograms for the turn-processing core.
type InterviewMetrics struct {
	turnsTotal       *prometheus.CounterVec
	validationTotal  *prometheus.CounterVec
	duplicatesTotal  *prometheus.CounterVec
	leadFieldsTotal  *prometheus.CounterVec
	turnLatency      *prometheus.HistogramVec
	phaseTransitions *prometheus.CounterVec
}

func NewInterviewMetrics(reg prometheus.Registerer) *InterviewMetrics {
	m := &InterviewMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attento",
			Subsystem: "interview",
			Name:      "turns_total",
			Help:      "Total processed conversation turns",
		}, []string{"phase", "status"}),
		validationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attento",
			Subsystem: "interview",
			Name:      "validation_total",
			Help:      "Field validation outcomes by strategy",
		}, []string{"strategy"}),
		duplicatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attento",
			Subsystem: "interview",
			Name:      "duplicate_questions_total",
			Help:      "Duplicate question screening verdicts",
		}, []string{"reason"}),
		leadFieldsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attento",
			Subsystem: "chat",
			Name:      "lead_fields_total",
			Help:      "Lead fields collected by the chat widget",
		}, []string{"field"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "attento",
			Subsystem: "interview",
			Name:      "turn_latency_seconds",
			Help:      "Latency of end-to-end turn processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase"}),
		phaseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attento",
			Subsystem: "interview",
			Name:      "phase_transitions_total",
			Help:      "Phase state machine transitions",
		}, []string{"from", "to"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.turnsTotal,
		m.validationTotal,
		m.duplicatesTotal,
		m.leadFieldsTotal,
		m.turnLatency,
		m.phaseTransitions,
	)
	return m
}

func (m *InterviewMetrics) ObserveTurn(phase, status string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(phase, status).Inc()
}

func (m *InterviewMetrics) ObserveValidation(strategy string) {
	if m == nil {
		return
	}
	if strategy == "" {
		strategy = "valid"
	}
	m.validationTotal.WithLabelValues(strategy).Inc()
}

func (m *InterviewMetrics) ObserveDuplicate(reason string) {
	if m == nil {
		return
	}
	m.duplicatesTotal.WithLabelValues(reason).Inc()
}

func (m *InterviewMetrics) ObserveLeadField(field string) {
	if m == nil {
		return
	}
	m.leadFieldsTotal.WithLabelValues(field).Inc()
}

func (m *InterviewMetrics) ObserveTurnLatency(phase string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(phase).Observe(seconds)
}

func (m *InterviewMetrics) ObservePhaseTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.phaseTransitions.WithLabelValues(from, to).Inc()
}
