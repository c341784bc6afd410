package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts operation outcomes. Each Service carries its own registry
// so parallel instances (and tests) never fight over metric registration.
type Metrics struct {
	registry         *prometheus.Registry
	transitionsTotal *prometheus.CounterVec
	stageGauge       *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reso_transitions_total",
			Help: "Total resolution operations by op and outcome",
		}, []string{"op", "status"}),
		stageGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reso_instances",
			Help: "Current number of instances per stage",
		}, []string{"stage"}),
	}
	m.registry.MustRegister(m.transitionsTotal, m.stageGauge)
	return m
}

func (m *Metrics) Ok(op string) {
	m.transitionsTotal.WithLabelValues(op, "ok").Inc()
}

func (m *Metrics) Fail(op string) {
	m.transitionsTotal.WithLabelValues(op, "rejected").Inc()
}

func (m *Metrics) SetStageCount(stage string, n int) {
	m.stageGauge.WithLabelValues(stage).Set(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
