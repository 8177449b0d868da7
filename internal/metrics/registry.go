package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NewRegistry creates a new Prometheus registry with metrics
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	return reg, m
}

// WriteTextfile writes the metrics gathered from g to path in the text
// exposition format read by the node_exporter textfile collector. The file is
// replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
